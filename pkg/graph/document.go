package graph

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/weftlabs/weft/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// documentSchema is the JSON Schema imported documents must satisfy before
// anything touches the live graph. Both collections are mandatory; a
// document missing either is rejected wholesale.
const documentSchema = `{
	"type": "object",
	"required": ["nodes", "edges"],
	"properties": {
		"version": {"type": "string"},
		"createdAt": {"type": "string"},
		"nodes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "kind"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"kind": {"type": "string", "minLength": 1}
				}
			}
		},
		"edges": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["source", "target"],
				"properties": {
					"source": {"type": "string", "minLength": 1},
					"target": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

// Export produces a versioned, faithful snapshot of the entire graph.
// Importing the result reproduces an equivalent graph.
func (g *Graph) Export() *models.Document {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return &models.Document{
		Version:   models.DocumentVersion,
		Nodes:     cloneNodes(g.nodes),
		Edges:     cloneEdges(g.edges),
		CreatedAt: time.Now().UTC(),
	}
}

// ExportJSON serializes the export document as indented JSON text, suitable
// for download as a file.
func (g *Graph) ExportJSON() ([]byte, error) {
	payload, err := json.MarshalIndent(g.Export(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workflow document: %w", err)
	}

	return payload, nil
}

// Import validates the document and replaces the live graph wholesale. On
// malformed input it fails with a descriptive error and leaves the live
// graph untouched; there is no partial import.
func (g *Graph) Import(doc *models.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is empty", ErrInvalidDocument)
	}

	if doc.Nodes == nil || doc.Edges == nil {
		return fmt.Errorf("%w: document must contain nodes and edges collections", ErrInvalidDocument)
	}

	for _, node := range doc.Nodes {
		if node.ID == "" {
			return fmt.Errorf("%w: node without id", ErrInvalidDocument)
		}

		if node.Data == nil {
			node.Data = models.DefaultData(node.Kind)
		}
	}

	return g.Load(doc.Nodes, doc.Edges)
}

// ImportJSON validates raw JSON against the document schema, then imports
// it. Schema violations are reported with their field paths.
func (g *Graph) ImportJSON(payload []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(payload),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if !result.Valid() {
		detail := ""
		for _, desc := range result.Errors() {
			if detail != "" {
				detail += "; "
			}

			detail += desc.String()
		}

		return fmt.Errorf("%w: %s", ErrInvalidDocument, detail)
	}

	var doc models.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if doc.Nodes == nil {
		doc.Nodes = []*models.Node{}
	}

	if doc.Edges == nil {
		doc.Edges = []*models.Edge{}
	}

	return g.Import(&doc)
}
