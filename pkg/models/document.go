package models

import "time"

// DocumentVersion is the current version tag written into exported documents.
const DocumentVersion = "1.0"

// Document is the portable, versioned snapshot of a graph. Round-tripping a
// graph through export and import reproduces an equivalent graph: same node
// ids, same data, same edge set.
type Document struct {
	Version   string    `json:"version"   validate:"required"`
	Nodes     []*Node   `json:"nodes"`
	Edges     []*Edge   `json:"edges"`
	CreatedAt time.Time `json:"createdAt"`
}
