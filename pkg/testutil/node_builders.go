// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/google/uuid"

	"github.com/weftlabs/weft/pkg/models"
)

// CreateTestNode creates a test Node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:       uuid.New().String(),
		Kind:     models.NodeKindText,
		Position: models.Position{X: 100, Y: 200},
		Data:     models.DefaultData(models.NodeKindText),
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node ID.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// WithKind sets the node kind and resets its data to the kind's defaults.
func WithKind(kind models.NodeKind) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = kind
		n.Data = models.DefaultData(kind)
	}
}

// WithLabel sets the node label.
func WithLabel(label string) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.Label = label
	}
}

// WithText sets the node's text content.
func WithText(text string) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.Text = text
	}
}

// WithOutput sets the node's last execution output.
func WithOutput(output string) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.Output = output
	}
}

// WithCost sets the node's credit cost.
func WithCost(cost int) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.Cost = cost
	}
}

// WithPosition sets the node position.
func WithPosition(x, y float64) func(*models.Node) {
	return func(n *models.Node) {
		n.Position = models.Position{X: x, Y: y}
	}
}

// CreateTestEdge creates an edge between two node IDs.
func CreateTestEdge(source, target string) *models.Edge {
	return &models.Edge{
		ID:     uuid.New().String(),
		Source: source,
		Target: target,
	}
}

// CreateTestWorkflow creates an empty test workflow.
func CreateTestWorkflow() *models.Workflow {
	return &models.Workflow{
		Title:   "Test Workflow",
		Credits: models.DefaultCredits,
		Nodes:   []*models.Node{},
		Edges:   []*models.Edge{},
	}
}

// CreateTestWorkflowWithNodes creates a test workflow holding a two-node chain.
func CreateTestWorkflowWithNodes() *models.Workflow {
	workflow := CreateTestWorkflow()

	first := CreateTestNode(WithID("text-1"), WithLabel("Source"), WithText("hello"))
	second := CreateTestNode(WithID("text-2"), WithLabel("Sink"))

	workflow.Nodes = []*models.Node{first, second}
	workflow.Edges = []*models.Edge{
		{ID: "edge-1", Source: "text-1", Target: "text-2"},
	}

	return workflow
}
