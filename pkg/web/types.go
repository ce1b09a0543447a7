// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/weftlabs/weft/pkg/models"

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Title string         `json:"title" validate:"required,min=1"`
	Nodes []*models.Node `json:"nodes"`
	Edges []*models.Edge `json:"edges"`
}

// UpdateWorkflowRequest represents the request body for updating an existing workflow.
// Nodes and edges are replaced wholesale when present; a nil slice leaves the
// stored graph untouched.
type UpdateWorkflowRequest struct {
	Title *string        `json:"title,omitempty" validate:"omitempty,min=1"`
	Nodes []*models.Node `json:"nodes,omitempty"`
	Edges []*models.Edge `json:"edges,omitempty"`
}

// RunSelectedRequest represents the request body for running a subset of nodes.
type RunSelectedRequest struct {
	NodeIDs []string `json:"node_ids" validate:"required,min=1"`
}

// UploadResponse represents the result of a processed asset upload.
type UploadResponse struct {
	URL string `json:"url"`
}
