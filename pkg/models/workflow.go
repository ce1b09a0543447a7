package models

import "time"

// DefaultCredits is the credit balance a new workflow starts with.
const DefaultCredits = 149

// Workflow is the persisted record of a canvas: its graph plus accounting
// metadata. IDs are assigned by the persistence layer.
type Workflow struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"      validate:"required,min=1"`
	Nodes     []*Node   `json:"nodes"`
	Edges     []*Edge   `json:"edges"`
	Credits   int       `json:"credits"`
	Runs      int       `json:"runs"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
