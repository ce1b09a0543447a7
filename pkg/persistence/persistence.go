// Package persistence provides data storage abstraction layer for workflows and runs.
package persistence

import (
	"context"

	"github.com/weftlabs/weft/pkg/models"
)

type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id int64) (*models.Workflow, error)
	CreateWorkflow(ctx context.Context, workflow *models.Workflow) error
	UpdateWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id int64) error

	SaveRun(ctx context.Context, run *models.WorkflowRun) error
	RunsByWorkflow(ctx context.Context, workflowID int64) ([]*models.WorkflowRun, error)

	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
