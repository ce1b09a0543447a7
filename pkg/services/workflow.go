package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/weftlabs/weft/pkg/graph"
	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/persistence"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

type Workflow struct {
	persistence persistence.Persistence
	validator   *validator.Validate
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence) *Workflow {
	return &Workflow{
		persistence: persistence,
		validator:   validator.New(),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List retrieves all workflows.
func (w *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id int64) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return nil, ErrWorkflowNotFound
		}

		return nil, err
	}

	return workflow, nil
}

// Create adds a new workflow to the repository. New workflows start with the
// default credit balance unless one is given.
func (w *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if err := w.validateWorkflow(workflow); err != nil {
		return nil, err
	}

	if workflow.Credits == 0 {
		workflow.Credits = models.DefaultCredits
	}

	err := w.persistence.CreateWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Update modifies an existing workflow by its ID.
func (w *Workflow) Update(
	ctx context.Context,
	workflowID int64,
	workflow *models.Workflow,
) (*models.Workflow, error) {
	if err := w.validateWorkflow(workflow); err != nil {
		return nil, err
	}

	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	workflow.ID = workflowID
	workflow.CreatedAt = existing.CreatedAt

	err = w.persistence.UpdateWorkflow(ctx, workflow)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return nil, ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, workflowID int64) error {
	err := w.persistence.DeleteWorkflow(ctx, workflowID)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return ErrWorkflowNotFound
		}

		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}

// Runs returns the recorded runs of a workflow, most recent first.
func (w *Workflow) Runs(ctx context.Context, workflowID int64) ([]*models.WorkflowRun, error) {
	if _, err := w.FetchByID(ctx, workflowID); err != nil {
		return nil, err
	}

	runs, err := w.persistence.RunsByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// validateWorkflow rejects workflows whose metadata or graph would be
// unloadable later. Saved graphs must be acyclic with intact edge endpoints.
func (w *Workflow) validateWorkflow(workflow *models.Workflow) error {
	if workflow == nil {
		return ErrWorkflowNil
	}

	if err := w.validator.Struct(workflow); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewValidationError("validateWorkflow", "INVALID_WORKFLOW", validationErrors.Error(), ErrTitleRequired)
		}

		return NewValidationError("validateWorkflow", "INVALID_WORKFLOW", err.Error(), ErrInvalidRequest)
	}

	for _, node := range workflow.Nodes {
		if !node.Kind.IsValid() {
			return NewValidationError(
				"validateWorkflow",
				"INVALID_NODE_KIND",
				fmt.Sprintf("node %s has unknown kind %q", node.ID, node.Kind),
				ErrInvalidNodeKind,
			)
		}
	}

	if err := graph.ValidateDAG(workflow.Nodes, workflow.Edges); err != nil {
		return NewValidationError("validateWorkflow", "INVALID_GRAPH", err.Error(), ErrInvalidGraph)
	}

	return nil
}
