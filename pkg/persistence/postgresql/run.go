package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/persistence"
)

// RunRepository handles workflow run database operations.
type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sql.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

// Save upserts a workflow run. Runs are written once when they start and
// again when they finish, so conflicts on the run ID update in place.
func (r *RunRepository) Save(ctx context.Context, run *models.WorkflowRun) error {
	executions := run.NodeExecutions
	if executions == nil {
		executions = []models.NodeExecution{}
	}

	executionsJSON, err := json.Marshal(executions)
	if err != nil {
		return persistence.NewRunError("Save", run.WorkflowID, run.ID, fmt.Errorf("failed to marshal node executions: %w", err))
	}

	query := `
		INSERT INTO workflow_runs (id, workflow_id, status, started_at, completed_at, duration_ms, node_executions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status
		  , completed_at = EXCLUDED.completed_at
		  , duration_ms = EXCLUDED.duration_ms
		  , node_executions = EXCLUDED.node_executions
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID, run.WorkflowID, run.Status, run.StartedAt, run.CompletedAt,
		run.DurationMS, executionsJSON,
	)
	if err != nil {
		return persistence.NewRunError("Save", run.WorkflowID, run.ID, err)
	}

	return nil
}

// ByWorkflow returns the recorded runs of a workflow, most recent first.
func (r *RunRepository) ByWorkflow(ctx context.Context, workflowID int64) ([]*models.WorkflowRun, error) {
	query := `
		SELECT
			id
		  , workflow_id
		  , status
		  , started_at
		  , completed_at
		  , duration_ms
		  , node_executions
		FROM workflow_runs
		WHERE workflow_id = $1
		ORDER BY started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, persistence.NewRunError("List", workflowID, "", err)
	}

	defer func(ctx context.Context, r *RunRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	runs := make([]*models.WorkflowRun, 0)

	for rows.Next() {
		var (
			run            models.WorkflowRun
			executionsJSON []byte
		)

		err := rows.Scan(
			&run.ID,
			&run.WorkflowID,
			&run.Status,
			&run.StartedAt,
			&run.CompletedAt,
			&run.DurationMS,
			&executionsJSON,
		)
		if err != nil {
			return nil, persistence.NewRunError("List", workflowID, "", fmt.Errorf("failed to scan run: %w", err))
		}

		if err := json.Unmarshal(executionsJSON, &run.NodeExecutions); err != nil {
			return nil, persistence.NewRunError("List", workflowID, run.ID, fmt.Errorf("failed to unmarshal node executions: %w", err))
		}

		runs = append(runs, &run)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewRunError("List", workflowID, "", fmt.Errorf("error iterating runs: %w", err))
	}

	return runs, nil
}
