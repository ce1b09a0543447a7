// Package postgresql provides PostgreSQL persistence implementation for workflows and runs.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db           *sql.DB
	logger       *slog.Logger
	workflowRepo *WorkflowRepository
	runRepo      *RunRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	postgres := &Persistence{
		db:           database,
		logger:       logger,
		workflowRepo: NewWorkflowRepository(database, logger),
		runRepo:      NewRunRepository(database, logger),
	}

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Workflows returns all workflows from the database.
func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	return p.workflowRepo.GetAll(ctx)
}

// WorkflowByID returns a workflow by its ID.
func (p *Persistence) WorkflowByID(ctx context.Context, id int64) (*models.Workflow, error) {
	return p.workflowRepo.GetByID(ctx, id)
}

// CreateWorkflow inserts a workflow and assigns its generated ID.
func (p *Persistence) CreateWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return p.workflowRepo.Create(ctx, workflow)
}

// UpdateWorkflow saves an existing workflow to the database.
func (p *Persistence) UpdateWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return p.workflowRepo.Update(ctx, workflow)
}

// DeleteWorkflow removes a workflow and, via cascade, its recorded runs.
func (p *Persistence) DeleteWorkflow(ctx context.Context, id int64) error {
	return p.workflowRepo.Delete(ctx, id)
}

// SaveRun persists a workflow run.
func (p *Persistence) SaveRun(ctx context.Context, run *models.WorkflowRun) error {
	return p.runRepo.Save(ctx, run)
}

// RunsByWorkflow returns the recorded runs of a workflow, most recent first.
func (p *Persistence) RunsByWorkflow(ctx context.Context, workflowID int64) ([]*models.WorkflowRun, error) {
	return p.runRepo.ByWorkflow(ctx, workflowID)
}
