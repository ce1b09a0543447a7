package services

import (
	"context"
	"log/slog"

	"github.com/weftlabs/weft/pkg/graph"
	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/persistence"
	"github.com/weftlabs/weft/pkg/runner"
)

// Execution drives workflow runs: it loads a stored workflow into a graph,
// hands it to the runner and writes the outcome back, including the updated
// node statuses, the run counter and the remaining credit balance.
type Execution struct {
	persistence persistence.Persistence
	runner      *runner.Runner
	logger      *slog.Logger
}

// NewExecution creates a new execution service.
func NewExecution(persistence persistence.Persistence, r *runner.Runner, logger *slog.Logger) *Execution {
	return &Execution{
		persistence: persistence,
		runner:      r,
		logger:      logger.With("module", "execution_service"),
	}
}

// Run executes the whole workflow in dependency order.
func (e *Execution) Run(ctx context.Context, workflowID int64) (*models.WorkflowRun, error) {
	return e.run(ctx, workflowID, func(ctx context.Context, g *graph.Graph) (*models.WorkflowRun, error) {
		return e.runner.RunWorkflow(ctx, g, workflowID)
	})
}

// RunNode executes a single node of the workflow.
func (e *Execution) RunNode(ctx context.Context, workflowID int64, nodeID string) (*models.WorkflowRun, error) {
	return e.run(ctx, workflowID, func(ctx context.Context, g *graph.Graph) (*models.WorkflowRun, error) {
		return e.runner.RunNode(ctx, g, workflowID, nodeID)
	})
}

// RunSelected executes the given nodes concurrently.
func (e *Execution) RunSelected(ctx context.Context, workflowID int64, nodeIDs []string) (*models.WorkflowRun, error) {
	return e.run(ctx, workflowID, func(ctx context.Context, g *graph.Graph) (*models.WorkflowRun, error) {
		return e.runner.RunSelected(ctx, g, workflowID, nodeIDs)
	})
}

type runFn func(ctx context.Context, g *graph.Graph) (*models.WorkflowRun, error)

func (e *Execution) run(ctx context.Context, workflowID int64, fn runFn) (*models.WorkflowRun, error) {
	workflow, err := e.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return nil, ErrWorkflowNotFound
		}

		return nil, err
	}

	if workflow.Credits <= 0 {
		return nil, ErrInsufficientCredits
	}

	g := graph.New(e.logger)

	if err := g.Load(workflow.Nodes, workflow.Edges); err != nil {
		return nil, NewValidationError("Run", "INVALID_GRAPH", err.Error(), ErrInvalidGraph)
	}

	run, err := fn(ctx, g)
	if err != nil {
		return nil, err
	}

	e.settle(ctx, workflow, g, run)

	return run, nil
}

// settle writes the post-run state back: node statuses and outputs, the run
// counter, and the credit balance reduced by the cost of every node that
// executed. Persistence failures here do not fail the run itself.
func (e *Execution) settle(ctx context.Context, workflow *models.Workflow, g *graph.Graph, run *models.WorkflowRun) {
	workflow.Nodes = g.Nodes()
	workflow.Edges = g.Edges()
	workflow.Runs++
	workflow.Credits -= e.consumedCredits(g, run)

	if workflow.Credits < 0 {
		workflow.Credits = 0
	}

	if err := e.persistence.UpdateWorkflow(ctx, workflow); err != nil {
		e.logger.ErrorContext(ctx, "failed to persist workflow after run",
			"workflow_id", workflow.ID, "run_id", run.ID, "error", err)
	}

	if err := e.persistence.SaveRun(ctx, run); err != nil {
		e.logger.ErrorContext(ctx, "failed to persist run record",
			"workflow_id", workflow.ID, "run_id", run.ID, "error", err)
	}
}

// consumedCredits sums the cost of the nodes that actually executed during
// the run. Nodes that never started cost nothing.
func (e *Execution) consumedCredits(g *graph.Graph, run *models.WorkflowRun) int {
	total := 0

	for _, exec := range run.NodeExecutions {
		node, err := g.Node(exec.NodeID)
		if err != nil {
			continue
		}

		total += node.Data.Cost
	}

	return total
}

// RunsInProgress reports whether the runner is currently busy.
func (e *Execution) RunsInProgress() bool {
	return e.runner.IsRunning()
}

// ErrRunInProgress re-exports the runner sentinel so web handlers can map it
// without importing the runner package.
var ErrRunInProgress = runner.ErrRunInProgress
