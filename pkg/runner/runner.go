// Package runner implements the execution orchestrator: running one node, a
// selected subset concurrently, or the whole graph in dependency order,
// updating per-node status and aggregating run records.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/weftlabs/weft/pkg/capability"
	"github.com/weftlabs/weft/pkg/eventbus"
	"github.com/weftlabs/weft/pkg/events"
	"github.com/weftlabs/weft/pkg/graph"
	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/otelhelper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrRunInProgress rejects a run request while another run is active.
	// Rejected attempts are dropped, not deferred.
	ErrRunInProgress = errors.New("a run is already in progress")

	// ErrNothingSelected signals a selected-nodes run with an empty selection.
	ErrNothingSelected = errors.New("no nodes selected")
)

// Runner drives node execution against the registered capabilities. A single
// Runner is shared process-wide; its run flag guards against overlapping
// runs. There is no per-node cancellation: a node that has started always
// runs to completion, and context cancellation only takes effect between
// nodes of a whole-graph run.
type Runner struct {
	registry *capability.Registry
	eventBus eventbus.EventBus
	logger   *slog.Logger
	tracer   trace.Tracer
	running  atomic.Bool
}

func New(registry *capability.Registry, eventBus eventbus.EventBus, logger *slog.Logger) *Runner {
	return &Runner{
		registry: registry,
		eventBus: eventBus,
		logger:   logger.With("module", "runner"),
		tracer:   otel.Tracer("weft.runner"),
	}
}

// RunWorkflow executes every node of the graph strictly in topological
// order, each awaited before the next starts. A failed node does not abort
// the run; its downstream nodes simply resolve empty inputs. The run record
// is failed if any node failed.
func (r *Runner) RunWorkflow(ctx context.Context, g *graph.Graph, workflowID int64) (*models.WorkflowRun, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer r.running.Store(false)

	order, err := g.ExecutionOrder()
	if err != nil {
		// Invariant violation, not a user condition: the graph was supposed
		// to be acyclic and referentially intact.
		return nil, fmt.Errorf("cannot run workflow %d: %w", workflowID, err)
	}

	run := r.newRun(workflowID)
	logger := r.logger.With("workflow_id", workflowID, "run_id", run.ID)
	logger.Info("Starting workflow run", "nodes", len(order))

	ctx, span := r.tracer.Start(ctx, "workflow.run", trace.WithAttributes(
		attribute.Int64(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.RunIDKey, run.ID),
		attribute.Int("weft.run.node_count", len(order)),
	))
	defer span.End()

	r.publish(ctx, events.WorkflowRunStarted{
		BaseEvent: r.baseEvent(events.WorkflowRunStartedEvent, workflowID, run.ID),
		NodeCount: len(order),
	})

	for _, nodeID := range order {
		// A node is never interrupted mid-flight, but a cancelled context
		// stops the walk before the next node starts.
		if ctx.Err() != nil {
			break
		}

		exec := r.executeNode(ctx, g, workflowID, run.ID, nodeID)
		run.NodeExecutions = append(run.NodeExecutions, exec)
	}

	r.finalize(ctx, run, logger)

	return run, nil
}

// RunNode executes a single node, ignoring its neighbors entirely. Used for
// manual re-runs of one step.
func (r *Runner) RunNode(ctx context.Context, g *graph.Graph, workflowID int64, nodeID string) (*models.WorkflowRun, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer r.running.Store(false)

	if _, err := g.Node(nodeID); err != nil {
		return nil, err
	}

	run := r.newRun(workflowID)
	logger := r.logger.With("workflow_id", workflowID, "run_id", run.ID, "node_id", nodeID)
	logger.Info("Starting single-node run")

	exec := r.executeNode(ctx, g, workflowID, run.ID, nodeID)
	run.NodeExecutions = append(run.NodeExecutions, exec)

	r.finalize(ctx, run, logger)

	return run, nil
}

// RunSelected executes every node in ids concurrently: issued together,
// awaited as a group, and explicitly not dependency-ordered since the
// selection is user-driven and may cross dependency boundaries. Each
// execution writes only its own node's data.
func (r *Runner) RunSelected(ctx context.Context, g *graph.Graph, workflowID int64, ids []string) (*models.WorkflowRun, error) {
	if len(ids) == 0 {
		return nil, ErrNothingSelected
	}

	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer r.running.Store(false)

	run := r.newRun(workflowID)
	logger := r.logger.With("workflow_id", workflowID, "run_id", run.ID)
	logger.Info("Starting selected-nodes run", "nodes", len(ids))

	executions := make([]models.NodeExecution, len(ids))

	var wg sync.WaitGroup

	for i, nodeID := range ids {
		wg.Add(1)

		go func(i int, nodeID string) {
			defer wg.Done()

			executions[i] = r.executeNode(ctx, g, workflowID, run.ID, nodeID)
		}(i, nodeID)
	}

	wg.Wait()

	run.NodeExecutions = executions
	r.finalize(ctx, run, logger)

	return run, nil
}

// IsRunning reports whether a run is currently active.
func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) executeNode(ctx context.Context, g *graph.Graph, workflowID int64, runID, nodeID string) models.NodeExecution {
	started := time.Now()
	exec := models.NodeExecution{
		ID:     "exec-" + uuid.NewString()[:8],
		NodeID: nodeID,
		Status: models.ExecutionStatusRunning,
	}

	node, err := g.Node(nodeID)
	if err != nil {
		exec.Status = models.ExecutionStatusFailed
		exec.Error = err.Error()
		exec.DurationMS = time.Since(started).Milliseconds()

		return exec
	}

	exec.NodeName = node.Data.Label
	if exec.NodeName == "" {
		exec.NodeName = string(node.Kind)
	}

	ctx, span := r.tracer.Start(ctx, "node.execute", trace.WithAttributes(
		attribute.Int64(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.RunIDKey, runID),
		attribute.String(otelhelper.NodeIDKey, nodeID),
		attribute.String(otelhelper.NodeKindKey, string(node.Kind)),
	))
	defer span.End()

	r.publish(ctx, events.NodeExecutionStarted{
		BaseEvent: r.baseEvent(events.NodeExecutionStartedEvent, workflowID, runID),
		NodeID:    nodeID,
		NodeKind:  string(node.Kind),
	})

	inputs := g.NodeInputs(nodeID)
	exec.Inputs = inputs

	logger := r.logger.With("run_id", runID, "node_id", nodeID, "kind", node.Kind)
	logger.Debug("Executing node", "inputs", describeInputs(inputs))

	r.markRunning(g, nodeID)

	result := r.invoke(ctx, node, inputs)

	exec.DurationMS = time.Since(started).Milliseconds()

	if result.Success {
		exec.Status = models.ExecutionStatusSuccess
		exec.Output = result.Result
		r.markSuccess(g, nodeID, result.Result)

		r.publish(ctx, events.NodeExecutionFinished{
			BaseEvent: r.baseEvent(events.NodeExecutionFinishedEvent, workflowID, runID),
			NodeID:    nodeID,
			NodeKind:  string(node.Kind),
			Duration:  time.Since(started),
		})

		return exec
	}

	exec.Status = models.ExecutionStatusFailed
	exec.Error = result.Error
	r.markError(g, nodeID, result.Error)

	otelhelper.SetError(span, errors.New(result.Error))
	logger.Warn("Node execution failed", "error", result.Error)

	r.publish(ctx, events.NodeExecutionFailed{
		BaseEvent: r.baseEvent(events.NodeExecutionFailedEvent, workflowID, runID),
		NodeID:    nodeID,
		NodeKind:  string(node.Kind),
		Error:     result.Error,
		Duration:  time.Since(started),
	})

	return exec
}

// invoke builds the payload and calls the node's capability, folding
// validation failures and transport errors into the {success, result|error}
// shape the rest of the orchestrator consumes.
func (r *Runner) invoke(ctx context.Context, node *models.Node, inputs map[string]string) *capability.Result {
	payload, err := BuildPayload(node, inputs)
	if err != nil {
		return &capability.Result{Success: false, Error: err.Error()}
	}

	c, err := r.registry.ForKind(node.Kind)
	if err != nil {
		return &capability.Result{Success: false, Error: err.Error()}
	}

	result, err := c.Execute(ctx, payload)
	if err != nil {
		return &capability.Result{Success: false, Error: err.Error()}
	}

	if !result.Success && result.Error == "" {
		result.Error = "execution failed"
	}

	return result
}

func (r *Runner) markRunning(g *graph.Graph, nodeID string) {
	status := models.NodeStatusRunning
	empty := ""

	r.patch(g, nodeID, &models.NodeDataPatch{Status: &status, Error: &empty})
}

func (r *Runner) markSuccess(g *graph.Graph, nodeID, output string) {
	status := models.NodeStatusSuccess

	r.patch(g, nodeID, &models.NodeDataPatch{Status: &status, Output: &output})
}

func (r *Runner) markError(g *graph.Graph, nodeID, message string) {
	status := models.NodeStatusError

	r.patch(g, nodeID, &models.NodeDataPatch{Status: &status, Error: &message})
}

func (r *Runner) patch(g *graph.Graph, nodeID string, patch *models.NodeDataPatch) {
	if err := g.UpdateNodeData(nodeID, patch); err != nil {
		r.logger.Warn("Failed to update node status", "node_id", nodeID, "error", err)
	}
}

func (r *Runner) finalize(ctx context.Context, run *models.WorkflowRun, logger *slog.Logger) {
	run.Finalize(time.Now().UTC())

	if run.Status == models.RunStatusSuccess {
		logger.Info("Workflow run completed", "duration_ms", run.DurationMS)

		r.publish(ctx, events.WorkflowRunCompleted{
			BaseEvent: r.baseEvent(events.WorkflowRunCompletedEvent, run.WorkflowID, run.ID),
			Duration:  time.Duration(run.DurationMS) * time.Millisecond,
		})

		return
	}

	failed := make([]string, 0)

	for _, exec := range run.NodeExecutions {
		if exec.Status == models.ExecutionStatusFailed {
			failed = append(failed, exec.NodeID)
		}
	}

	logger.Warn("Workflow run failed", "duration_ms", run.DurationMS, "failed_nodes", failed)

	r.publish(ctx, events.WorkflowRunFailed{
		BaseEvent:   r.baseEvent(events.WorkflowRunFailedEvent, run.WorkflowID, run.ID),
		Duration:    time.Duration(run.DurationMS) * time.Millisecond,
		FailedNodes: failed,
	})
}

func (r *Runner) newRun(workflowID int64) *models.WorkflowRun {
	return &models.WorkflowRun{
		ID:             "run-" + uuid.NewString()[:8],
		WorkflowID:     workflowID,
		Status:         models.RunStatusRunning,
		StartedAt:      time.Now().UTC(),
		NodeExecutions: make([]models.NodeExecution, 0),
	}
}

func (r *Runner) baseEvent(eventType events.EventType, workflowID int64, runID string) events.BaseEvent {
	id := uuid.NewString()
	if r.eventBus != nil {
		id = r.eventBus.GenerateID()
	}

	return events.BaseEvent{
		ID:         id,
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		RunID:      runID,
	}
}

func (r *Runner) publish(ctx context.Context, event eventbus.Event) {
	if r.eventBus == nil {
		return
	}

	if err := r.eventBus.Publish(ctx, "weft", event); err != nil {
		r.logger.Warn("Failed to publish event", "type", event.GetType(), "error", err)
	}
}
