package models

import "time"

// RunStatus is the lifecycle state of a whole-workflow run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// ExecutionStatus is the state of a single node execution within a run.
type ExecutionStatus string

const (
	ExecutionStatusPending ExecutionStatus = "pending"
	ExecutionStatusRunning ExecutionStatus = "running"
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

// NodeExecution records the outcome of one node within a run: the inputs it
// resolved, the output or error it produced, and how long it took.
type NodeExecution struct {
	ID         string            `json:"id"`
	NodeID     string            `json:"node_id"`
	NodeName   string            `json:"node_name"`
	Status     ExecutionStatus   `json:"status"`
	Inputs     map[string]string `json:"inputs,omitempty"`
	Output     string            `json:"output,omitempty"`
	Error      string            `json:"error,omitempty"`
	DurationMS int64             `json:"duration_ms"`
}

// WorkflowRun aggregates the node executions of one run. It is created when
// a run starts and finalized when the last node completes; a run succeeds
// only if every node execution succeeded.
type WorkflowRun struct {
	ID             string          `json:"id"`
	WorkflowID     int64           `json:"workflow_id"`
	Status         RunStatus       `json:"status"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	DurationMS     int64           `json:"duration_ms"`
	NodeExecutions []NodeExecution `json:"node_executions"`
}

// Finalize stamps the completion time and derives the terminal status from
// the per-node outcomes.
func (r *WorkflowRun) Finalize(at time.Time) {
	r.CompletedAt = &at
	r.DurationMS = at.Sub(r.StartedAt).Milliseconds()
	r.Status = RunStatusSuccess

	for _, exec := range r.NodeExecutions {
		if exec.Status == ExecutionStatusFailed {
			r.Status = RunStatusFailed

			break
		}
	}
}
