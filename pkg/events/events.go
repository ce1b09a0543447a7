// Package events defines event types and structures for workflow run
// lifecycle notifications.
package events

import "time"

type EventType string

// Topic is the channel all run lifecycle events are published on.
const Topic = "weft.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Run lifecycle events.
	WorkflowRunStartedEvent   EventType = "workflow.run.started"
	WorkflowRunCompletedEvent EventType = "workflow.run.completed"
	WorkflowRunFailedEvent    EventType = "workflow.run.failed"

	// Node lifecycle events.
	NodeExecutionStartedEvent  EventType = "node.execution.started"
	NodeExecutionFinishedEvent EventType = "node.execution.finished"
	NodeExecutionFailedEvent   EventType = "node.execution.failed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID int64          `json:"workflow_id"`
	RunID      string         `json:"run_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type WorkflowRunStarted struct {
	BaseEvent

	NodeCount int `json:"node_count"`
}

func (e WorkflowRunStarted) GetType() EventType {
	return WorkflowRunStartedEvent
}

type WorkflowRunCompleted struct {
	BaseEvent

	Duration time.Duration `json:"duration"`
}

func (e WorkflowRunCompleted) GetType() EventType {
	return WorkflowRunCompletedEvent
}

type WorkflowRunFailed struct {
	BaseEvent

	Duration    time.Duration `json:"duration"`
	FailedNodes []string      `json:"failed_nodes,omitempty"`
}

func (e WorkflowRunFailed) GetType() EventType {
	return WorkflowRunFailedEvent
}

type NodeExecutionStarted struct {
	BaseEvent

	NodeID   string `json:"node_id"`
	NodeKind string `json:"node_kind"`
}

func (e NodeExecutionStarted) GetType() EventType {
	return NodeExecutionStartedEvent
}

type NodeExecutionFinished struct {
	BaseEvent

	NodeID   string        `json:"node_id"`
	NodeKind string        `json:"node_kind"`
	Duration time.Duration `json:"duration"`
}

func (e NodeExecutionFinished) GetType() EventType {
	return NodeExecutionFinishedEvent
}

type NodeExecutionFailed struct {
	BaseEvent

	NodeID   string        `json:"node_id"`
	NodeKind string        `json:"node_kind"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (e NodeExecutionFailed) GetType() EventType {
	return NodeExecutionFailedEvent
}
