package events

import (
	"context"
	"encoding/json"

	"github.com/pulseflow/pulseflow/internal/model"
)

// Event topic constants
const (
	TopicAutomationCreated = "pulse.automation.created"
	TopicAutomationUpdated = "pulse.automation.updated"
	TopicAutomationDeleted = "pulse.automation.deleted"
	TopicNodeAppended      = "pulse.node.appended"
	TopicConnectionAdded   = "pulse.connection.added"

	// Run lifecycle events (emitted by the server as the external run engine
	// reports progress, consumed by watchers and the SSE stream).
	TopicRunStarted  = "pulse.run.started"
	TopicRunStatus   = "pulse.run.status"
	TopicRunResult   = "pulse.run.result"
	TopicRunFinished = "pulse.run.finished"
)

// Event types

type AutomationCreated struct {
	Automation *model.Automation `json:"automation"`
}

type AutomationUpdated struct {
	Automation *model.Automation `json:"automation"`
	Changes    map[string]any    `json:"changes"` // field name -> new value
}

type AutomationDeleted struct {
	AutomationID string `json:"automation_id"`
}

type NodeAppended struct {
	Node       *model.Node       `json:"node"`
	Connection *model.Connection `json:"connection"`
}

type ConnectionAdded struct {
	Connection *model.Connection `json:"connection"`
}

// Run events

type RunStarted struct {
	Run *model.Run `json:"run"`
}

type RunStatus struct {
	AutomationID string                `json:"automation_id"`
	RunID        string                `json:"run_id"`
	NodeID       string                `json:"node_id"`
	Status       model.ExecutionStatus `json:"status"`
}

type RunResult struct {
	AutomationID string          `json:"automation_id"`
	RunID        string          `json:"run_id"`
	NodeID       string          `json:"node_id"`
	Artifact     json.RawMessage `json:"artifact"`
}

type RunFinished struct {
	Run *model.Run `json:"run"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
