package model

import (
	"encoding/json"
	"time"
)

// RunStatus represents the overall state of an automation run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunActive    RunStatus = "active"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// String returns the string representation of the run status.
func (s RunStatus) String() string {
	return string(s)
}

// IsValid checks whether the run status is a known value.
func (s RunStatus) IsValid() bool {
	switch s {
	case RunPending, RunActive, RunSucceeded, RunFailed:
		return true
	}
	return false
}

// Automation is the core record: a user-owned, executable chain of on-chain steps.
type Automation struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Owner       string    `json:"owner,omitempty"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relational data -- populated by queries, not stored in the automations table.
	Nodes       []*Node       `json:"nodes,omitempty"`
	Connections []*Connection `json:"connections,omitempty"`
}

// Graph returns the automation's wiring as a Graph value.
// The returned graph shares the automation's node and connection slices.
func (a *Automation) Graph() *Graph {
	return &Graph{
		AutomationID: a.ID,
		Nodes:        a.Nodes,
		Connections:  a.Connections,
	}
}

// Run is one execution of an automation by the run engine.
type Run struct {
	ID           string     `json:"id"`
	AutomationID string     `json:"automation_id"`
	Status       RunStatus  `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	StartedBy    string     `json:"started_by,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// NodeResult is the durable serialized artifact for one node, overwritten on
// each completed run. The artifact is always JSON-safe (see internal/artifact).
type NodeResult struct {
	AutomationID string          `json:"automation_id"`
	NodeID       string          `json:"node_id"`
	RunID        string          `json:"run_id"`
	Artifact     json.RawMessage `json:"artifact"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
