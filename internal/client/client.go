// Package client provides a transport-agnostic interface for the PulseFlow
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"
	"encoding/json"

	"github.com/pulseflow/pulseflow/internal/model"
)

// PulseClient is the interface that all pf CLI commands use to communicate
// with the PulseFlow server. It is implemented by HTTPClient (default) and can
// be backed by any transport.
type PulseClient interface {
	// Automation CRUD
	CreateAutomation(ctx context.Context, req *CreateAutomationRequest) (*model.Automation, error)
	GetAutomation(ctx context.Context, id string) (*model.Automation, error)
	ListAutomations(ctx context.Context, req *ListAutomationsRequest) (*ListAutomationsResponse, error)
	UpdateAutomation(ctx context.Context, id string, req *UpdateAutomationRequest) (*model.Automation, error)
	DeleteAutomation(ctx context.Context, id string) error

	// Graph
	AppendNode(ctx context.Context, automationID string, req *AppendNodeRequest) (*AppendNodeResponse, error)
	CreateConnection(ctx context.Context, automationID string, req *CreateConnectionRequest) (*model.Connection, error)
	GetGraph(ctx context.Context, automationID string) (*model.GraphResponse, error)

	// Runs
	StartRun(ctx context.Context, automationID, startedBy string) (*model.Run, error)
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, automationID string) ([]*model.Run, error)
	RunStatus(ctx context.Context, runID string) (map[string]model.ExecutionStatus, error)
	SetNodeStatus(ctx context.Context, runID, nodeID string, status model.ExecutionStatus) error
	RecordNodeResult(ctx context.Context, runID, nodeID string, result any) (*model.NodeResult, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, runErr string) (*model.Run, error)

	// Node results
	ListNodeResults(ctx context.Context, automationID string) ([]*model.NodeResult, error)
	GetNodeResult(ctx context.Context, automationID, nodeID string) (*model.NodeResult, error)

	// Events
	GetEvents(ctx context.Context, automationID string) ([]*model.Event, error)

	// Config
	SetConfig(ctx context.Context, key string, value json.RawMessage) (*model.Config, error)
	GetConfig(ctx context.Context, key string) (*model.Config, error)
	ListConfigs(ctx context.Context, namespace string) ([]*model.Config, error)
	DeleteConfig(ctx context.Context, key string) error

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// SeedNode describes the optional first node created with an automation.
type SeedNode struct {
	Kind     model.NodeKind  `json:"kind"`
	Label    string          `json:"label,omitempty"`
	Params   json.RawMessage `json:"params"`
	Position model.Position  `json:"position"`
}

// CreateAutomationRequest holds parameters for creating an automation.
type CreateAutomationRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Owner       string    `json:"owner,omitempty"`
	Enabled     bool      `json:"enabled"`
	CreatedBy   string    `json:"created_by,omitempty"`
	Seed        *SeedNode `json:"seed,omitempty"`
}

// ListAutomationsRequest holds parameters for listing automations.
type ListAutomationsRequest struct {
	Owner   string `json:"owner,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
	Search  string `json:"search,omitempty"`
	Sort    string `json:"sort,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// ListAutomationsResponse is the response from ListAutomations.
type ListAutomationsResponse struct {
	Automations []*model.Automation `json:"automations"`
	Total       int                 `json:"total"`
}

// UpdateAutomationRequest holds optional parameters for updating an automation.
// Nil pointer fields mean "don't change".
type UpdateAutomationRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Owner       *string `json:"owner,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
}

// AppendNodeRequest holds parameters for appending a node to an automation's chain.
type AppendNodeRequest struct {
	Kind     model.NodeKind  `json:"kind"`
	Label    string          `json:"label,omitempty"`
	Params   json.RawMessage `json:"params"`
	Position model.Position  `json:"position"`
}

// AppendNodeResponse is the response from AppendNode: the new terminal node
// and the connection wiring it to the previous tail.
type AppendNodeResponse struct {
	Node       *model.Node       `json:"node"`
	Connection *model.Connection `json:"connection"`
}

// CreateConnectionRequest holds parameters for wiring two existing nodes
// together. Empty handles default to output -> input on the server.
type CreateConnectionRequest struct {
	SourceID     string `json:"source_id"`
	SourceHandle string `json:"source_handle,omitempty"`
	TargetID     string `json:"target_id"`
	TargetHandle string `json:"target_handle,omitempty"`
}
