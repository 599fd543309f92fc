package store

import (
	"context"

	"github.com/pulseflow/pulseflow/internal/model"
)

// Store defines the persistence interface for automations.
type Store interface {
	// Automation CRUD
	CreateAutomation(ctx context.Context, a *model.Automation) error
	GetAutomation(ctx context.Context, id string) (*model.Automation, error)
	ListAutomations(ctx context.Context, filter model.AutomationFilter) ([]*model.Automation, int, error) // returns automations, total count, error
	UpdateAutomation(ctx context.Context, a *model.Automation) error
	DeleteAutomation(ctx context.Context, id string) error

	// Graph structure
	CreateNode(ctx context.Context, node *model.Node) error
	UpdateNode(ctx context.Context, node *model.Node) error
	GetNodes(ctx context.Context, automationID string) ([]*model.Node, error)
	CreateConnection(ctx context.Context, conn *model.Connection) error
	GetConnections(ctx context.Context, automationID string) ([]*model.Connection, error)
	GetGraph(ctx context.Context, automationID string) (*model.GraphResponse, error)

	// Runs
	CreateRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, automationID string) ([]*model.Run, error)
	FinishRun(ctx context.Context, id string, status model.RunStatus, runErr string) (*model.Run, error)

	// Node results (latest serialized artifact per node)
	UpsertNodeResult(ctx context.Context, result *model.NodeResult) error
	GetNodeResult(ctx context.Context, automationID, nodeID string) (*model.NodeResult, error)
	ListNodeResults(ctx context.Context, automationID string) ([]*model.NodeResult, error)

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	GetEvents(ctx context.Context, automationID string) ([]*model.Event, error)

	// Configs
	SetConfig(ctx context.Context, config *model.Config) error
	GetConfig(ctx context.Context, key string) (*model.Config, error)
	ListConfigs(ctx context.Context, namespace string) ([]*model.Config, error)
	ListAllConfigs(ctx context.Context) ([]*model.Config, error)
	DeleteConfig(ctx context.Context, key string) error

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
