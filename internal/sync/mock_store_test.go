package sync

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/pulseflow/pulseflow/internal/model"
	"github.com/pulseflow/pulseflow/internal/store"
)

// mockStore is a minimal in-memory store for sync tests.
type mockStore struct {
	automations map[string]*model.Automation
	nodes       map[string][]*model.Node
	connections map[string][]*model.Connection
	results     map[string][]*model.NodeResult
	configs     map[string]*model.Config
}

func newMockStore() *mockStore {
	return &mockStore{
		automations: make(map[string]*model.Automation),
		nodes:       make(map[string][]*model.Node),
		connections: make(map[string][]*model.Connection),
		results:     make(map[string][]*model.NodeResult),
		configs:     make(map[string]*model.Config),
	}
}

func (m *mockStore) CreateAutomation(_ context.Context, a *model.Automation) error {
	m.automations[a.ID] = a
	return nil
}

func (m *mockStore) GetAutomation(_ context.Context, id string) (*model.Automation, error) {
	a, ok := m.automations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (m *mockStore) ListAutomations(_ context.Context, _ model.AutomationFilter) ([]*model.Automation, int, error) {
	var result []*model.Automation
	for _, a := range m.automations {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, len(result), nil
}

func (m *mockStore) UpdateAutomation(_ context.Context, a *model.Automation) error {
	m.automations[a.ID] = a
	return nil
}

func (m *mockStore) DeleteAutomation(_ context.Context, id string) error {
	delete(m.automations, id)
	return nil
}

func (m *mockStore) CreateNode(_ context.Context, node *model.Node) error {
	m.nodes[node.AutomationID] = append(m.nodes[node.AutomationID], node)
	return nil
}

func (m *mockStore) UpdateNode(_ context.Context, _ *model.Node) error {
	return nil
}

func (m *mockStore) GetNodes(_ context.Context, automationID string) ([]*model.Node, error) {
	return m.nodes[automationID], nil
}

func (m *mockStore) CreateConnection(_ context.Context, conn *model.Connection) error {
	m.connections[conn.AutomationID] = append(m.connections[conn.AutomationID], conn)
	return nil
}

func (m *mockStore) GetConnections(_ context.Context, automationID string) ([]*model.Connection, error) {
	return m.connections[automationID], nil
}

func (m *mockStore) GetGraph(_ context.Context, automationID string) (*model.GraphResponse, error) {
	return &model.GraphResponse{
		Nodes:       m.nodes[automationID],
		Connections: m.connections[automationID],
		Stats:       &model.GraphStats{},
	}, nil
}

func (m *mockStore) CreateRun(_ context.Context, _ *model.Run) error {
	return nil
}

func (m *mockStore) GetRun(_ context.Context, _ string) (*model.Run, error) {
	return nil, sql.ErrNoRows
}

func (m *mockStore) ListRuns(_ context.Context, _ string) ([]*model.Run, error) {
	return nil, nil
}

func (m *mockStore) FinishRun(_ context.Context, _ string, _ model.RunStatus, _ string) (*model.Run, error) {
	return nil, sql.ErrNoRows
}

func (m *mockStore) UpsertNodeResult(_ context.Context, result *model.NodeResult) error {
	m.results[result.AutomationID] = append(m.results[result.AutomationID], result)
	return nil
}

func (m *mockStore) GetNodeResult(_ context.Context, _, _ string) (*model.NodeResult, error) {
	return nil, sql.ErrNoRows
}

func (m *mockStore) ListNodeResults(_ context.Context, automationID string) ([]*model.NodeResult, error) {
	return m.results[automationID], nil
}

func (m *mockStore) RecordEvent(_ context.Context, _ *model.Event) error {
	return nil
}

func (m *mockStore) GetEvents(_ context.Context, _ string) ([]*model.Event, error) {
	return nil, nil
}

func (m *mockStore) SetConfig(_ context.Context, config *model.Config) error {
	m.configs[config.Key] = config
	return nil
}

func (m *mockStore) GetConfig(_ context.Context, key string) (*model.Config, error) {
	c, ok := m.configs[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (m *mockStore) ListConfigs(_ context.Context, namespace string) ([]*model.Config, error) {
	prefix := namespace + ":"
	var result []*model.Config
	for k, c := range m.configs {
		if strings.HasPrefix(k, prefix) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockStore) ListAllConfigs(_ context.Context) ([]*model.Config, error) {
	var result []*model.Config
	for _, c := range m.configs {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result, nil
}

func (m *mockStore) DeleteConfig(_ context.Context, key string) error {
	delete(m.configs, key)
	return nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error {
	return nil
}
