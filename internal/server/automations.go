package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pulseflow/pulseflow/internal/events"
	"github.com/pulseflow/pulseflow/internal/idgen"
	"github.com/pulseflow/pulseflow/internal/model"
	"github.com/pulseflow/pulseflow/internal/store"
)

// seedNodeInput describes the optional first node created with an automation.
type seedNodeInput struct {
	Kind     model.NodeKind  `json:"kind"`
	Label    string          `json:"label,omitempty"`
	Params   json.RawMessage `json:"params"`
	Position model.Position  `json:"position"`
}

// createAutomationInput holds transport-agnostic parameters for creating an
// automation.
type createAutomationInput struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Owner       string         `json:"owner,omitempty"`
	Enabled     bool           `json:"enabled"`
	CreatedBy   string         `json:"created_by,omitempty"`
	Seed        *seedNodeInput `json:"seed,omitempty"`
}

// createAutomation validates input, persists a new automation (with its seed
// node, if given) in one transaction, and publishes an AutomationCreated
// event. Returns inputError for validation failures.
func (s *PulseServer) createAutomation(ctx context.Context, in createAutomationInput) (*model.Automation, error) {
	now := time.Now().UTC()
	id, err := idgen.GenerateWithPrefix(idgen.PrefixAutomation)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	automation := &model.Automation{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Owner:       in.Owner,
		Enabled:     in.Enabled,
		CreatedAt:   now,
		CreatedBy:   in.CreatedBy,
		UpdatedAt:   now,
	}

	if err := model.ValidateAutomation(automation); err != nil {
		return nil, inputError("invalid automation: " + err.Error())
	}

	var seed *model.Node
	if in.Seed != nil {
		params, err := model.DecodeParams(in.Seed.Kind, in.Seed.Params)
		if err != nil {
			return nil, inputError("invalid seed node: " + err.Error())
		}
		nodeID, err := idgen.GenerateWithPrefix(idgen.PrefixNode)
		if err != nil {
			return nil, fmt.Errorf("failed to generate node ID: %w", err)
		}
		seed, err = automation.Graph().Seed(nodeID, in.Seed.Kind, params, in.Seed.Position)
		if err != nil {
			return nil, inputError("invalid seed node: " + err.Error())
		}
		seed.Label = in.Seed.Label
		automation.Nodes = []*model.Node{seed}
	}

	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.CreateAutomation(ctx, automation); err != nil {
			return fmt.Errorf("failed to create automation: %w", err)
		}
		if seed != nil {
			if err := tx.CreateNode(ctx, seed); err != nil {
				return fmt.Errorf("failed to create seed node: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAndPublish(ctx, events.TopicAutomationCreated, automation.ID, automation.CreatedBy, events.AutomationCreated{Automation: automation})

	return automation, nil
}

// updateAutomationInput holds transport-agnostic parameters for updating an
// automation. Pointer fields indicate optionality: nil means "don't change".
type updateAutomationInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Owner       *string `json:"owner,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
}

// updateAutomation applies partial updates to an existing automation, persists
// them, and publishes an AutomationUpdated event. Returns inputError for
// validation failures and sql.ErrNoRows when the automation does not exist.
func (s *PulseServer) updateAutomation(ctx context.Context, id string, in updateAutomationInput) (*model.Automation, error) {
	automation, err := s.store.GetAutomation(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]any)

	if in.Name != nil {
		automation.Name = *in.Name
		changes["name"] = automation.Name
	}
	if in.Description != nil {
		automation.Description = *in.Description
		changes["description"] = automation.Description
	}
	if in.Owner != nil {
		automation.Owner = *in.Owner
		changes["owner"] = automation.Owner
	}
	if in.Enabled != nil {
		automation.Enabled = *in.Enabled
		changes["enabled"] = automation.Enabled
	}

	automation.UpdatedAt = time.Now().UTC()

	if err := model.ValidateAutomation(automation); err != nil {
		return nil, inputError("invalid automation: " + err.Error())
	}

	if err := s.store.UpdateAutomation(ctx, automation); err != nil {
		return nil, fmt.Errorf("failed to update automation: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicAutomationUpdated, automation.ID, "", events.AutomationUpdated{
		Automation: automation,
		Changes:    changes,
	})

	return automation, nil
}

// deleteAutomation removes an automation and publishes an AutomationDeleted
// event. Nodes, connections, runs, and results go with it via cascade, and
// any in-memory run state is evicted so the tracker cannot leak entries for
// automations that no longer exist.
func (s *PulseServer) deleteAutomation(ctx context.Context, id string) error {
	if err := s.store.DeleteAutomation(ctx, id); err != nil {
		return err
	}
	s.tracker.Evict(id)
	s.recordAndPublish(ctx, events.TopicAutomationDeleted, id, "", events.AutomationDeleted{AutomationID: id})
	return nil
}

// appendNodeInput holds transport-agnostic parameters for appending a node to
// the end of an automation's chain.
type appendNodeInput struct {
	Kind     model.NodeKind  `json:"kind"`
	Label    string          `json:"label,omitempty"`
	Params   json.RawMessage `json:"params"`
	Position model.Position  `json:"position"`
}

// appendNode extends the automation's chain with a new terminal node. The
// graph-level validation and the three mutations it implies (new node, old
// tail losing its terminal flag, one new connection) are committed in a single
// transaction, so a failed append leaves the stored graph unchanged.
func (s *PulseServer) appendNode(ctx context.Context, automationID string, in appendNodeInput) (*model.Node, *model.Connection, error) {
	automation, err := s.store.GetAutomation(ctx, automationID)
	if err != nil {
		return nil, nil, err
	}

	params, err := model.DecodeParams(in.Kind, in.Params)
	if err != nil {
		return nil, nil, inputError("invalid params: " + err.Error())
	}

	nodeID, err := idgen.GenerateWithPrefix(idgen.PrefixNode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate node ID: %w", err)
	}

	graph := automation.Graph()
	tail := graph.Terminal()

	node, err := graph.AppendNode(nodeID, in.Kind, params, in.Position)
	if err != nil {
		return nil, nil, inputError(err.Error())
	}
	node.Label = in.Label
	conn := graph.Connections[len(graph.Connections)-1]

	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.CreateNode(ctx, node); err != nil {
			return fmt.Errorf("failed to create node: %w", err)
		}
		if err := tx.UpdateNode(ctx, tail); err != nil {
			return fmt.Errorf("failed to update previous terminal node: %w", err)
		}
		if err := tx.CreateConnection(ctx, conn); err != nil {
			return fmt.Errorf("failed to create connection: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.recordAndPublish(ctx, events.TopicNodeAppended, automationID, "", events.NodeAppended{
		Node:       node,
		Connection: conn,
	})

	return node, conn, nil
}

// createConnectionInput holds transport-agnostic parameters for wiring two
// existing nodes together. Empty handles default to the output and input
// handle respectively.
type createConnectionInput struct {
	SourceID     string `json:"source_id"`
	SourceHandle string `json:"source_handle,omitempty"`
	TargetID     string `json:"target_id"`
	TargetHandle string `json:"target_handle,omitempty"`
}

// createConnection resolves an editor connection gesture on the server: a
// draft begun at the source handle and completed onto the target handle. The
// draft runs through the same graph-level checks the editor sees (unknown
// endpoints, one draft at a time), plus rejection of self-connections and
// exact duplicates.
func (s *PulseServer) createConnection(ctx context.Context, automationID string, in createConnectionInput) (*model.Connection, error) {
	automation, err := s.store.GetAutomation(ctx, automationID)
	if err != nil {
		return nil, err
	}

	if in.SourceID == "" || in.TargetID == "" {
		return nil, inputError("source_id and target_id are required")
	}
	if in.SourceID == in.TargetID {
		return nil, inputError("connection source and target must differ")
	}
	sourceHandle := in.SourceHandle
	if sourceHandle == "" {
		sourceHandle = model.HandleOutput
	}
	targetHandle := in.TargetHandle
	if targetHandle == "" {
		targetHandle = model.HandleInput
	}

	graph := automation.Graph()
	for _, c := range graph.Connections {
		if c.SourceID == in.SourceID && c.SourceHandle == sourceHandle &&
			c.TargetID == in.TargetID && c.TargetHandle == targetHandle {
			return nil, inputError("connection already exists")
		}
	}

	if err := graph.BeginDraft(in.SourceID, sourceHandle); err != nil {
		return nil, inputError(err.Error())
	}
	conn, err := graph.CompleteDraft(in.TargetID, targetHandle)
	if err != nil {
		return nil, inputError(err.Error())
	}

	if err := s.store.CreateConnection(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicConnectionAdded, automationID, "", events.ConnectionAdded{Connection: conn})

	return conn, nil
}
