package model

import (
	"errors"
	"fmt"
	"time"
)

// Structural graph errors. These are rejected before any mutation; a failed
// operation leaves the graph unchanged.
var (
	ErrNoTerminalNode    = errors.New("graph has no terminal node")
	ErrDraftInProgress   = errors.New("a connection draft is already in progress")
	ErrNoDraftInProgress = errors.New("no connection draft in progress")
	ErrDuplicateNodeID   = errors.New("node id already exists in graph")
	ErrUnknownNode       = errors.New("node not found in graph")
)

// Graph is an automation's wiring: its nodes, connections, and the at-most-one
// in-progress connection draft. The draft is an explicit field rather than
// ambient editor state so the "one draft at a time" invariant is visible.
type Graph struct {
	AutomationID string           `json:"automation_id"`
	Nodes        []*Node          `json:"nodes"`
	Connections  []*Connection    `json:"connections"`
	ActiveDraft  *ConnectionDraft `json:"active_draft,omitempty"`
}

// Terminal returns the node marked as the end of the chain, or nil.
func (g *Graph) Terminal() *Node {
	for _, n := range g.Nodes {
		if n.IsLastNode {
			return n
		}
	}
	return nil
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// IsConnectionInProgress reports whether any handle in the graph has an
// active connection draft. Dragging a wire is modal: only one draft can
// exist, so this is a single graph-wide read.
func (g *Graph) IsConnectionInProgress() bool {
	return g.ActiveDraft != nil
}

// ShowAppendAffordance reports whether the "add next step" affordance may be
// rendered on the given node's output handle. It is offered only on the
// terminal node, and suppressed for the entire graph while a connection
// draft is in progress to avoid ambiguous drop targets.
func (g *Graph) ShowAppendAffordance(nodeID string) bool {
	if g.IsConnectionInProgress() {
		return false
	}
	n := g.Node(nodeID)
	return n != nil && n.IsLastNode
}

// BeginDraft starts a connection draft from the given source handle.
func (g *Graph) BeginDraft(sourceID, sourceHandle string) error {
	if g.ActiveDraft != nil {
		return ErrDraftInProgress
	}
	if g.Node(sourceID) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownNode, sourceID)
	}
	g.ActiveDraft = &ConnectionDraft{SourceID: sourceID, SourceHandle: sourceHandle}
	return nil
}

// CompleteDraft resolves the active draft into a connection to the given
// target handle. The draft is cleared whether or not the target is valid.
func (g *Graph) CompleteDraft(targetID, targetHandle string) (*Connection, error) {
	draft := g.ActiveDraft
	if draft == nil {
		return nil, ErrNoDraftInProgress
	}
	g.ActiveDraft = nil
	if g.Node(targetID) == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, targetID)
	}
	conn := &Connection{
		AutomationID: g.AutomationID,
		SourceID:     draft.SourceID,
		SourceHandle: draft.SourceHandle,
		TargetID:     targetID,
		TargetHandle: targetHandle,
		CreatedAt:    time.Now().UTC(),
	}
	g.Connections = append(g.Connections, conn)
	return conn, nil
}

// CancelDraft abandons the active draft, if any.
func (g *Graph) CancelDraft() {
	g.ActiveDraft = nil
}

// AppendNode extends the chain with a new terminal node of the given kind.
// It clears the terminal flag on the previous tail, marks the new node
// terminal, and wires exactly one connection from the old tail's output
// handle to the new node's input handle. All three mutations are applied
// together after validation; on error the graph is unchanged.
func (g *Graph) AppendNode(id string, kind NodeKind, params Params, pos Position) (*Node, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid node kind %q", kind)
	}
	if params == nil || params.Kind() != kind {
		return nil, fmt.Errorf("params do not match node kind %q", kind)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if g.Node(id) != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNodeID, id)
	}
	tail := g.Terminal()
	if tail == nil {
		return nil, ErrNoTerminalNode
	}

	now := time.Now().UTC()
	node := &Node{
		ID:           id,
		AutomationID: g.AutomationID,
		Kind:         kind,
		Position:     pos,
		Params:       params,
		IsLastNode:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	conn := &Connection{
		AutomationID: g.AutomationID,
		SourceID:     tail.ID,
		SourceHandle: HandleOutput,
		TargetID:     node.ID,
		TargetHandle: HandleInput,
		CreatedAt:    now,
	}

	tail.IsLastNode = false
	tail.UpdatedAt = now
	g.Nodes = append(g.Nodes, node)
	g.Connections = append(g.Connections, conn)
	return node, nil
}

// Seed places the first node of an empty graph and marks it terminal.
func (g *Graph) Seed(id string, kind NodeKind, params Params, pos Position) (*Node, error) {
	if len(g.Nodes) > 0 {
		return nil, fmt.Errorf("graph already has %d node(s)", len(g.Nodes))
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid node kind %q", kind)
	}
	if params == nil || params.Kind() != kind {
		return nil, fmt.Errorf("params do not match node kind %q", kind)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	node := &Node{
		ID:           id,
		AutomationID: g.AutomationID,
		Kind:         kind,
		Position:     pos,
		Params:       params,
		IsLastNode:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	g.Nodes = append(g.Nodes, node)
	return node, nil
}

// GraphStats holds aggregate counts for the graph endpoint.
type GraphStats struct {
	TotalNodes       int    `json:"total_nodes"`
	TotalConnections int    `json:"total_connections"`
	TerminalNodeID   string `json:"terminal_node_id,omitempty"`
}

// GraphResponse is the response for the graph endpoint.
type GraphResponse struct {
	Nodes       []*Node       `json:"nodes"`
	Connections []*Connection `json:"connections"`
	Stats       *GraphStats   `json:"stats"`
}

// Stats computes aggregate counts for the graph.
func (g *Graph) Stats() *GraphStats {
	s := &GraphStats{
		TotalNodes:       len(g.Nodes),
		TotalConnections: len(g.Connections),
	}
	if t := g.Terminal(); t != nil {
		s.TerminalNodeID = t.ID
	}
	return s
}
