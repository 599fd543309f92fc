package model

import (
	"errors"
	"testing"
)

func seedGraph(t *testing.T) *Graph {
	t.Helper()
	g := &Graph{AutomationID: "at-test1"}
	if _, err := g.Seed("nd-a", KindTransfer, TransferParams{Recipient: "0xabc", Amount: "100"}, Position{X: 0, Y: 0}); err != nil {
		t.Fatalf("seeding graph: %v", err)
	}
	return g
}

func TestAppendNode(t *testing.T) {
	g := seedGraph(t)

	node, err := g.AppendNode("nd-b", KindSwap, SwapParams{
		TokenIn:  "PLS",
		TokenOut: "HEX",
		AmountIn: "500",
		Slippage: SlippageTolerance{Value: 0.03},
	}, Position{X: 0, Y: 120})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !node.IsLastNode {
		t.Error("appended node should be terminal")
	}
	if g.Node("nd-a").IsLastNode {
		t.Error("previous tail should no longer be terminal")
	}
	if got := g.Terminal(); got == nil || got.ID != "nd-b" {
		t.Errorf("Terminal() = %v, want nd-b", got)
	}

	// Exactly one new connection, old tail output -> new node input.
	if len(g.Connections) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(g.Connections))
	}
	c := g.Connections[0]
	if c.SourceID != "nd-a" || c.SourceHandle != HandleOutput {
		t.Errorf("connection source = %s/%s, want nd-a/%s", c.SourceID, c.SourceHandle, HandleOutput)
	}
	if c.TargetID != "nd-b" || c.TargetHandle != HandleInput {
		t.Errorf("connection target = %s/%s, want nd-b/%s", c.TargetID, c.TargetHandle, HandleInput)
	}
}

func TestAppendNodeChain(t *testing.T) {
	g := seedGraph(t)
	ids := []string{"nd-b", "nd-c", "nd-d"}
	for _, id := range ids {
		if _, err := g.AppendNode(id, KindTransfer, TransferParams{Recipient: "0xabc", Amount: "1"}, Position{}); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	// Exactly one terminal node after repeated appends.
	var terminals int
	for _, n := range g.Nodes {
		if n.IsLastNode {
			terminals++
		}
	}
	if terminals != 1 {
		t.Errorf("expected exactly 1 terminal node, got %d", terminals)
	}
	if g.Terminal().ID != "nd-d" {
		t.Errorf("terminal = %s, want nd-d", g.Terminal().ID)
	}
	if len(g.Connections) != 3 {
		t.Errorf("expected 3 connections, got %d", len(g.Connections))
	}
}

func TestAppendNodeNoTerminal(t *testing.T) {
	g := &Graph{AutomationID: "at-test1"}

	_, err := g.AppendNode("nd-a", KindTransfer, TransferParams{Recipient: "0xabc", Amount: "1"}, Position{})
	if !errors.Is(err, ErrNoTerminalNode) {
		t.Fatalf("expected ErrNoTerminalNode, got %v", err)
	}
	// The graph must be left unchanged.
	if len(g.Nodes) != 0 || len(g.Connections) != 0 {
		t.Errorf("graph mutated on failed append: %d nodes, %d connections", len(g.Nodes), len(g.Connections))
	}
}

func TestAppendNodeInvalidParamsLeavesGraphUnchanged(t *testing.T) {
	g := seedGraph(t)

	// Missing recipient fails validation before any mutation.
	_, err := g.AppendNode("nd-b", KindTransfer, TransferParams{Amount: "1"}, Position{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(g.Nodes) != 1 || len(g.Connections) != 0 {
		t.Errorf("graph mutated on failed append: %d nodes, %d connections", len(g.Nodes), len(g.Connections))
	}
	if !g.Node("nd-a").IsLastNode {
		t.Error("terminal flag moved on failed append")
	}
}

func TestAppendNodeKindMismatch(t *testing.T) {
	g := seedGraph(t)
	if _, err := g.AppendNode("nd-b", KindSwap, TransferParams{Recipient: "0xabc", Amount: "1"}, Position{}); err == nil {
		t.Fatal("expected kind/params mismatch error")
	}
}

func TestAppendNodeDuplicateID(t *testing.T) {
	g := seedGraph(t)
	_, err := g.AppendNode("nd-a", KindTransfer, TransferParams{Recipient: "0xabc", Amount: "1"}, Position{})
	if !errors.Is(err, ErrDuplicateNodeID) {
		t.Fatalf("expected ErrDuplicateNodeID, got %v", err)
	}
}

func TestConnectionDraft(t *testing.T) {
	g := seedGraph(t)
	if _, err := g.AppendNode("nd-b", KindTransfer, TransferParams{Recipient: "0xabc", Amount: "1"}, Position{}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if g.IsConnectionInProgress() {
		t.Error("no draft should be in progress initially")
	}
	if !g.ShowAppendAffordance("nd-b") {
		t.Error("terminal node should offer the append affordance")
	}
	if g.ShowAppendAffordance("nd-a") {
		t.Error("non-terminal node should not offer the append affordance")
	}

	if err := g.BeginDraft("nd-a", HandleOutput); err != nil {
		t.Fatalf("begin draft: %v", err)
	}
	if !g.IsConnectionInProgress() {
		t.Error("draft should be in progress")
	}

	// While dragging, the affordance is suppressed for the whole graph,
	// not just the handle being dragged from.
	if g.ShowAppendAffordance("nd-b") {
		t.Error("append affordance must be suppressed graph-wide during a draft")
	}

	// Only one draft at a time.
	if err := g.BeginDraft("nd-b", HandleOutput); !errors.Is(err, ErrDraftInProgress) {
		t.Fatalf("expected ErrDraftInProgress, got %v", err)
	}

	conn, err := g.CompleteDraft("nd-b", HandleInput)
	if err != nil {
		t.Fatalf("complete draft: %v", err)
	}
	if conn.SourceID != "nd-a" || conn.TargetID != "nd-b" {
		t.Errorf("draft connection = %s -> %s", conn.SourceID, conn.TargetID)
	}
	if g.IsConnectionInProgress() {
		t.Error("draft should be cleared after completion")
	}
	if !g.ShowAppendAffordance("nd-b") {
		t.Error("append affordance should return once the draft resolves")
	}
}

func TestCompleteDraftUnknownTargetClearsDraft(t *testing.T) {
	g := seedGraph(t)
	if err := g.BeginDraft("nd-a", HandleOutput); err != nil {
		t.Fatalf("begin draft: %v", err)
	}
	if _, err := g.CompleteDraft("nd-missing", HandleInput); err == nil {
		t.Fatal("expected error for unknown target")
	}
	if g.IsConnectionInProgress() {
		t.Error("draft should be cleared even when the target is invalid")
	}
}

func TestCancelDraft(t *testing.T) {
	g := seedGraph(t)
	if err := g.BeginDraft("nd-a", HandleOutput); err != nil {
		t.Fatalf("begin draft: %v", err)
	}
	g.CancelDraft()
	if g.IsConnectionInProgress() {
		t.Error("draft should be cleared after cancel")
	}
	if _, err := g.CompleteDraft("nd-a", HandleInput); !errors.Is(err, ErrNoDraftInProgress) {
		t.Fatalf("expected ErrNoDraftInProgress, got %v", err)
	}
}

func TestHandleAnchorIsPure(t *testing.T) {
	for _, tc := range []struct {
		pos  HandlePosition
		x, y float64
	}{
		{PositionTop, 0.5, 0},
		{PositionBottom, 0.5, 1},
		{PositionLeft, 0, 0.5},
		{PositionRight, 1, 0.5},
		{HandlePosition("diagonal"), 0.5, 0.5},
	} {
		// Same position must always yield the same anchor: the editor and
		// the status overlay render from it independently.
		for range 3 {
			x, y := tc.pos.Anchor()
			if x != tc.x || y != tc.y {
				t.Errorf("Anchor(%q) = (%v, %v), want (%v, %v)", tc.pos, x, y, tc.x, tc.y)
			}
		}
	}
}

func TestAttachHandle(t *testing.T) {
	n := &Node{ID: "nd-a"}
	h := AttachHandle(n, PositionBottom, HandleSource, HandleOutput)
	if h.NodeID != "nd-a" || h.ID != HandleOutput || h.Kind != HandleSource || h.Position != PositionBottom {
		t.Errorf("AttachHandle = %+v", h)
	}
}

func TestGraphStats(t *testing.T) {
	g := seedGraph(t)
	if _, err := g.AppendNode("nd-b", KindTransfer, TransferParams{Recipient: "0xabc", Amount: "1"}, Position{}); err != nil {
		t.Fatalf("append: %v", err)
	}
	s := g.Stats()
	if s.TotalNodes != 2 || s.TotalConnections != 1 || s.TerminalNodeID != "nd-b" {
		t.Errorf("Stats() = %+v", s)
	}
}
