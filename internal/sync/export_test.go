package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pulseflow/pulseflow/internal/model"
)

func TestExportJSONL_Empty(t *testing.T) {
	ms := newMockStore()
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.AutomationCount != 0 || h.ConfigCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_WithAutomationsAndConfigs(t *testing.T) {
	ms := newMockStore()
	now := time.Now().UTC()

	// Add automations out of ID order to verify sorting.
	ms.automations["at-zzz"] = &model.Automation{ID: "at-zzz", Name: "Second", Enabled: true, CreatedAt: now, UpdatedAt: now}
	ms.automations["at-aaa"] = &model.Automation{ID: "at-aaa", Name: "First", Enabled: true, CreatedAt: now, UpdatedAt: now}

	// Add graph and result data for at-aaa.
	ms.nodes["at-aaa"] = []*model.Node{
		{ID: "nd-1", AutomationID: "at-aaa", Kind: model.KindTransfer, Params: model.TransferParams{Recipient: "0xabc", Amount: "10"}, CreatedAt: now, UpdatedAt: now},
		{ID: "nd-2", AutomationID: "at-aaa", Kind: model.KindSwap, Params: model.SwapParams{TokenIn: "0x1", TokenOut: "0x2", AmountIn: "5", Slippage: model.SlippageTolerance{Value: 0.03}}, IsLastNode: true, CreatedAt: now, UpdatedAt: now},
	}
	ms.connections["at-aaa"] = []*model.Connection{
		{AutomationID: "at-aaa", SourceID: "nd-1", SourceHandle: model.HandleOutput, TargetID: "nd-2", TargetHandle: model.HandleInput, CreatedAt: now},
	}
	ms.results["at-aaa"] = []*model.NodeResult{
		{AutomationID: "at-aaa", NodeID: "nd-1", RunID: "rn-1", Artifact: json.RawMessage(`{"hash":"0x1"}`), UpdatedAt: now},
	}

	// Add a config.
	ms.configs["view:active"] = &model.Config{Key: "view:active", Value: json.RawMessage(`{"filter":{}}`), CreatedAt: now, UpdatedAt: now}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 automations + 1 config = 4 lines
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}

	// Verify header.
	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.AutomationCount != 2 || h.ConfigCount != 1 {
		t.Fatalf("header counts: automation=%d config=%d", h.AutomationCount, h.ConfigCount)
	}

	// Verify automations are sorted by ID (at-aaa before at-zzz).
	var rec1, rec2 record
	if err := json.Unmarshal([]byte(lines[1]), &rec1); err != nil {
		t.Fatalf("unmarshal line 1: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[2]), &rec2); err != nil {
		t.Fatalf("unmarshal line 2: %v", err)
	}
	if rec1.Type != "automation" || rec2.Type != "automation" {
		t.Fatalf("expected automation types, got %q and %q", rec1.Type, rec2.Type)
	}

	// Parse automation data to check IDs.
	data1, _ := json.Marshal(rec1.Data)
	data2, _ := json.Marshal(rec2.Data)
	var a1, a2 exportedAutomation
	if err := json.Unmarshal(data1, &a1); err != nil {
		t.Fatalf("unmarshal a1: %v", err)
	}
	if err := json.Unmarshal(data2, &a2); err != nil {
		t.Fatalf("unmarshal a2: %v", err)
	}

	if a1.ID != "at-aaa" || a2.ID != "at-zzz" {
		t.Fatalf("automations not sorted: got %q, %q", a1.ID, a2.ID)
	}

	// Verify at-aaa has its embedded graph and results.
	if len(a1.Nodes) != 2 {
		t.Fatalf("expected 2 nodes for at-aaa, got %d", len(a1.Nodes))
	}
	if len(a1.Connections) != 1 {
		t.Fatalf("expected 1 connection for at-aaa, got %d", len(a1.Connections))
	}
	if len(a1.Results) != 1 {
		t.Fatalf("expected 1 result for at-aaa, got %d", len(a1.Results))
	}

	// Verify config line.
	var rec3 record
	if err := json.Unmarshal([]byte(lines[3]), &rec3); err != nil {
		t.Fatalf("unmarshal line 3: %v", err)
	}
	if rec3.Type != "config" {
		t.Fatalf("expected config type, got %q", rec3.Type)
	}
}

func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
