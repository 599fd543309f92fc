package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pulseflow/pulseflow/internal/model"
	"github.com/pulseflow/pulseflow/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version         string    `json:"version"`
	Type            string    `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	AutomationCount int       `json:"automation_count"`
	ConfigCount     int       `json:"config_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// exportedAutomation is one automation snapshot line: the record itself, its
// graph, and the latest serialized artifact per node.
type exportedAutomation struct {
	*model.Automation
	Results []*model.NodeResult `json:"results,omitempty"`
}

// ExportJSONL writes all automations and configs from the store as JSONL to w.
// Automations are sorted by ID and include their graph and latest node results.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	// Fetch all automations (no filter, no limit).
	automations, _, err := s.ListAutomations(ctx, model.AutomationFilter{Sort: "created_at"})
	if err != nil {
		return fmt.Errorf("list automations: %w", err)
	}

	sort.Slice(automations, func(i, j int) bool {
		return automations[i].ID < automations[j].ID
	})

	// Populate graph and result data for each automation.
	exported := make([]*exportedAutomation, 0, len(automations))
	for _, a := range automations {
		nodes, err := s.GetNodes(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("get nodes for %s: %w", a.ID, err)
		}
		a.Nodes = nodes

		conns, err := s.GetConnections(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("get connections for %s: %w", a.ID, err)
		}
		a.Connections = conns

		results, err := s.ListNodeResults(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("list node results for %s: %w", a.ID, err)
		}
		exported = append(exported, &exportedAutomation{Automation: a, Results: results})
	}

	// Fetch all configs.
	configs, err := s.ListAllConfigs(ctx)
	if err != nil {
		return fmt.Errorf("list configs: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	// Write header.
	if err := enc.Encode(header{
		Version:         "1",
		Type:            "header",
		Timestamp:       time.Now().UTC(),
		AutomationCount: len(exported),
		ConfigCount:     len(configs),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	// Write automations.
	for _, a := range exported {
		if err := enc.Encode(record{Type: "automation", Data: a}); err != nil {
			return fmt.Errorf("encode automation %s: %w", a.ID, err)
		}
	}

	// Write configs.
	for _, c := range configs {
		if err := enc.Encode(record{Type: "config", Data: c}); err != nil {
			return fmt.Errorf("encode config %s: %w", c.Key, err)
		}
	}

	return nil
}
