package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pulseflow/pulseflow/internal/model"
)

func TestNoopPublisher(t *testing.T) {
	var pub Publisher = &NoopPublisher{}
	if err := pub.Publish(context.Background(), TopicRunStarted, RunStarted{}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

// TestPublishRoundTrip publishes one event per topic family and checks each
// arrives on a wildcard feed with its payload intact.
func TestPublishRoundTrip(t *testing.T) {
	url := startEmbeddedNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	defer pub.Close()

	bus, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("subscriber: %v", err)
	}
	defer bus.Close()

	feed, err := bus.Subscribe("pulse.>")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer feed.Stop()

	published := []struct {
		topic string
		event any
	}{
		{TopicAutomationCreated, AutomationCreated{Automation: &model.Automation{ID: "at-dca", Name: "DCA into HEX"}}},
		{TopicConnectionAdded, ConnectionAdded{Connection: &model.Connection{AutomationID: "at-dca", SourceID: "nd-1", TargetID: "nd-2"}}},
		{TopicRunStatus, RunStatus{AutomationID: "at-dca", RunID: "rn-1", NodeID: "nd-1", Status: model.StatusLoading}},
		{TopicRunResult, RunResult{AutomationID: "at-dca", RunID: "rn-1", NodeID: "nd-1", Artifact: json.RawMessage(`{"hash":"0x1"}`)}},
	}
	for _, p := range published {
		if err := pub.Publish(context.Background(), p.topic, p.event); err != nil {
			t.Fatalf("Publish(%s): %v", p.topic, err)
		}
	}
	if err := pub.conn.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	got := make(map[string]bool, len(published))
	for range published {
		select {
		case raw := <-feed.C():
			var envelope map[string]any
			if err := json.Unmarshal(raw, &envelope); err != nil {
				t.Fatalf("payload is not JSON: %v (%s)", err, raw)
			}
			for k := range envelope {
				got[k] = true
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out; received keys so far: %v", got)
		}
	}
	for _, key := range []string{"automation", "connection", "status", "artifact"} {
		if !got[key] {
			t.Errorf("no received payload carried %q", key)
		}
	}
}

func TestPublishAfterCloseFails(t *testing.T) {
	url := startEmbeddedNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := pub.Publish(context.Background(), TopicRunFinished, RunFinished{}); err == nil {
		t.Error("expected error publishing on a closed connection")
	}
}
