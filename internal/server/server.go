package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pulseflow/pulseflow/internal/events"
	"github.com/pulseflow/pulseflow/internal/model"
	"github.com/pulseflow/pulseflow/internal/run"
	"github.com/pulseflow/pulseflow/internal/store"
)

// PulseServer owns the HTTP API: automation CRUD, graph mutations, and the
// run-engine callback surface. Run status lives in the tracker; everything
// else is delegated to the store.
type PulseServer struct {
	store     store.Store
	publisher events.Publisher
	stream    *streamHub
	tracker   *run.Tracker
}

// NewPulseServer returns a new PulseServer backed by the given store and publisher.
func NewPulseServer(s store.Store, p events.Publisher) *PulseServer {
	srv := &PulseServer{
		store:     s,
		publisher: p,
		stream:    newStreamHub(),
	}
	// Every applied status change is fanned out as a run.status event. The
	// tracker invokes onChange with its lock released, so publishing from
	// here cannot deadlock against concurrent updates.
	srv.tracker = run.NewTracker(func(u run.Update) {
		srv.recordAndPublish(context.Background(), events.TopicRunStatus, u.AutomationID, "", events.RunStatus{
			AutomationID: u.AutomationID,
			RunID:        u.RunID,
			NodeID:       u.NodeID,
			Status:       u.Status,
		})
	})
	return srv
}

// activeRunStore is the optional durable side of stale-run fencing. The
// Postgres store implements it; stores that don't fall back to in-memory
// fencing only.
type activeRunStore interface {
	SetActiveRun(ctx context.Context, automationID, runID string) error
	ActiveRun(ctx context.Context, automationID string) (string, error)
	ClearActiveRun(ctx context.Context, automationID, runID string) error
}

// recordAndPublish persists an event to the store and publishes it to NATS.
// Both operations are best-effort; failures are logged but do not block the caller.
func (s *PulseServer) recordAndPublish(ctx context.Context, topic, automationID, actor string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal event", "topic", topic, "automation_id", automationID, "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, &model.Event{
		Topic:        topic,
		AutomationID: automationID,
		Actor:        actor,
		Payload:      payload,
	}); err != nil {
		slog.Warn("failed to record event", "topic", topic, "automation_id", automationID, "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "automation_id", automationID, "error", err)
	}
	s.notifyStream(topic, event)
}

// inputError indicates invalid user input.
// Transport layers map this to 400.
type inputError string

func (e inputError) Error() string { return string(e) }
