package run

import (
	"errors"
	"testing"

	"github.com/pulseflow/pulseflow/internal/model"
)

func newTestRun(t *testing.T, tr *Tracker) (automationID, runID string) {
	t.Helper()
	tr.StartRun("at-1", "rn-1", []string{"nd-a", "nd-b", "nd-c"})
	return "at-1", "rn-1"
}

func TestStartRunResetsAllNodes(t *testing.T) {
	tr := NewTracker(nil)
	_, runID := newTestRun(t, tr)

	snap, err := tr.Snapshot(runID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	for id, s := range snap {
		if s != model.StatusInitial {
			t.Errorf("node %s = %s, want initial", id, s)
		}
	}
}

func TestSetStatusLifecycle(t *testing.T) {
	tr := NewTracker(nil)
	_, runID := newTestRun(t, tr)

	steps := []struct {
		node   string
		status model.ExecutionStatus
	}{
		{"nd-a", model.StatusLoading},
		{"nd-a", model.StatusSuccess},
		{"nd-b", model.StatusLoading},
		{"nd-b", model.StatusError},
	}
	for _, s := range steps {
		if err := tr.SetStatus(runID, s.node, s.status); err != nil {
			t.Fatalf("SetStatus(%s, %s): %v", s.node, s.status, err)
		}
	}

	if got, _ := tr.Status(runID, "nd-a"); got != model.StatusSuccess {
		t.Errorf("nd-a = %s", got)
	}
	if got, _ := tr.Status(runID, "nd-b"); got != model.StatusError {
		t.Errorf("nd-b = %s", got)
	}
	if got, _ := tr.Status(runID, "nd-c"); got != model.StatusInitial {
		t.Errorf("nd-c = %s", got)
	}
}

func TestSetStatusIdempotent(t *testing.T) {
	tr := NewTracker(nil)
	_, runID := newTestRun(t, tr)

	if err := tr.SetStatus(runID, "nd-a", model.StatusLoading); err != nil {
		t.Fatal(err)
	}
	// Reapplying the current status is a no-op, not an error.
	if err := tr.SetStatus(runID, "nd-a", model.StatusLoading); err != nil {
		t.Errorf("idempotent reapply: %v", err)
	}
}

func TestSetStatusInvalidTransition(t *testing.T) {
	tr := NewTracker(nil)
	_, runID := newTestRun(t, tr)

	tr.SetStatus(runID, "nd-a", model.StatusLoading)
	tr.SetStatus(runID, "nd-a", model.StatusSuccess)

	// No direct path from success to error.
	if err := tr.SetStatus(runID, "nd-a", model.StatusError); err == nil {
		t.Error("expected error for success -> error")
	}
	if got, _ := tr.Status(runID, "nd-a"); got != model.StatusSuccess {
		t.Errorf("status changed on rejected transition: %s", got)
	}
}

func TestStaleRunFencing(t *testing.T) {
	tr := NewTracker(nil)
	tr.StartRun("at-1", "rn-old", []string{"nd-a"})
	tr.SetStatus("rn-old", "nd-a", model.StatusLoading)

	// A new run supersedes the old one and resets statuses.
	tr.StartRun("at-1", "rn-new", []string{"nd-a"})
	if got, _ := tr.Status("rn-new", "nd-a"); got != model.StatusInitial {
		t.Errorf("new run nd-a = %s, want initial", got)
	}

	// The old run's late-arriving update is discarded.
	if err := tr.SetStatus("rn-old", "nd-a", model.StatusSuccess); !errors.Is(err, ErrStaleRun) {
		t.Errorf("stale update err = %v, want ErrStaleRun", err)
	}
	if got, _ := tr.Status("rn-new", "nd-a"); got != model.StatusInitial {
		t.Errorf("stale update leaked into new run: %s", got)
	}

	if id, ok := tr.ActiveRun("at-1"); !ok || id != "rn-new" {
		t.Errorf("ActiveRun = %s, %v", id, ok)
	}
}

func TestFinishRunClearsLoading(t *testing.T) {
	tr := NewTracker(nil)
	_, runID := newTestRun(t, tr)

	tr.SetStatus(runID, "nd-a", model.StatusLoading)
	tr.SetStatus(runID, "nd-a", model.StatusError)
	tr.SetStatus(runID, "nd-b", model.StatusLoading)

	if err := tr.FinishRun(runID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	// Loading never survives a finished run; error sticks until the next run.
	if got, _ := tr.Status(runID, "nd-b"); got != model.StatusInitial {
		t.Errorf("nd-b = %s, want initial", got)
	}
	if got, _ := tr.Status(runID, "nd-a"); got != model.StatusError {
		t.Errorf("nd-a = %s, want error", got)
	}
}

func TestEvictDropsAutomationState(t *testing.T) {
	tr := NewTracker(nil)
	tr.StartRun("at-1", "rn-1", []string{"nd-a"})
	tr.StartRun("at-2", "rn-2", []string{"nd-x"})
	tr.SetStatus("rn-1", "nd-a", model.StatusLoading)

	tr.Evict("at-1")

	if _, ok := tr.ActiveRun("at-1"); ok {
		t.Error("evicted automation still has an active run")
	}
	if _, err := tr.Snapshot("rn-1"); !errors.Is(err, ErrUnknownRun) {
		t.Errorf("snapshot err = %v, want ErrUnknownRun", err)
	}
	if err := tr.SetStatus("rn-1", "nd-a", model.StatusSuccess); !errors.Is(err, ErrStaleRun) {
		t.Errorf("post-evict update err = %v, want ErrStaleRun", err)
	}

	// Other automations are untouched.
	if id, ok := tr.ActiveRun("at-2"); !ok || id != "rn-2" {
		t.Errorf("ActiveRun(at-2) = %s, %v", id, ok)
	}
}

func TestSetStatusUnknownNode(t *testing.T) {
	tr := NewTracker(nil)
	_, runID := newTestRun(t, tr)

	if err := tr.SetStatus(runID, "nd-zzz", model.StatusLoading); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("err = %v, want ErrUnknownNode", err)
	}
}

func TestOnChangeNotification(t *testing.T) {
	var got []Update
	tr := NewTracker(func(u Update) { got = append(got, u) })
	_, runID := newTestRun(t, tr)

	tr.SetStatus(runID, "nd-a", model.StatusLoading)
	tr.SetStatus(runID, "nd-a", model.StatusLoading) // no-op, no notification
	tr.SetStatus(runID, "nd-a", model.StatusSuccess)

	if len(got) != 2 {
		t.Fatalf("got %d updates, want 2", len(got))
	}
	if got[0].Status != model.StatusLoading || got[1].Status != model.StatusSuccess {
		t.Errorf("updates = %+v", got)
	}
	if got[0].RunID != runID || got[0].NodeID != "nd-a" {
		t.Errorf("update = %+v", got[0])
	}
}
