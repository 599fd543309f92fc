package server

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"testing"

	"github.com/pulseflow/pulseflow/internal/events"
	"github.com/pulseflow/pulseflow/internal/model"
	"github.com/pulseflow/pulseflow/internal/run"
)

func startTestRun(t *testing.T, srv *PulseServer, ms *mockStore, automationID string) *model.Run {
	t.Helper()
	seedAutomation(t, ms, automationID)
	r, err := srv.startRun(context.Background(), automationID, startRunInput{StartedBy: "tester"})
	if err != nil {
		t.Fatalf("startRun: %v", err)
	}
	return r
}

func TestStartRun(t *testing.T) {
	srv, ms := newTestServer()
	r := startTestRun(t, srv, ms, "at-run")

	if !strings.HasPrefix(r.ID, "rn-") {
		t.Errorf("expected rn- prefix, got %q", r.ID)
	}
	if r.Status != model.RunActive {
		t.Errorf("expected active run, got %q", r.Status)
	}
	if ms.activeRuns["at-run"] != r.ID {
		t.Errorf("expected durable active run %q, got %q", r.ID, ms.activeRuns["at-run"])
	}
	if got, ok := srv.tracker.ActiveRun("at-run"); !ok || got != r.ID {
		t.Errorf("expected tracked active run %q, got %q", r.ID, got)
	}

	// Every node starts at initial.
	snapshot, err := srv.tracker.Snapshot(r.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot["at-run-seed"] != model.StatusInitial {
		t.Errorf("expected initial, got %q", snapshot["at-run-seed"])
	}

	if len(ms.events) != 1 || ms.events[0].Topic != events.TopicRunStarted {
		t.Errorf("expected one %s event, got %+v", events.TopicRunStarted, ms.events)
	}
}

func TestStartRun_Disabled(t *testing.T) {
	srv, ms := newTestServer()
	seedAutomation(t, ms, "at-off")
	ms.automations["at-off"].Enabled = false

	_, err := srv.startRun(context.Background(), "at-off", startRunInput{})
	var ie inputError
	if !errors.As(err, &ie) {
		t.Fatalf("expected inputError, got %v", err)
	}
}

func TestSetNodeStatus_PublishesEvent(t *testing.T) {
	srv, ms := newTestServer()
	r := startTestRun(t, srv, ms, "at-st")

	if err := srv.setNodeStatus(context.Background(), r.ID, "at-st-seed", model.StatusLoading); err != nil {
		t.Fatalf("setNodeStatus: %v", err)
	}

	// run.started plus the run.status fan-out from the tracker callback.
	last := ms.events[len(ms.events)-1]
	if last.Topic != events.TopicRunStatus {
		t.Fatalf("expected %s event, got %s", events.TopicRunStatus, last.Topic)
	}
	var payload events.RunStatus
	if err := json.Unmarshal(last.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.RunID != r.ID || payload.NodeID != "at-st-seed" || payload.Status != model.StatusLoading {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestSetNodeStatus_StaleRun(t *testing.T) {
	srv, ms := newTestServer()
	old := startTestRun(t, srv, ms, "at-fence")

	// A second run supersedes the first.
	newer, err := srv.startRun(context.Background(), "at-fence", startRunInput{})
	if err != nil {
		t.Fatalf("startRun: %v", err)
	}

	err = srv.setNodeStatus(context.Background(), old.ID, "at-fence-seed", model.StatusLoading)
	if !errors.Is(err, run.ErrStaleRun) {
		t.Fatalf("expected ErrStaleRun, got %v", err)
	}

	// The newer run is unaffected.
	if err := srv.setNodeStatus(context.Background(), newer.ID, "at-fence-seed", model.StatusLoading); err != nil {
		t.Fatalf("setNodeStatus on active run: %v", err)
	}
}

func TestSetNodeStatus_RehydratesAfterRestart(t *testing.T) {
	srv, ms := newTestServer()
	r := startTestRun(t, srv, ms, "at-rehydrate")

	// Simulate a restart: a fresh server shares the store (and its durable
	// active_runs row) but has an empty tracker.
	restarted := NewPulseServer(ms, &events.NoopPublisher{})

	if err := restarted.setNodeStatus(context.Background(), r.ID, "at-rehydrate-seed", model.StatusLoading); err != nil {
		t.Fatalf("expected rehydrated update to succeed, got %v", err)
	}
	got, err := restarted.tracker.Status(r.ID, "at-rehydrate-seed")
	if err != nil || got != model.StatusLoading {
		t.Fatalf("expected loading after rehydrate, got %q (err=%v)", got, err)
	}
}

func TestSetNodeStatus_InvalidTransition(t *testing.T) {
	srv, ms := newTestServer()
	r := startTestRun(t, srv, ms, "at-inv")

	// initial -> success skips loading.
	err := srv.setNodeStatus(context.Background(), r.ID, "at-inv-seed", model.StatusSuccess)
	var ie inputError
	if !errors.As(err, &ie) {
		t.Fatalf("expected inputError, got %v", err)
	}
}

func TestRecordNodeResult_SerializesReceipt(t *testing.T) {
	srv, ms := newTestServer()
	r := startTestRun(t, srv, ms, "at-res")

	gasUsed, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	payload := map[string]any{
		"hash":        "0xdeadbeef",
		"blockNumber": big.NewInt(19000000),
		"gasUsed":     gasUsed,
		"status":      1,
		"provider":    "internal rpc handle", // must not leak into the projection
	}

	result, err := srv.recordNodeResult(context.Background(), r.ID, "at-res-seed", payload)
	if err != nil {
		t.Fatalf("recordNodeResult: %v", err)
	}

	var artifact map[string]any
	if err := json.Unmarshal(result.Artifact, &artifact); err != nil {
		t.Fatalf("unmarshal artifact: %v", err)
	}
	if len(artifact) != 9 {
		t.Fatalf("expected 9-key receipt projection, got %d keys: %v", len(artifact), artifact)
	}
	if artifact["gasUsed"] != "123456789012345678901234567890" {
		t.Errorf("expected decimal string gasUsed, got %v", artifact["gasUsed"])
	}
	if artifact["from"] != nil {
		t.Errorf("absent receipt fields must be null, got %v", artifact["from"])
	}
	if _, ok := artifact["provider"]; ok {
		t.Error("extra fields must not survive receipt projection")
	}

	stored, err := ms.GetNodeResult(context.Background(), "at-res", "at-res-seed")
	if err != nil {
		t.Fatalf("GetNodeResult: %v", err)
	}
	if stored.RunID != r.ID {
		t.Errorf("expected run id %q, got %q", r.ID, stored.RunID)
	}
}

func TestRecordNodeResult_StaleRun(t *testing.T) {
	srv, ms := newTestServer()
	old := startTestRun(t, srv, ms, "at-rs")
	if _, err := srv.startRun(context.Background(), "at-rs", startRunInput{}); err != nil {
		t.Fatalf("startRun: %v", err)
	}

	_, err := srv.recordNodeResult(context.Background(), old.ID, "at-rs-seed", map[string]any{"ok": true})
	if !errors.Is(err, run.ErrStaleRun) {
		t.Fatalf("expected ErrStaleRun, got %v", err)
	}
}

func TestFinishRun(t *testing.T) {
	srv, ms := newTestServer()
	r := startTestRun(t, srv, ms, "at-fin")
	if err := srv.setNodeStatus(context.Background(), r.ID, "at-fin-seed", model.StatusLoading); err != nil {
		t.Fatalf("setNodeStatus: %v", err)
	}

	finished, err := srv.finishRun(context.Background(), r.ID, finishRunInput{Status: model.RunSucceeded})
	if err != nil {
		t.Fatalf("finishRun: %v", err)
	}
	if finished.Status != model.RunSucceeded || finished.FinishedAt == nil {
		t.Errorf("unexpected finished run: %+v", finished)
	}

	// Loading nodes fall back to initial.
	got, err := srv.tracker.Status(r.ID, "at-fin-seed")
	if err != nil || got != model.StatusInitial {
		t.Errorf("expected initial after finish, got %q (err=%v)", got, err)
	}

	// The durable active-run row is released.
	if _, ok := ms.activeRuns["at-fin"]; ok {
		t.Error("active run row should be cleared")
	}

	last := ms.events[len(ms.events)-1]
	if last.Topic != events.TopicRunFinished {
		t.Errorf("expected %s event, got %s", events.TopicRunFinished, last.Topic)
	}
}

func TestFinishRun_InvalidStatus(t *testing.T) {
	srv, ms := newTestServer()
	r := startTestRun(t, srv, ms, "at-fi")

	_, err := srv.finishRun(context.Background(), r.ID, finishRunInput{Status: model.RunActive})
	var ie inputError
	if !errors.As(err, &ie) {
		t.Fatalf("expected inputError, got %v", err)
	}
}

func TestRunLifecycleOverHTTP(t *testing.T) {
	srv, ms := newTestServer()
	handler := srv.NewHTTPHandler("")
	seedAutomation(t, ms, "at-http")

	rec := doRequest(t, handler, http.MethodPost, "/v1/automations/at-http/runs", map[string]any{"started_by": "engine"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start run: expected 201, got %d (body=%s)", rec.Code, rec.Body.String())
	}
	started := decodeBody[model.Run](t, rec)

	rec = doRequest(t, handler, http.MethodPost, "/v1/runs/"+started.ID+"/nodes/at-http-seed/status", map[string]any{"status": "loading"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status callback: expected 200, got %d (body=%s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodGet, "/v1/runs/"+started.ID+"/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status snapshot: expected 200, got %d", rec.Code)
	}
	snap := decodeBody[struct {
		Statuses map[string]model.ExecutionStatus `json:"statuses"`
	}](t, rec)
	if snap.Statuses["at-http-seed"] != model.StatusLoading {
		t.Errorf("expected loading, got %q", snap.Statuses["at-http-seed"])
	}

	rec = doRequest(t, handler, http.MethodPost, "/v1/runs/"+started.ID+"/nodes/at-http-seed/result", map[string]any{
		"result": map[string]any{"hash": "0xabc", "blockNumber": 100},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("result callback: expected 200, got %d (body=%s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodPost, "/v1/runs/"+started.ID+"/nodes/at-http-seed/status", map[string]any{"status": "success"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status callback: expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodPost, "/v1/runs/"+started.ID+"/finish", map[string]any{"status": "succeeded"})
	if rec.Code != http.StatusOK {
		t.Fatalf("finish: expected 200, got %d (body=%s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodGet, "/v1/automations/at-http/results", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list results: expected 200, got %d", rec.Code)
	}
	results := decodeBody[struct {
		Results []*model.NodeResult `json:"results"`
	}](t, rec)
	if len(results.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results.Results))
	}
}

func TestStaleRunOverHTTPGets409(t *testing.T) {
	srv, ms := newTestServer()
	handler := srv.NewHTTPHandler("")
	old := startTestRun(t, srv, ms, "at-409")
	if _, err := srv.startRun(context.Background(), "at-409", startRunInput{}); err != nil {
		t.Fatalf("startRun: %v", err)
	}

	rec := doRequest(t, handler, http.MethodPost, "/v1/runs/"+old.ID+"/nodes/at-409-seed/status", map[string]any{"status": "loading"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (body=%s)", rec.Code, rec.Body.String())
	}
}
