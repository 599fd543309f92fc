package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pulseflow/pulseflow/internal/model"
	"github.com/pulseflow/pulseflow/internal/run"
)

// handleStartRun handles POST /v1/automations/{id}/runs.
func (s *PulseServer) handleStartRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in startRunInput
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	started, err := s.startRun(r.Context(), id, in)
	if err != nil {
		var ie inputError
		switch {
		case errors.As(err, &ie):
			writeError(w, http.StatusBadRequest, ie.Error())
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, "automation not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to start run")
		}
		return
	}

	writeJSON(w, http.StatusCreated, started)
}

// handleListRuns handles GET /v1/automations/{id}/runs.
func (s *PulseServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	runs, err := s.store.ListRuns(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*model.Run{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleGetRun handles GET /v1/runs/{id}.
func (s *PulseServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	got, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	writeJSON(w, http.StatusOK, got)
}

// handleRunStatus handles GET /v1/runs/{id}/status: a snapshot of every
// node's execution status for an in-flight run.
func (s *PulseServer) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	snapshot, err := s.tracker.Snapshot(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "run is not active")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":   id,
		"statuses": snapshot,
	})
}

// setNodeStatusRequest is the JSON body for the status callback.
type setNodeStatusRequest struct {
	Status model.ExecutionStatus `json:"status"`
}

// handleSetNodeStatus handles POST /v1/runs/{id}/nodes/{node_id}/status,
// the run engine's per-node status callback. Stale run ids get 409.
func (s *PulseServer) handleSetNodeStatus(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	nodeID := r.PathValue("node_id")
	if runID == "" || nodeID == "" {
		writeError(w, http.StatusBadRequest, "run id and node id are required")
		return
	}

	var req setNodeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.setNodeStatus(r.Context(), runID, nodeID, req.Status); err != nil {
		var ie inputError
		switch {
		case errors.Is(err, run.ErrStaleRun):
			writeError(w, http.StatusConflict, "run is not the active run")
		case errors.As(err, &ie):
			writeError(w, http.StatusBadRequest, ie.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to set node status")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":  runID,
		"node_id": nodeID,
		"status":  req.Status,
	})
}

// recordNodeResultRequest is the JSON body for the result callback. The
// result payload is arbitrary JSON from the run engine; it is passed through
// the artifact serializer before it is stored or streamed.
type recordNodeResultRequest struct {
	Result any `json:"result"`
}

// handleRecordNodeResult handles POST /v1/runs/{id}/nodes/{node_id}/result.
func (s *PulseServer) handleRecordNodeResult(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	nodeID := r.PathValue("node_id")
	if runID == "" || nodeID == "" {
		writeError(w, http.StatusBadRequest, "run id and node id are required")
		return
	}

	var req recordNodeResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.recordNodeResult(r.Context(), runID, nodeID, req.Result)
	if err != nil {
		switch {
		case errors.Is(err, run.ErrStaleRun):
			writeError(w, http.StatusConflict, "run is not the active run")
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, "run not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to record node result")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleFinishRun handles POST /v1/runs/{id}/finish.
func (s *PulseServer) handleFinishRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in finishRunInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	finished, err := s.finishRun(r.Context(), id, in)
	if err != nil {
		var ie inputError
		switch {
		case errors.As(err, &ie):
			writeError(w, http.StatusBadRequest, ie.Error())
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, "run not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to finish run")
		}
		return
	}

	writeJSON(w, http.StatusOK, finished)
}

// handleListNodeResults handles GET /v1/automations/{id}/results.
func (s *PulseServer) handleListNodeResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	results, err := s.store.ListNodeResults(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list node results")
		return
	}
	if results == nil {
		results = []*model.NodeResult{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleGetNodeResult handles GET /v1/automations/{id}/results/{node_id}.
func (s *PulseServer) handleGetNodeResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	nodeID := r.PathValue("node_id")
	if id == "" || nodeID == "" {
		writeError(w, http.StatusBadRequest, "automation id and node id are required")
		return
	}

	result, err := s.store.GetNodeResult(r.Context(), id, nodeID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "node result not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get node result")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
