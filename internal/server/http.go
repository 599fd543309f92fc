package server

import (
	"encoding/json"
	"net/http"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *PulseServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/automations", s.handleCreateAutomation)
	mux.HandleFunc("GET /v1/automations", s.handleListAutomations)
	mux.HandleFunc("GET /v1/automations/{id}", s.handleGetAutomation)
	mux.HandleFunc("PATCH /v1/automations/{id}", s.handleUpdateAutomation)
	mux.HandleFunc("DELETE /v1/automations/{id}", s.handleDeleteAutomation)
	mux.HandleFunc("POST /v1/automations/{id}/nodes", s.handleAppendNode)
	mux.HandleFunc("POST /v1/automations/{id}/connections", s.handleCreateConnection)
	mux.HandleFunc("GET /v1/automations/{id}/graph", s.handleGetGraph)
	mux.HandleFunc("GET /v1/automations/{id}/events", s.handleGetEvents)
	mux.HandleFunc("GET /v1/automations/{id}/results", s.handleListNodeResults)
	mux.HandleFunc("GET /v1/automations/{id}/results/{node_id}", s.handleGetNodeResult)
	mux.HandleFunc("POST /v1/automations/{id}/runs", s.handleStartRun)
	mux.HandleFunc("GET /v1/automations/{id}/runs", s.handleListRuns)
	mux.HandleFunc("GET /v1/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /v1/runs/{id}/status", s.handleRunStatus)
	mux.HandleFunc("POST /v1/runs/{id}/nodes/{node_id}/status", s.handleSetNodeStatus)
	mux.HandleFunc("POST /v1/runs/{id}/nodes/{node_id}/result", s.handleRecordNodeResult)
	mux.HandleFunc("POST /v1/runs/{id}/finish", s.handleFinishRun)
	mux.HandleFunc("PUT /v1/configs/{key...}", s.handleSetConfig)
	mux.HandleFunc("GET /v1/configs/{key...}", s.handleGetConfig)
	mux.HandleFunc("GET /v1/configs", s.handleListConfigs)
	mux.HandleFunc("DELETE /v1/configs/{key...}", s.handleDeleteConfig)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/stats", s.handleGetStats)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *PulseServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
