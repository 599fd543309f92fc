package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
)

// handleGetGraph handles GET /v1/automations/{id}/graph.
func (s *PulseServer) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	// GetGraph returns empty slices for an automation with no nodes, so
	// existence is checked against the automations table first.
	if _, err := s.store.GetAutomation(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "automation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get automation")
		return
	}

	graph, err := s.store.GetGraph(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get graph")
		return
	}

	writeJSON(w, http.StatusOK, graph)
}

// handleAppendNode handles POST /v1/automations/{id}/nodes.
func (s *PulseServer) handleAppendNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in appendNodeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	node, conn, err := s.appendNode(r.Context(), id, in)
	if err != nil {
		var ie inputError
		switch {
		case errors.As(err, &ie):
			writeError(w, http.StatusBadRequest, ie.Error())
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, "automation not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to append node")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"node":       node,
		"connection": conn,
	})
}

// handleCreateConnection handles POST /v1/automations/{id}/connections.
func (s *PulseServer) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in createConnectionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	conn, err := s.createConnection(r.Context(), id, in)
	if err != nil {
		var ie inputError
		switch {
		case errors.As(err, &ie):
			writeError(w, http.StatusBadRequest, ie.Error())
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, "automation not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create connection")
		}
		return
	}

	writeJSON(w, http.StatusCreated, conn)
}
