package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/pulseflow/pulseflow/internal/model"
)

// handleCreateAutomation handles POST /v1/automations.
func (s *PulseServer) handleCreateAutomation(w http.ResponseWriter, r *http.Request) {
	var in createAutomationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	automation, err := s.createAutomation(r.Context(), in)
	if err != nil {
		var ie inputError
		if errors.As(err, &ie) {
			writeError(w, http.StatusBadRequest, ie.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create automation")
		return
	}

	writeJSON(w, http.StatusCreated, automation)
}

// handleGetAutomation handles GET /v1/automations/{id}.
func (s *PulseServer) handleGetAutomation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	automation, err := s.store.GetAutomation(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "automation not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get automation")
		return
	}

	writeJSON(w, http.StatusOK, automation)
}

// handleListAutomations handles GET /v1/automations with query filters.
func (s *PulseServer) handleListAutomations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.AutomationFilter{
		Owner:  q.Get("owner"),
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}
	if v := q.Get("enabled"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid enabled value")
			return
		}
		filter.Enabled = &enabled
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit value")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset value")
			return
		}
		filter.Offset = n
	}

	automations, total, err := s.store.ListAutomations(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list automations")
		return
	}
	if automations == nil {
		automations = []*model.Automation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"automations": automations,
		"total":       total,
	})
}

// handleUpdateAutomation handles PATCH /v1/automations/{id}.
func (s *PulseServer) handleUpdateAutomation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in updateAutomationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	automation, err := s.updateAutomation(r.Context(), id, in)
	if err != nil {
		var ie inputError
		switch {
		case errors.As(err, &ie):
			writeError(w, http.StatusBadRequest, ie.Error())
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, "automation not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update automation")
		}
		return
	}

	writeJSON(w, http.StatusOK, automation)
}

// handleDeleteAutomation handles DELETE /v1/automations/{id}.
func (s *PulseServer) handleDeleteAutomation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.deleteAutomation(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "automation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete automation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetEvents handles GET /v1/automations/{id}/events.
func (s *PulseServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	evts, err := s.store.GetEvents(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get events")
		return
	}
	if evts == nil {
		evts = []*model.Event{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": evts})
}

// handleGetStats handles GET /v1/stats.
func (s *PulseServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	_, total, err := s.store.ListAutomations(r.Context(), model.AutomationFilter{Limit: 1})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}
	enabled := true
	_, enabledTotal, err := s.store.ListAutomations(r.Context(), model.AutomationFilter{Enabled: &enabled, Limit: 1})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_automations":   total,
		"enabled_automations": enabledTotal,
	})
}
