package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pulseflow/pulseflow/internal/model"
)

// configKey pulls the {key} path segment and checks it has the
// namespace:name form every config key uses (view:active, engine:default).
func configKey(r *http.Request) (string, error) {
	key := r.PathValue("key")
	ns, name, ok := strings.Cut(key, ":")
	if !ok || ns == "" || name == "" {
		return "", inputError("config key must have the form namespace:name")
	}
	return key, nil
}

// handleSetConfig upserts a config value. PUT /v1/configs/{key}.
func (s *PulseServer) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	key, err := configKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cfg := &model.Config{Key: key, Value: body.Value}
	if err := s.store.SetConfig(r.Context(), cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to set config")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleGetConfig reads one config value, falling back to the builtin
// defaults for keys the user never overrode. GET /v1/configs/{key}.
func (s *PulseServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	key, err := configKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := s.store.GetConfig(r.Context(), key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		builtin, ok := builtinConfigs[key]
		if !ok {
			writeError(w, http.StatusNotFound, "config not found")
			return
		}
		cfg = builtin
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to get config")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleListConfigs lists a namespace, builtins merged in.
// GET /v1/configs?namespace=...
func (s *PulseServer) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	namespace := r.URL.Query().Get("namespace")
	if namespace == "" {
		writeError(w, http.StatusBadRequest, "namespace query parameter is required")
		return
	}

	configs, err := s.listConfigsWithBuiltins(r.Context(), namespace)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list configs")
		return
	}
	if configs == nil {
		configs = []*model.Config{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"configs": configs})
}

// handleDeleteConfig removes a stored config value. Deleting a key that
// only exists as a builtin is a 404; builtins are not deletable.
// DELETE /v1/configs/{key}.
func (s *PulseServer) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	key, err := configKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.DeleteConfig(r.Context(), key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "config not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete config")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
