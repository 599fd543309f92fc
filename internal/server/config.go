package server

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pulseflow/pulseflow/internal/model"
)

// builtinConfigs provides default config values that are returned when no
// user-defined config exists for a key. The namespace index groups them by
// prefix so ListConfigs can merge them in.
var builtinConfigs = map[string]*model.Config{
	"view:active": {
		Key:   "view:active",
		Value: json.RawMessage(`{"filter":{"enabled":true},"sort":"-updated_at","limit":20}`),
	},
	"view:recent": {
		Key:   "view:recent",
		Value: json.RawMessage(`{"filter":{},"sort":"-created_at","limit":10}`),
	},
	"engine:default": {
		Key:   "engine:default",
		Value: json.RawMessage(`{"callback_timeout_seconds":30,"max_nodes_per_run":50}`),
	},
}

var builtinConfigsByNamespace = func() map[string][]*model.Config {
	m := map[string][]*model.Config{}
	for key, cfg := range builtinConfigs {
		if i := strings.Index(key, ":"); i > 0 {
			ns := key[:i]
			m[ns] = append(m[ns], cfg)
		}
	}
	return m
}()

// listConfigsWithBuiltins fetches configs from the store and merges in builtin
// defaults that haven't been overridden.
func (s *PulseServer) listConfigsWithBuiltins(ctx context.Context, namespace string) ([]*model.Config, error) {
	configs, err := s.store.ListConfigs(ctx, namespace)
	if err != nil {
		return nil, err
	}

	stored := make(map[string]struct{}, len(configs))
	for _, c := range configs {
		stored[c.Key] = struct{}{}
	}
	for _, b := range builtinConfigsByNamespace[namespace] {
		if _, ok := stored[b.Key]; !ok {
			configs = append(configs, b)
		}
	}

	return configs, nil
}
