package registry

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/dataflow/internal/logging"
)

// Plugin contributes slot and node kinds to a registry.
//
// Install calls RegisterSlotFactories on every plugin before it calls
// RegisterNodeFactories on any of them, so node kinds may rely on slot kinds
// provided by other plugins.
type Plugin interface {
	Name() string
	RegisterSlotFactories(r *Registry) error
	RegisterNodeFactories(r *Registry) error
}

// Install registers the given plugins in two passes and returns the names of
// the plugins that were installed. A plugin failing its slot pass is skipped
// for the node pass; failures are logged and reported in the returned error.
func Install(r *Registry, logger *slog.Logger, plugins ...Plugin) ([]string, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	var failed []string
	loaded := make([]Plugin, 0, len(plugins))
	for _, p := range plugins {
		if err := p.RegisterSlotFactories(r); err != nil {
			logger.Error("Plugin cannot be loaded", "plugin", p.Name(), "err", err)
			failed = append(failed, p.Name())
			continue
		}
		loaded = append(loaded, p)
	}

	// Node kinds go second: every slot kind is now known.
	names := make([]string, 0, len(loaded))
	for _, p := range loaded {
		if err := p.RegisterNodeFactories(r); err != nil {
			logger.Error("Plugin node registration failed", "plugin", p.Name(), "err", err)
			failed = append(failed, p.Name())
			continue
		}
		logger.Debug("Plugin installed", "plugin", p.Name())
		names = append(names, p.Name())
	}

	if len(failed) > 0 {
		return names, fmt.Errorf("plugins failed to install: %v", failed)
	}
	return names, nil
}
