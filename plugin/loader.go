package plugin

import (
	"fmt"
	"log/slog"
	goplugin "plugin"
)

// factorySymbol is the exported symbol a shared object must provide.
const factorySymbol = "NewProcessor"

// Open loads one shared object and constructs its processor. The object
// must export `func NewProcessor() plugin.Processor`.
func Open(path string) (Processor, error) {
	p, err := goplugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: failed to open %s: %w", path, err)
	}

	sym, err := p.Lookup(factorySymbol)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s does not export %s: %w", path, factorySymbol, err)
	}

	factory, ok := sym.(func() Processor)
	if !ok {
		return nil, fmt.Errorf("plugin: %s exports %s with the wrong signature", path, factorySymbol)
	}

	proc := factory()
	if proc == nil {
		return nil, fmt.Errorf("plugin: %s factory returned nil", path)
	}

	return proc, nil
}

// OpenAll loads every path that works and logs and skips the ones that do
// not. A broken plugin never blocks a render.
func OpenAll(paths []string, logger *slog.Logger) []Processor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	procs := make([]Processor, 0, len(paths))
	for _, path := range paths {
		proc, err := Open(path)
		if err != nil {
			logger.Warn("skipping plugin", "path", path, "error", err)
			continue
		}
		meta := proc.Metadata()
		logger.Debug("loaded plugin", "name", meta.Name, "version", meta.Version)
		procs = append(procs, proc)
	}

	return procs
}
