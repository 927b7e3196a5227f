// Package config loads the optional resampler configuration file. Every
// field has a default, so running without a file is fully supported.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the full configuration tree.
type Config struct {
	General General  `toml:"general"`
	Catalog Catalog  `toml:"catalog"`
	Plugins []Plugin `toml:"plugins"`
}

// General holds engine-wide switches.
type General struct {
	// AnalysisCache enables the per-source sidecar cache.
	AnalysisCache bool `toml:"analysis_cache"`

	// VerifyCache re-hashes sources and rejects stale sidecars. Off by
	// default for compatibility with sidecars written by older builds.
	VerifyCache bool `toml:"verify_cache"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
}

// Catalog points at the plugin registry database. Empty disables the
// catalog entirely.
type Catalog struct {
	Path string `toml:"path"`
}

// Plugin is one explicitly configured plugin, loaded in addition to the
// catalog's enabled entries.
type Plugin struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		General: General{
			AnalysisCache: true,
			LogLevel:      "info",
		},
	}
}

// Load reads a TOML configuration file, filling unset fields from
// Default. A missing file is not an error and yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if _, err := cfg.SlogLevel(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
}

// SlogLevel maps the configured log level onto slog's scale.
func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.General.LogLevel) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.General.LogLevel)
	}
}
