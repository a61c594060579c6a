// Package config resolves environment-level defaults for the CLI.
// Flags always override these values.
package config

import (
	"fmt"
	"runtime"

	"github.com/caarlos0/env/v11"
)

// Config holds environment-configurable defaults.
type Config struct {
	// DBPath is the default SQLite database path.
	DBPath string `env:"CS2ECON_DB" envDefault:"cs2econ.db"`

	// RulesDir is the directory scanned for *.cue rules-version files.
	RulesDir string `env:"CS2ECON_RULES_DIR" envDefault:"rules"`

	// Workers bounds concurrent match reductions in batch runs.
	// 0 selects GOMAXPROCS.
	Workers int `env:"CS2ECON_WORKERS" envDefault:"0"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return cfg, nil
}
