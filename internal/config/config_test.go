package config

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cs2econ.db", cfg.DBPath)
	assert.Equal(t, "rules", cfg.RulesDir)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Workers)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CS2ECON_DB", "/var/lib/cs2econ/prod.db")
	t.Setenv("CS2ECON_RULES_DIR", "/etc/cs2econ/rules")
	t.Setenv("CS2ECON_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/cs2econ/prod.db", cfg.DBPath)
	assert.Equal(t, "/etc/cs2econ/rules", cfg.RulesDir)
	assert.Equal(t, 8, cfg.Workers)
}

func TestLoadBadWorkersValue(t *testing.T) {
	t.Setenv("CS2ECON_WORKERS", "many")

	_, err := Load()
	require.Error(t, err)
}
