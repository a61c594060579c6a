package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cs2econ/internal/econ"
)

func TestLoadMissingDirReturnsDefault(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, Default(), loaded["2025_09"])
}

func TestLoadRulesFile(t *testing.T) {
	loaded, err := Load(filepath.Join("testdata", "rules"))
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	r, ok := loaded["2026_01"]
	require.True(t, ok)
	assert.Equal(t, 300, r.SMGDefaultReward)
	assert.Equal(t, []int{1400, 1900, 2400, 2900, 3400, 3900}, r.LossBonusLadder)
	assert.Equal(t, "2026_01", r.Version)

	// Loading extra versions never displaces the default.
	assert.Equal(t, Default(), loaded["2025_09"])
}

func TestLoadRejectsSchemaViolation(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "invalid"))
	require.Error(t, err)
	assert.True(t, econ.IsConfigurationError(err))
}

func TestLoadRejectsDuplicateVersion(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile(filepath.Join("testdata", "rules", "2026_01.cue"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cue"), src, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.cue"), src, 0o644))

	_, err = Load(dir)
	require.Error(t, err)
	assert.True(t, econ.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "duplicate rules version")
}

func TestLoadRejectsMalformedCUE(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.cue"), []byte("version: {{"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, econ.IsConfigurationError(err))
}

func TestResolveDefaultVersion(t *testing.T) {
	r, err := Resolve(filepath.Join("testdata", "rules"), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), r)
}

func TestResolveNamedVersion(t *testing.T) {
	r, err := Resolve(filepath.Join("testdata", "rules"), "2026_01")
	require.NoError(t, err)
	assert.Equal(t, "2026_01", r.Version)
}

func TestResolveUnknownVersion(t *testing.T) {
	_, err := Resolve(filepath.Join("testdata", "rules"), "1999_01")
	require.Error(t, err)
	assert.True(t, econ.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "1999_01")
}
