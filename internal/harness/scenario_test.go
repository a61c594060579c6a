package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenarioDefaults(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, `
name: minimal
description: smallest valid scenario
events:
  - {round: 1, type: round_start}
`))
	require.NoError(t, err)
	assert.Equal(t, "scenario-match", s.MatchID, "match_id gets a default")
}

func TestLoadScenarioRejectsUnknownField(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, `
name: typo
description: has a misspelled assertion key
events:
  - {round: 1, type: round_start}
ballances:
  t-1: 800
`))
	require.Error(t, err, "unknown fields must fail loudly")
}

func TestLoadScenarioRejectsMissingName(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, `
description: no name
events:
  - {round: 1, type: round_start}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoadScenarioRejectsUnknownEventType(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, `
name: bad-type
description: event type outside the taxonomy
events:
  - {round: 1, type: teleport}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestLoadScenarioRejectsUnknownErrorCode(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, `
name: bad-code
description: expect_error outside the taxonomy
events:
  - {round: 1, type: round_start}
expect_error: KABOOM
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expect_error")
}

func TestBuildEventsDeterministicIdentity(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/pistol-round.yaml")
	require.NoError(t, err)

	a := buildEvents(s)
	b := buildEvents(s)
	require.Equal(t, a, b)

	assert.Equal(t, "golden-pistol-ev-0001", a[0].EventID)
	assert.Equal(t, 1, a[0].Tick)
	assert.Equal(t, "golden-pistol-ev-0007", a[6].EventID)
	assert.Equal(t, 7, a[6].Tick, "ticks count per round by position")
}

func TestLoadScenariosSortedByFilename(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 7)
	assert.Equal(t, "broke-buy", scenarios[0].Name)
}
