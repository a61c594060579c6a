package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cs2econ/internal/econ"
	"github.com/roach88/cs2econ/internal/reducer"
	"github.com/roach88/cs2econ/internal/rules"
	"github.com/roach88/cs2econ/internal/testutil"
)

func fixtureMatch(t *testing.T) ([]econ.Event, reducer.MatchResult) {
	t.Helper()
	b := testutil.NewMatch("m1")
	b.Round(1).
		Seen("t-1", econ.TeamT).Seen("t-2", econ.TeamT).
		Seen("ct-1", econ.TeamCT).Seen("ct-2", econ.TeamCT).
		Kill("t-1", econ.TeamT, "glock", "ct-1").
		End(econ.TeamT, econ.WinElimination)
	b.Round(2).
		Seen("t-1", econ.TeamT).Seen("t-2", econ.TeamT).
		Seen("ct-1", econ.TeamCT).Seen("ct-2", econ.TeamCT).
		Plant("t-2", "A").
		Defuse("ct-2").
		EndBare()

	events := b.Events()
	res, err := reducer.ReduceMatchEvents(events, rules.Default())
	require.NoError(t, err)
	return events, res
}

func TestVerifyCleanRoundTrip(t *testing.T) {
	events, res := fixtureMatch(t)

	report, err := Verify("m1", res.Snapshots, events, rules.Default())
	require.NoError(t, err)

	assert.True(t, report.OK)
	assert.Empty(t, report.Mismatches)
	assert.Equal(t, 4, report.Snapshots)
}

func TestVerifyIdempotent(t *testing.T) {
	events, res := fixtureMatch(t)

	first, err := Verify("m1", res.Snapshots, events, rules.Default())
	require.NoError(t, err)
	second, err := Verify("m1", res.Snapshots, events, rules.Default())
	require.NoError(t, err)

	assert.Equal(t, first, second, "verify must be deterministic on unchanged data")
}

func TestVerifyDetectsTamperedField(t *testing.T) {
	events, res := fixtureMatch(t)

	tampered := make([]econ.TeamSnapshot, len(res.Snapshots))
	copy(tampered, res.Snapshots)
	tampered[0].BankTotalEnd += 500

	report, err := Verify("m1", tampered, events, rules.Default())
	require.NoError(t, err)

	assert.False(t, report.OK)
	require.Len(t, report.Mismatches, 1)
	m := report.Mismatches[0]
	assert.Equal(t, "bank_total_end", m.Field)
	assert.Equal(t, tampered[0].RoundNumber, m.RoundNumber)
	assert.Equal(t, string(tampered[0].Team), m.Team)
}

func TestVerifyDetectsTamperedChecksum(t *testing.T) {
	events, res := fixtureMatch(t)

	tampered := make([]econ.TeamSnapshot, len(res.Snapshots))
	copy(tampered, res.Snapshots)
	tampered[1].Checksum = "0000000000000000000000000000000000000000000000000000000000000000"

	report, err := Verify("m1", tampered, events, rules.Default())
	require.NoError(t, err)

	assert.False(t, report.OK)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, "checksum", report.Mismatches[0].Field)
}

func TestVerifyDetectsMissingAndExtraSnapshots(t *testing.T) {
	events, res := fixtureMatch(t)

	// Drop one persisted snapshot: the recomputation now has an extra.
	report, err := Verify("m1", res.Snapshots[:len(res.Snapshots)-1], events, rules.Default())
	require.NoError(t, err)
	assert.False(t, report.OK)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, "snapshot", report.Mismatches[0].Field)
	assert.Equal(t, "missing from persisted data", report.Mismatches[0].Expected)

	// A persisted snapshot for a round that never happened.
	forged := append([]econ.TeamSnapshot{}, res.Snapshots...)
	ghost := res.Snapshots[0]
	ghost.RoundNumber = 9
	forged = append(forged, ghost)

	report, err = Verify("m1", forged, events, rules.Default())
	require.NoError(t, err)
	assert.False(t, report.OK)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, 9, report.Mismatches[0].RoundNumber)
	assert.Equal(t, "missing from recomputation", report.Mismatches[0].Got)
}

func TestVerifyDetectsRulesVersionDrift(t *testing.T) {
	events, res := fixtureMatch(t)

	other := rules.Default()
	other.Version = "2026_01"
	other.EliminationReward = 3000

	report, err := Verify("m1", res.Snapshots, events, other)
	require.NoError(t, err)

	assert.False(t, report.OK)
	assert.NotEmpty(t, report.Mismatches, "a changed ruleset is visible drift, not silence")
}

func TestVerifyRecomputeFailure(t *testing.T) {
	events, res := fixtureMatch(t)

	// Drop round 2's round_end so the recomputation itself fails.
	broken := append([]econ.Event{}, events[:len(events)-1]...)

	_, err := Verify("m1", res.Snapshots, broken, rules.Default())
	require.Error(t, err)
	assert.True(t, econ.IsDataIntegrityError(err))
}

func TestVerifyMismatchesSorted(t *testing.T) {
	events, res := fixtureMatch(t)

	tampered := make([]econ.TeamSnapshot, len(res.Snapshots))
	copy(tampered, res.Snapshots)
	for i := range tampered {
		tampered[i].BankTotalEnd++
		tampered[i].SpendSum++
	}

	report, err := Verify("m1", tampered, events, rules.Default())
	require.NoError(t, err)
	require.Len(t, report.Mismatches, 8)

	for i := 1; i < len(report.Mismatches); i++ {
		a, b := report.Mismatches[i-1], report.Mismatches[i]
		less := a.RoundNumber < b.RoundNumber ||
			(a.RoundNumber == b.RoundNumber && a.Team < b.Team) ||
			(a.RoundNumber == b.RoundNumber && a.Team == b.Team && a.Field < b.Field)
		assert.True(t, less, "mismatches must come back in stable order")
	}
}
