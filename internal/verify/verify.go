// Package verify recomputes matches from raw events and diffs the result
// against persisted snapshots to detect drift.
package verify

import (
	"fmt"
	"sort"

	"github.com/roach88/cs2econ/internal/econ"
	"github.com/roach88/cs2econ/internal/reducer"
	"github.com/roach88/cs2econ/internal/rules"
)

// Mismatch reports one field that differs between a persisted snapshot and
// its recomputed value. Expected is the persisted value; Got is the
// recomputation. Mismatches are reported, never auto-corrected.
type Mismatch struct {
	RoundNumber int    `json:"round_number"`
	Team        string `json:"team"`
	Field       string `json:"field"`
	Expected    string `json:"expected"`
	Got         string `json:"got"`
}

// Report is the outcome of verifying one match.
type Report struct {
	MatchID    string     `json:"match_id"`
	OK         bool       `json:"ok"`
	Snapshots  int        `json:"snapshots"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// Verify reruns the reduction over raw events and compares every field of
// every persisted TeamSnapshot by value, and the checksum by exact string
// equality. Deterministic by construction: run twice on unchanged data it
// produces identical reports.
func Verify(matchID string, persisted []econ.TeamSnapshot, events []econ.Event, r rules.Rules) (Report, error) {
	report := Report{MatchID: matchID, Snapshots: len(persisted)}

	result, err := reducer.ReduceMatchEvents(events, r)
	if err != nil {
		return report, fmt.Errorf("recompute match %s: %w", matchID, err)
	}

	recomputed := make(map[string]econ.TeamSnapshot, len(result.Snapshots))
	for _, s := range result.Snapshots {
		recomputed[snapshotKey(s.RoundNumber, s.Team)] = s
	}

	for _, want := range persisted {
		key := snapshotKey(want.RoundNumber, want.Team)
		got, ok := recomputed[key]
		if !ok {
			report.Mismatches = append(report.Mismatches, Mismatch{
				RoundNumber: want.RoundNumber,
				Team:        string(want.Team),
				Field:       "snapshot",
				Expected:    "present",
				Got:         "missing from recomputation",
			})
			continue
		}
		report.Mismatches = append(report.Mismatches, diffSnapshots(want, got)...)
		delete(recomputed, key)
	}

	// Snapshots the recomputation produced that were never persisted are
	// drift too: the stored history is incomplete.
	extra := make([]string, 0, len(recomputed))
	for key := range recomputed {
		extra = append(extra, key)
	}
	sort.Strings(extra)
	for _, key := range extra {
		s := recomputed[key]
		report.Mismatches = append(report.Mismatches, Mismatch{
			RoundNumber: s.RoundNumber,
			Team:        string(s.Team),
			Field:       "snapshot",
			Expected:    "missing from persisted data",
			Got:         "present",
		})
	}

	sort.Slice(report.Mismatches, func(i, j int) bool {
		a, b := report.Mismatches[i], report.Mismatches[j]
		if a.RoundNumber != b.RoundNumber {
			return a.RoundNumber < b.RoundNumber
		}
		if a.Team != b.Team {
			return a.Team < b.Team
		}
		return a.Field < b.Field
	})

	report.OK = len(report.Mismatches) == 0
	return report, nil
}

func snapshotKey(round int, team econ.Team) string {
	return fmt.Sprintf("%06d/%s", round, team)
}

func diffSnapshots(want, got econ.TeamSnapshot) []Mismatch {
	var out []Mismatch
	add := func(field string, expected, actual any) {
		out = append(out, Mismatch{
			RoundNumber: want.RoundNumber,
			Team:        string(want.Team),
			Field:       field,
			Expected:    fmt.Sprintf("%v", expected),
			Got:         fmt.Sprintf("%v", actual),
		})
	}

	intFields := []struct {
		name      string
		want, got int
	}{
		{"bank_total_start", want.BankTotalStart, got.BankTotalStart},
		{"equip_total_start", want.EquipTotalStart, got.EquipTotalStart},
		{"spend_sum", want.SpendSum, got.SpendSum},
		{"kill_reward_sum", want.KillRewardSum, got.KillRewardSum},
		{"win_reward", want.WinReward, got.WinReward},
		{"loss_bonus", want.LossBonus, got.LossBonus},
		{"plant_bonus_team", want.PlantBonusTeam, got.PlantBonusTeam},
		{"planter_bonus", want.PlanterBonus, got.PlanterBonus},
		{"defuse_bonus", want.DefuseBonus, got.DefuseBonus},
		{"bank_total_end", want.BankTotalEnd, got.BankTotalEnd},
		{"equip_total_end", want.EquipTotalEnd, got.EquipTotalEnd},
	}
	for _, f := range intFields {
		if f.want != f.got {
			add(f.name, f.want, f.got)
		}
	}

	if want.RulesVersion != got.RulesVersion {
		add("rules_version", want.RulesVersion, got.RulesVersion)
	}
	if want.Checksum != got.Checksum {
		add("checksum", want.Checksum, got.Checksum)
	}
	if !equalStrings(want.InputsEventIDs, got.InputsEventIDs) {
		add("inputs_event_ids", fmt.Sprintf("%d ids", len(want.InputsEventIDs)), fmt.Sprintf("%d ids", len(got.InputsEventIDs)))
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
