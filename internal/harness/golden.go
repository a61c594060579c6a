package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RenderTrace produces the deterministic text trace of a scenario run:
// every snapshot field, every balance record, and the lineage checksums.
// The format is line-oriented on purpose: golden diffs should read like
// an economy ledger, not a JSON blob.
func RenderTrace(result *Result) []byte {
	var buf strings.Builder
	fmt.Fprintf(&buf, "scenario: %s\n", result.Scenario.Name)

	if result.Err != nil {
		fmt.Fprintf(&buf, "error: %s\n", result.Err.Error())
		return []byte(buf.String())
	}

	round := 0
	for _, snap := range result.Match.Snapshots {
		if snap.RoundNumber != round {
			round = snap.RoundNumber
			fmt.Fprintf(&buf, "round %d\n", round)
			for _, b := range result.Match.Balances {
				if b.RoundNumber != round {
					continue
				}
				fmt.Fprintf(&buf, "  balance %s %s %s bank=%d equip=%d streak=%d cap_hit=%d\n",
					b.At, b.Team, b.PlayerSteamID, b.Bank, b.EquipmentValue, b.LossStreak, b.CapHit)
			}
		}
		fmt.Fprintf(&buf, "  snapshot %s start=%d equip_start=%d spend=%d kills=%d win=%d loss=%d plant_team=%d planter=%d defuse=%d end=%d equip_end=%d\n",
			snap.Team, snap.BankTotalStart, snap.EquipTotalStart, snap.SpendSum,
			snap.KillRewardSum, snap.WinReward, snap.LossBonus, snap.PlantBonusTeam,
			snap.PlanterBonus, snap.DefuseBonus, snap.BankTotalEnd, snap.EquipTotalEnd)
		fmt.Fprintf(&buf, "  lineage %s ids=%d checksum=%s\n",
			snap.Team, len(snap.InputsEventIDs), snap.Checksum)
	}

	for _, st := range result.Match.States {
		if st.Team != "" {
			fmt.Fprintf(&buf, "state round=%d team=%s loss_streak_after=%d\n",
				st.RoundNumber, st.Team, st.LossStreakAfter)
		} else {
			fmt.Fprintf(&buf, "state round=%d player=%s zero_income_next_round=%t\n",
				st.RoundNumber, st.PlayerSteamID, st.ZeroIncomeNextRound)
		}
	}
	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares its trace against a
// golden file in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, RenderTrace(result))
}
