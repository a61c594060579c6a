package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/cs2econ/internal/econ"
	"github.com/roach88/cs2econ/internal/reducer"
	"github.com/roach88/cs2econ/internal/rules"
)

// Result captures a scenario execution for assertions and golden output.
type Result struct {
	Scenario *Scenario
	Match    reducer.MatchResult

	// Err is the reduction error, when the scenario expects one.
	Err error
}

// AssertionError is returned when a scenario assertion fails.
type AssertionError struct {
	Scenario string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed in scenario %s\n", e.Scenario)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	return buf.String()
}

// Run executes a scenario against the given rules and checks every
// assertion it declares. The returned Result is non-nil whenever the
// reduction itself behaved as the scenario demanded, so golden comparison
// can follow.
func Run(s *Scenario, r rules.Rules) (*Result, error) {
	events := buildEvents(s)
	match, err := reducer.ReduceMatchEvents(events, r)
	result := &Result{Scenario: s, Match: match, Err: err}

	if s.ExpectError != "" {
		if err == nil {
			return nil, &AssertionError{
				Scenario: s.Name,
				Expected: fmt.Sprintf("reduction error with code %s", s.ExpectError),
				Actual:   "reduction succeeded",
			}
		}
		var ee *econ.EconError
		if !errors.As(err, &ee) || string(ee.Code) != s.ExpectError {
			return nil, &AssertionError{
				Scenario: s.Name,
				Expected: fmt.Sprintf("error code %s", s.ExpectError),
				Actual:   err.Error(),
			}
		}
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %s: reduction failed: %w", s.Name, err)
	}

	if err := assertBalances(s, match); err != nil {
		return nil, err
	}
	if err := assertSnapshots(s, match); err != nil {
		return nil, err
	}
	return result, nil
}

// assertBalances checks each expected player bank against the last
// end-checkpoint balance record for that player.
func assertBalances(s *Scenario, match reducer.MatchResult) error {
	finalBank := map[string]int{}
	for _, b := range match.Balances {
		if b.At == econ.AtEnd {
			finalBank[b.PlayerSteamID] = b.Bank
		}
	}
	for player, want := range s.Balances {
		got, ok := finalBank[player]
		if !ok {
			return &AssertionError{
				Scenario: s.Name,
				Expected: fmt.Sprintf("final balance for player %s", player),
				Actual:   "no balance record emitted",
			}
		}
		if got != want {
			return &AssertionError{
				Scenario: s.Name,
				Expected: fmt.Sprintf("player %s final bank %d", player, want),
				Actual:   fmt.Sprintf("bank %d", got),
			}
		}
	}
	return nil
}

// assertSnapshots compares declared snapshot fields, subset semantics.
func assertSnapshots(s *Scenario, match reducer.MatchResult) error {
	byKey := map[string]econ.TeamSnapshot{}
	for _, snap := range match.Snapshots {
		byKey[fmt.Sprintf("%d/%s", snap.RoundNumber, snap.Team)] = snap
	}

	for _, expect := range s.Snapshots {
		snap, ok := byKey[fmt.Sprintf("%d/%s", expect.Round, expect.Team)]
		if !ok {
			return &AssertionError{
				Scenario: s.Name,
				Expected: fmt.Sprintf("snapshot for round %d team %s", expect.Round, expect.Team),
				Actual:   "no such snapshot",
			}
		}
		checks := []struct {
			name string
			want *int
			got  int
		}{
			{"bank_total_start", expect.BankTotalStart, snap.BankTotalStart},
			{"spend_sum", expect.SpendSum, snap.SpendSum},
			{"kill_reward_sum", expect.KillRewardSum, snap.KillRewardSum},
			{"win_reward", expect.WinReward, snap.WinReward},
			{"loss_bonus", expect.LossBonus, snap.LossBonus},
			{"plant_bonus_team", expect.PlantBonusTeam, snap.PlantBonusTeam},
			{"planter_bonus", expect.PlanterBonus, snap.PlanterBonus},
			{"defuse_bonus", expect.DefuseBonus, snap.DefuseBonus},
			{"bank_total_end", expect.BankTotalEnd, snap.BankTotalEnd},
		}
		for _, c := range checks {
			if c.want != nil && *c.want != c.got {
				return &AssertionError{
					Scenario: s.Name,
					Expected: fmt.Sprintf("round %d team %s %s = %d", expect.Round, expect.Team, c.name, *c.want),
					Actual:   fmt.Sprintf("%d", c.got),
				}
			}
		}
	}
	return nil
}
