package reducer

import (
	"github.com/roach88/cs2econ/internal/econ"
	"github.com/roach88/cs2econ/internal/rules"
)

// MatchResult holds every output row for one match.
type MatchResult struct {
	MatchID   string
	Balances  []econ.BalanceRecord
	Snapshots []econ.TeamSnapshot
	States    []econ.StateRow
}

// ReduceMatch folds ReduceRound over all rounds of one match in ascending
// round order, threading team and player state forward.
//
// The fold is inherently sequential: round N's output state is required
// input to round N+1, so there is no parallelism within a match. A failed
// round fails the whole match: later rounds cannot be reduced without the
// state the failed round would have produced, and partial economic history
// is not a safe output.
func ReduceMatch(groups []econ.RoundEvents, r rules.Rules) (MatchResult, error) {
	var result MatchResult
	if len(groups) == 0 {
		return result, nil
	}
	result.MatchID = groups[0].MatchID

	teams := make(map[econ.Team]econ.TeamState)
	players := make(map[string]econ.PlayerState)

	for _, round := range groups {
		rr, err := ReduceRound(teams, players, round, r)
		if err != nil {
			return MatchResult{}, err
		}

		result.Balances = append(result.Balances, rr.Balances...)
		result.Snapshots = append(result.Snapshots, rr.Snapshots...)

		teams = rr.Teams
		players = rr.Players

		// Persist the carried state after each round: this is what makes
		// resume-from-round-N possible for coarse checkpointing.
		for _, t := range []econ.Team{econ.TeamCT, econ.TeamT} {
			result.States = append(result.States, econ.StateRow{
				MatchID:         round.MatchID,
				RoundNumber:     round.RoundNumber,
				Team:            t,
				LossStreakAfter: teams[t].LossStreak,
				RulesVersion:    r.Version,
			})
		}
		for _, id := range sortedPlayerIDs(players) {
			result.States = append(result.States, econ.StateRow{
				MatchID:             round.MatchID,
				RoundNumber:         round.RoundNumber,
				PlayerSteamID:       id,
				ZeroIncomeNextRound: players[id].ZeroIncomeNextRound,
				RulesVersion:        r.Version,
			})
		}
	}

	return result, nil
}

// ReduceMatchEvents orders raw events and reduces the resulting rounds.
// This is the entry point callers with an unordered event collection use;
// sorting and validation happen here regardless of upstream order.
func ReduceMatchEvents(events []econ.Event, r rules.Rules) (MatchResult, error) {
	groups, err := econ.OrderEvents(events)
	if err != nil {
		return MatchResult{}, err
	}
	return ReduceMatch(groups, r)
}
