// Package reducer implements the deterministic CS2 economy fold: per-round
// reduction of ordered events into balance records and team snapshots, the
// sequential match driver that threads state across rounds, and the batch
// driver that runs independent matches concurrently.
package reducer

import (
	"fmt"
	"sort"

	"github.com/roach88/cs2econ/internal/econ"
	"github.com/roach88/cs2econ/internal/rules"
)

// RoundResult is the output of reducing one round.
type RoundResult struct {
	Balances  []econ.BalanceRecord
	Snapshots []econ.TeamSnapshot
	Teams     map[econ.Team]econ.TeamState
	Players   map[string]econ.PlayerState

	// EventIDs is the sorted distinct lineage for this round.
	EventIDs []string
}

// roundMetrics accumulates one team's per-round snapshot sums while the
// fold runs. All payouts are team totals actually applied, which is what
// makes the accounting identity hold exactly.
type roundMetrics struct {
	spendSum       int
	killRewardSum  int
	winReward      int
	lossBonus      int
	plantBonusTeam int
	planterBonus   int
	defuseBonus    int
	bankStart      int
	equipStart     int
}

// ReduceRound folds one round's ordered events over the carried state and
// produces new state plus the round's output rows.
//
// It is a pure function of its inputs: callers keep ownership of the
// previous state maps, which are never mutated. Any error discards the
// round entirely (all-or-nothing) and identifies the offending event.
func ReduceRound(
	prevTeams map[econ.Team]econ.TeamState,
	prevPlayers map[string]econ.PlayerState,
	round econ.RoundEvents,
	r rules.Rules,
) (RoundResult, error) {
	if len(round.Events) == 0 {
		return RoundResult{}, econ.NewDataIntegrityError(round.MatchID, round.RoundNumber, "",
			"round with no events")
	}

	teams := copyTeams(prevTeams)
	players := copyPlayers(prevPlayers)

	// Register first appearances and refresh team assignment (halftime
	// side swaps arrive as a changed team on the player's events).
	for _, ev := range round.Events {
		if ev.Team != "" && ev.Team != econ.TeamT && ev.Team != econ.TeamCT {
			return RoundResult{}, econ.NewDataIntegrityError(round.MatchID, round.RoundNumber, ev.EventID,
				fmt.Sprintf("unrecognized team %q", ev.Team))
		}
		if ev.Team == econ.TeamT || ev.Team == econ.TeamCT {
			if _, ok := teams[ev.Team]; !ok {
				teams[ev.Team] = econ.TeamState{Team: ev.Team}
			}
		}
		if ev.ActorSteamID == "" {
			continue
		}
		if p, ok := players[ev.ActorSteamID]; ok {
			if ev.Team != "" && ev.Team != p.Team {
				p.Team = ev.Team
				players[ev.ActorSteamID] = p
			}
			continue
		}
		if ev.Team != econ.TeamT && ev.Team != econ.TeamCT {
			return RoundResult{}, econ.NewDataIntegrityError(round.MatchID, round.RoundNumber, ev.EventID,
				fmt.Sprintf("first appearance of player %s without a team", ev.ActorSteamID))
		}
		players[ev.ActorSteamID] = econ.PlayerState{
			SteamID: ev.ActorSteamID,
			Team:    ev.Team,
			Bank:    r.StartMoney,
		}
	}
	for _, t := range []econ.Team{econ.TeamCT, econ.TeamT} {
		if _, ok := teams[t]; !ok {
			teams[t] = econ.TeamState{Team: t}
		}
	}

	// Consume pending zero-income flags into this round's gate set and
	// reset per-round equipment. The flag is carried state only: it gates
	// the loss-bonus payout below, it never invents new payouts.
	zeroIncome := make(map[string]bool)
	for id, p := range players {
		if p.ZeroIncomeNextRound {
			zeroIncome[id] = true
			p.ZeroIncomeNextRound = false
		}
		p.EquipmentValue = 0
		players[id] = p
	}

	metrics := map[econ.Team]*roundMetrics{
		econ.TeamCT: {},
		econ.TeamT:  {},
	}

	var balances []econ.BalanceRecord
	for _, id := range sortedPlayerIDs(players) {
		p := players[id]
		metrics[p.Team].bankStart += p.Bank
		metrics[p.Team].equipStart += p.EquipmentValue
		balances = append(balances, econ.BalanceRecord{
			MatchID:        round.MatchID,
			RoundNumber:    round.RoundNumber,
			PlayerSteamID:  id,
			Team:           p.Team,
			At:             econ.AtStart,
			Bank:           p.Bank,
			EquipmentValue: p.EquipmentValue,
			LossStreak:     teams[p.Team].LossStreak,
			RulesVersion:   r.Version,
		})
	}

	fold := &roundFold{
		matchID: round.MatchID,
		number:  round.RoundNumber,
		players: players,
		metrics: metrics,
		rules:   r,
	}
	for _, ev := range round.Events {
		if err := fold.apply(ev); err != nil {
			return RoundResult{}, err
		}
	}
	if !fold.sawRoundEnd {
		return RoundResult{}, econ.NewDataIntegrityError(round.MatchID, round.RoundNumber, "",
			"round has no round_end event")
	}

	winner, winType, err := fold.resolveOutcome()
	if err != nil {
		return RoundResult{}, err
	}

	if err := applyRoundEnd(fold, teams, zeroIncome, winner, winType); err != nil {
		return RoundResult{}, err
	}

	// Carry the flags set during this round into the next.
	for id := range fold.pendingZeroIncome {
		p := players[id]
		p.ZeroIncomeNextRound = true
		players[id] = p
	}

	// Accounting identity, checked pre-clamp. A mismatch here is a logic
	// bug and must surface, never be absorbed into output rows.
	preClampEnd := map[econ.Team]int{}
	for _, p := range players {
		preClampEnd[p.Team] += p.Bank
	}
	for t, m := range metrics {
		want := m.bankStart + m.winReward + m.lossBonus + m.killRewardSum +
			m.planterBonus + m.defuseBonus + m.plantBonusTeam - m.spendSum
		if got := preClampEnd[t]; got != want {
			return RoundResult{}, econ.NewInvariantViolation(round.MatchID, round.RoundNumber, "",
				fmt.Sprintf("accounting identity mismatch for team %s: expected %d, got %d", t, want, got))
		}
	}

	// Clamp banks to [0, money_cap] and record cap hits.
	capHit := make(map[string]bool)
	for id, p := range players {
		clamped := r.ClampMoney(p.Bank)
		if clamped != p.Bank {
			capHit[id] = true
			p.Bank = clamped
			players[id] = p
		}
	}

	bankEnd := map[econ.Team]int{}
	equipEnd := map[econ.Team]int{}
	for _, id := range sortedPlayerIDs(players) {
		p := players[id]
		bankEnd[p.Team] += p.Bank
		equipEnd[p.Team] += p.EquipmentValue
		rec := econ.BalanceRecord{
			MatchID:        round.MatchID,
			RoundNumber:    round.RoundNumber,
			PlayerSteamID:  id,
			Team:           p.Team,
			At:             econ.AtEnd,
			Bank:           p.Bank,
			EquipmentValue: p.EquipmentValue,
			LossStreak:     teams[p.Team].LossStreak,
			RulesVersion:   r.Version,
		}
		if capHit[id] {
			rec.CapHit = 1
		}
		balances = append(balances, rec)
	}

	eventIDs := lineage(round.Events)
	checksum := econ.SnapshotChecksum(eventIDs, r.Version)

	var snapshots []econ.TeamSnapshot
	for _, t := range []econ.Team{econ.TeamCT, econ.TeamT} {
		m := metrics[t]
		snapshots = append(snapshots, econ.TeamSnapshot{
			MatchID:         round.MatchID,
			RoundNumber:     round.RoundNumber,
			Team:            t,
			BankTotalStart:  m.bankStart,
			EquipTotalStart: m.equipStart,
			SpendSum:        m.spendSum,
			KillRewardSum:   m.killRewardSum,
			WinReward:       m.winReward,
			LossBonus:       m.lossBonus,
			PlantBonusTeam:  m.plantBonusTeam,
			PlanterBonus:    m.planterBonus,
			DefuseBonus:     m.defuseBonus,
			BankTotalEnd:    bankEnd[t],
			EquipTotalEnd:   equipEnd[t],
			InputsEventIDs:  eventIDs,
			Checksum:        checksum,
			RulesVersion:    r.Version,
		})
	}

	return RoundResult{
		Balances:  balances,
		Snapshots: snapshots,
		Teams:     teams,
		Players:   players,
		EventIDs:  eventIDs,
	}, nil
}

// roundFold tracks within-round working state while events are applied.
type roundFold struct {
	matchID string
	number  int
	players map[string]econ.PlayerState
	metrics map[econ.Team]*roundMetrics
	rules   rules.Rules

	planted     bool
	plantedSite string
	planterID   string
	defused     bool
	defuserID   string

	sawRoundEnd bool
	payload     econ.Payload

	pendingZeroIncome map[string]bool
}

func (f *roundFold) apply(ev econ.Event) error {
	switch ev.Type {
	case econ.EventRoundStart:
		return nil
	case econ.EventBuy:
		return f.applyBuy(ev)
	case econ.EventKill:
		return f.applyReward(ev, "kill")
	case econ.EventAssist:
		return f.applyReward(ev, "assist")
	case econ.EventPlant:
		return f.applyPlant(ev)
	case econ.EventDefuse:
		return f.applyDefuse(ev)
	case econ.EventMoney:
		return f.applyMoney(ev)
	case econ.EventDeathAfterTime:
		return f.applyDeathAfterTime(ev)
	case econ.EventRoundEnd:
		return f.applyRoundEndEvent(ev)
	default:
		return econ.NewDataIntegrityError(f.matchID, f.number, ev.EventID,
			fmt.Sprintf("unhandled event type %q", ev.Type))
	}
}

func (f *roundFold) player(ev econ.Event) (econ.PlayerState, error) {
	p, ok := f.players[ev.ActorSteamID]
	if !ok {
		return econ.PlayerState{}, econ.NewDataIntegrityError(f.matchID, f.number, ev.EventID,
			fmt.Sprintf("%s event for unknown player %q", ev.Type, ev.ActorSteamID))
	}
	return p, nil
}

func (f *roundFold) applyBuy(ev econ.Event) error {
	p, err := f.player(ev)
	if err != nil {
		return err
	}
	if ev.Price < 0 {
		return econ.NewDataIntegrityError(f.matchID, f.number, ev.EventID,
			fmt.Sprintf("buy event with negative price %d", ev.Price))
	}
	if ev.Price == 0 {
		return nil
	}
	if p.Bank-ev.Price < 0 {
		// A purchase the player cannot afford is upstream data corruption,
		// not a valid game state. Abort the round rather than clamp.
		return econ.NewInvariantViolation(f.matchID, f.number, ev.EventID,
			fmt.Sprintf("buy of %d would drive bank %d negative for player %s", ev.Price, p.Bank, p.SteamID))
	}
	p.Bank -= ev.Price
	p.EquipmentValue += ev.Price
	f.players[p.SteamID] = p
	f.metrics[p.Team].spendSum += ev.Price
	return nil
}

// applyReward credits the kill (or assist) reward to the actor. Assists pay
// the explicit AssistReward, currently 0: they stay in the lineage but move
// no currency until the ruleset defines a distinct amount.
func (f *roundFold) applyReward(ev econ.Event, kind string) error {
	p, err := f.player(ev)
	if err != nil {
		return err
	}
	var reward int
	if kind == "assist" {
		reward = f.rules.AssistReward
	} else {
		reward, err = f.rules.KillRewardFor(ev.Weapon)
		if err != nil {
			return &econ.EconError{
				Code:        econ.CodeConfiguration,
				Message:     err.Error(),
				MatchID:     f.matchID,
				RoundNumber: f.number,
				EventID:     ev.EventID,
			}
		}
	}
	p.Bank += reward
	f.players[p.SteamID] = p
	f.metrics[p.Team].killRewardSum += reward
	return nil
}

func (f *roundFold) applyPlant(ev econ.Event) error {
	p, err := f.player(ev)
	if err != nil {
		return err
	}
	f.planted = true
	f.planterID = p.SteamID
	pl, err := econ.ParsePayload(ev)
	if err != nil {
		return err
	}
	if pl.PlantedSite != "" {
		f.plantedSite = pl.PlantedSite
	}
	// No immediate payout: the planter bonus resolves at round end against
	// the eventual winner.
	return nil
}

func (f *roundFold) applyDefuse(ev econ.Event) error {
	p, err := f.player(ev)
	if err != nil {
		return err
	}
	f.defused = true
	f.defuserID = p.SteamID
	p.Bank += f.rules.ActorObjectiveBonus
	f.players[p.SteamID] = p
	f.metrics[p.Team].defuseBonus += f.rules.ActorObjectiveBonus
	return nil
}

func (f *roundFold) applyMoney(ev econ.Event) error {
	p, err := f.player(ev)
	if err != nil {
		return err
	}
	if p.Bank+ev.Amount < 0 {
		return econ.NewInvariantViolation(f.matchID, f.number, ev.EventID,
			fmt.Sprintf("money delta %d would drive bank %d negative for player %s", ev.Amount, p.Bank, p.SteamID))
	}
	p.Bank += ev.Amount
	f.players[p.SteamID] = p
	// Explicit adjustments are accounted as negative spend so the snapshot
	// identity stays exact without an extra column.
	f.metrics[p.Team].spendSum -= ev.Amount
	return nil
}

func (f *roundFold) applyDeathAfterTime(ev econ.Event) error {
	p, err := f.player(ev)
	if err != nil {
		return err
	}
	// Only a T death after the timer with the bomb still unplanted forfeits
	// next round's loss bonus.
	if p.Team != econ.TeamT || f.planted {
		return nil
	}
	if f.pendingZeroIncome == nil {
		f.pendingZeroIncome = make(map[string]bool)
	}
	f.pendingZeroIncome[p.SteamID] = true
	return nil
}

func (f *roundFold) applyRoundEndEvent(ev econ.Event) error {
	if f.sawRoundEnd {
		return econ.NewDataIntegrityError(f.matchID, f.number, ev.EventID,
			"multiple round_end events in one round")
	}
	pl, err := econ.ParsePayload(ev)
	if err != nil {
		return err
	}
	f.sawRoundEnd = true
	f.payload = pl
	return nil
}

// applyRoundEnd distributes win rewards, loss bonuses, and objective
// bonuses, then updates loss streaks.
func applyRoundEnd(
	f *roundFold,
	teams map[econ.Team]econ.TeamState,
	zeroIncome map[string]bool,
	winner econ.Team,
	winType econ.WinType,
) error {
	winReward, err := f.rules.WinRewardFor(winType)
	if err != nil {
		return &econ.EconError{
			Code:        econ.CodeConfiguration,
			Message:     err.Error(),
			MatchID:     f.matchID,
			RoundNumber: f.number,
		}
	}
	loser := econ.TeamT
	if winner == econ.TeamT {
		loser = econ.TeamCT
	}
	lossBonus := f.rules.LossBonusFor(teams[loser].LossStreak)

	for _, id := range sortedPlayerIDs(f.players) {
		p := f.players[id]
		switch p.Team {
		case winner:
			p.Bank += winReward
			f.metrics[winner].winReward += winReward
		case loser:
			// Zero-income players carried the flag into this round and are
			// not counted in the loss-bonus payout.
			if !zeroIncome[id] {
				p.Bank += lossBonus
				f.metrics[loser].lossBonus += lossBonus
			}
		}
		f.players[id] = p
	}

	if f.planted && f.planterID != "" {
		p := f.players[f.planterID]
		p.Bank += f.rules.ActorObjectiveBonus
		f.players[f.planterID] = p
		f.metrics[p.Team].planterBonus += f.rules.ActorObjectiveBonus
	}

	// Plant consolation: T planted and did not win the round. Gating on
	// "winner != T" is what prevents double-paying a T explosion win.
	if f.planted && winner != econ.TeamT {
		for _, id := range sortedPlayerIDs(f.players) {
			p := f.players[id]
			if p.Team != econ.TeamT {
				continue
			}
			p.Bank += f.rules.TPlantTeamBonusOnLoss
			f.players[id] = p
			f.metrics[econ.TeamT].plantBonusTeam += f.rules.TPlantTeamBonusOnLoss
		}
	}

	ws := teams[winner]
	ws.LossStreak = 0
	teams[winner] = ws
	ls := teams[loser]
	ls.LossStreak++
	teams[loser] = ls

	return nil
}

func copyTeams(in map[econ.Team]econ.TeamState) map[econ.Team]econ.TeamState {
	out := make(map[econ.Team]econ.TeamState, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyPlayers(in map[string]econ.PlayerState) map[string]econ.PlayerState {
	out := make(map[string]econ.PlayerState, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedPlayerIDs(players map[string]econ.PlayerState) []string {
	ids := make([]string, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// lineage returns the sorted distinct event IDs of a round.
func lineage(events []econ.Event) []string {
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.EventID)
	}
	sort.Strings(ids)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if len(out) == 0 || out[len(out)-1] != id {
			out = append(out, id)
		}
	}
	return out
}
