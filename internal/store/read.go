package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/cs2econ/internal/econ"
)

// ReadMatchEvents returns all events for one match in the canonical total
// order: (match_id, round_number, tick, event_id) ascending. Insertion
// order is deliberately ignored; event_id ties break with COLLATE BINARY
// so the ordering is byte-wise stable.
//
// Returns an empty slice (not nil) if no events exist for the match.
func (s *Store) ReadMatchEvents(ctx context.Context, matchID string) ([]econ.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, match_id, round_number, tick, type, actor_steamid,
		       victim_steamid, team, weapon, price, amount, payload,
		       ingest_source, ts_ingested
		FROM events
		WHERE match_id = ?
		ORDER BY round_number ASC, tick ASC, event_id COLLATE BINARY ASC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []econ.Event{}
	for rows.Next() {
		var ev econ.Event
		var typ, team, payload string
		err := rows.Scan(
			&ev.EventID, &ev.MatchID, &ev.RoundNumber, &ev.Tick, &typ,
			&ev.ActorSteamID, &ev.VictimSteamID, &team, &ev.Weapon,
			&ev.Price, &ev.Amount, &payload, &ev.IngestSource, &ev.TSIngested,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Type = econ.EventType(typ)
		ev.Team = econ.Team(team)
		ev.Payload, err = econ.UnmarshalPayload(payload)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.EventID, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ReadSnapshots returns one match's persisted team snapshots in
// deterministic order. An optional round filter narrows to one round;
// pass 0 for all rounds.
//
// Returns an empty slice (not nil) if no snapshots exist for the match.
func (s *Store) ReadSnapshots(ctx context.Context, matchID string, round int) ([]econ.TeamSnapshot, error) {
	query := `
		SELECT match_id, round_number, team, bank_total_start,
		       equip_total_start, spend_sum, kill_reward_sum, win_reward,
		       loss_bonus, plant_bonus_team, planter_bonus, defuse_bonus,
		       bank_total_end, equip_total_end, inputs_event_ids, checksum,
		       rules_version
		FROM snapshots
		WHERE match_id = ?`
	args := []any{matchID}
	if round > 0 {
		query += " AND round_number = ?"
		args = append(args, round)
	}
	query += " ORDER BY round_number ASC, team COLLATE BINARY ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []econ.TeamSnapshot{}
	for rows.Next() {
		var snap econ.TeamSnapshot
		var team, lineage string
		err := rows.Scan(
			&snap.MatchID, &snap.RoundNumber, &team, &snap.BankTotalStart,
			&snap.EquipTotalStart, &snap.SpendSum, &snap.KillRewardSum,
			&snap.WinReward, &snap.LossBonus, &snap.PlantBonusTeam,
			&snap.PlanterBonus, &snap.DefuseBonus, &snap.BankTotalEnd,
			&snap.EquipTotalEnd, &lineage, &snap.Checksum, &snap.RulesVersion,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Team = econ.Team(team)
		if err := json.Unmarshal([]byte(lineage), &snap.InputsEventIDs); err != nil {
			return nil, fmt.Errorf("snapshot lineage for round %d: %w", snap.RoundNumber, err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snapshots, nil
}

// ReadBalances returns one match's balance records in deterministic order.
func (s *Store) ReadBalances(ctx context.Context, matchID string) ([]econ.BalanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, round_number, player_steamid, team, at, bank,
		       equipment_value, loss_streak, cap_hit, rules_version
		FROM balances
		WHERE match_id = ?
		ORDER BY round_number ASC, at DESC, player_steamid COLLATE BINARY ASC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("query balances: %w", err)
	}
	defer rows.Close()

	balances := []econ.BalanceRecord{}
	for rows.Next() {
		var b econ.BalanceRecord
		var team, at string
		err := rows.Scan(
			&b.MatchID, &b.RoundNumber, &b.PlayerSteamID, &team, &at,
			&b.Bank, &b.EquipmentValue, &b.LossStreak, &b.CapHit,
			&b.RulesVersion,
		)
		if err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		b.Team = econ.Team(team)
		b.At = econ.Checkpoint(at)
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balances: %w", err)
	}
	return balances, nil
}
