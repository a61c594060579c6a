package store

import (
	"context"
	"fmt"

	"github.com/roach88/cs2econ/internal/econ"
	"github.com/roach88/cs2econ/internal/reducer"
)

// WriteEvents inserts events into the input table.
// Uses ON CONFLICT(event_id) DO NOTHING for idempotency: re-ingesting the
// same batch is a no-op, which is what makes at-least-once upstream
// delivery safe. Returns the number of rows actually inserted.
//
// Payloads are serialized to canonical JSON so identical payloads are
// byte-identical in storage.
func (s *Store) WriteEvents(ctx context.Context, events []econ.Event) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write events: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events
		(event_id, match_id, round_number, tick, type, actor_steamid,
		 victim_steamid, team, weapon, price, amount, payload,
		 ingest_source, ts_ingested)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("write events: prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, ev := range events {
		payload, err := econ.MarshalPayload(ev.Payload)
		if err != nil {
			return 0, fmt.Errorf("write event %s: %w", ev.EventID, err)
		}
		res, err := stmt.ExecContext(ctx,
			ev.EventID, ev.MatchID, ev.RoundNumber, ev.Tick, string(ev.Type),
			ev.ActorSteamID, ev.VictimSteamID, string(ev.Team), ev.Weapon,
			ev.Price, ev.Amount, payload, ev.IngestSource, ev.TSIngested,
		)
		if err != nil {
			return 0, fmt.Errorf("write event %s: %w", ev.EventID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("write event %s: %w", ev.EventID, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write events: commit: %w", err)
	}
	return inserted, nil
}

// WriteMatchResult replaces one match's output rows in a single
// transaction. Either all three tables reflect the new reduction or none
// do; a crash mid-write never leaves a match half-recomputed.
func (s *Store) WriteMatchResult(ctx context.Context, result reducer.MatchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write match result: begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"balances", "snapshots", "states"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE match_id = ?", table), result.MatchID); err != nil {
			return fmt.Errorf("write match result: clear %s: %w", table, err)
		}
	}

	for _, b := range result.Balances {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO balances
			(match_id, round_number, player_steamid, team, at, bank,
			 equipment_value, loss_streak, cap_hit, rules_version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			b.MatchID, b.RoundNumber, b.PlayerSteamID, string(b.Team),
			string(b.At), b.Bank, b.EquipmentValue, b.LossStreak, b.CapHit,
			b.RulesVersion,
		)
		if err != nil {
			return fmt.Errorf("write balance row: %w", err)
		}
	}

	for _, snap := range result.Snapshots {
		lineage, err := econ.MarshalCanonical(snap.InputsEventIDs)
		if err != nil {
			return fmt.Errorf("write snapshot lineage: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO snapshots
			(match_id, round_number, team, bank_total_start, equip_total_start,
			 spend_sum, kill_reward_sum, win_reward, loss_bonus,
			 plant_bonus_team, planter_bonus, defuse_bonus, bank_total_end,
			 equip_total_end, inputs_event_ids, checksum, rules_version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			snap.MatchID, snap.RoundNumber, string(snap.Team),
			snap.BankTotalStart, snap.EquipTotalStart, snap.SpendSum,
			snap.KillRewardSum, snap.WinReward, snap.LossBonus,
			snap.PlantBonusTeam, snap.PlanterBonus, snap.DefuseBonus,
			snap.BankTotalEnd, snap.EquipTotalEnd, string(lineage),
			snap.Checksum, snap.RulesVersion,
		)
		if err != nil {
			return fmt.Errorf("write snapshot row: %w", err)
		}
	}

	for _, st := range result.States {
		zero := 0
		if st.ZeroIncomeNextRound {
			zero = 1
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO states
			(match_id, round_number, team, player_steamid, loss_streak_after,
			 zero_income_next_round, rules_version)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			st.MatchID, st.RoundNumber, string(st.Team), st.PlayerSteamID,
			st.LossStreakAfter, zero, st.RulesVersion,
		)
		if err != nil {
			return fmt.Errorf("write state row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write match result: commit: %w", err)
	}
	return nil
}
