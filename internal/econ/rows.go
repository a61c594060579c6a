package econ

// Checkpoint marks which end of a round a balance record captures.
type Checkpoint string

const (
	AtStart Checkpoint = "start"
	AtEnd   Checkpoint = "end"
)

// BalanceRecord is one player's bank at one checkpoint of one round.
// Immutable once written; the unit of player-level audit trail.
type BalanceRecord struct {
	MatchID        string     `json:"match_id"`
	RoundNumber    int        `json:"round_number"`
	PlayerSteamID  string     `json:"player_steamid"`
	Team           Team       `json:"team"`
	At             Checkpoint `json:"at"`
	Bank           int        `json:"bank"`
	EquipmentValue int        `json:"equipment_value"`
	LossStreak     int        `json:"loss_streak"`

	// CapHit is 1 when clamping to [0, money_cap] changed the bank value.
	CapHit int `json:"cap_hit"`

	RulesVersion string `json:"rules_version"`
}

// TeamSnapshot aggregates one team's economics for one round, with full
// lineage and a checksum over it.
//
// The accounting identity holds exactly for every snapshot, pre-clamp:
//
//	BankTotalStart + WinReward + LossBonus + KillRewardSum +
//	PlanterBonus + DefuseBonus + PlantBonusTeam - SpendSum = BankTotalEnd
//
// When clamping occurred the end totals reflect the clamped banks and the
// affected balance records carry CapHit.
type TeamSnapshot struct {
	MatchID         string `json:"match_id"`
	RoundNumber     int    `json:"round_number"`
	Team            Team   `json:"team"`
	BankTotalStart  int    `json:"bank_total_start"`
	EquipTotalStart int    `json:"equip_total_start"`
	SpendSum        int    `json:"spend_sum"`
	KillRewardSum   int    `json:"kill_reward_sum"`
	WinReward       int    `json:"win_reward"`
	LossBonus       int    `json:"loss_bonus"`
	PlantBonusTeam  int    `json:"plant_bonus_team"`
	PlanterBonus    int    `json:"planter_bonus"`
	DefuseBonus     int    `json:"defuse_bonus"`
	BankTotalEnd    int    `json:"bank_total_end"`
	EquipTotalEnd   int    `json:"equip_total_end"`

	// InputsEventIDs is the sorted list of every event_id folded into this
	// snapshot, in other words the lineage.
	InputsEventIDs []string `json:"inputs_event_ids"`

	// Checksum is SnapshotChecksum(InputsEventIDs, RulesVersion).
	Checksum string `json:"checksum"`

	RulesVersion string `json:"rules_version"`
}

// StateRow persists the cross-round carried state after a round: either a
// team's loss streak or a player's zero-income flag, never both.
type StateRow struct {
	MatchID     string `json:"match_id"`
	RoundNumber int    `json:"round_number"`

	// Team is set for team rows, empty for player rows.
	Team Team `json:"team,omitempty"`

	// PlayerSteamID is set for player rows, empty for team rows.
	PlayerSteamID string `json:"player_steamid,omitempty"`

	LossStreakAfter     int  `json:"loss_streak_after"`
	ZeroIncomeNextRound bool `json:"zero_income_next_round"`

	RulesVersion string `json:"rules_version"`
}

// PlayerState is the per-player economic state carried across rounds.
type PlayerState struct {
	SteamID        string
	Team           Team
	Bank           int
	EquipmentValue int

	// ZeroIncomeNextRound is set when the player (T side) died after the
	// round timer expired with the bomb unplanted. Consumed and cleared at
	// the start of the following round; it gates that round's loss-bonus
	// payout for the player.
	ZeroIncomeNextRound bool
}

// TeamState is the per-team economic state carried across rounds.
type TeamState struct {
	Team Team

	// LossStreak counts consecutive rounds lost; indexes the loss-bonus
	// ladder and resets to 0 on a win.
	LossStreak int
}
