// Package rules supplies the CS2 economic constants as a single immutable
// value tagged with a version string.
//
// Everything here is a pure function of a Rules value: no hidden globals,
// so multiple rules versions can coexist for historical replays and a
// Rules value is safely shared across concurrent match workers.
package rules

import (
	"fmt"
	"strings"

	"github.com/roach88/cs2econ/internal/econ"
)

// Rules holds every monetary constant the reducer consumes. Changing any
// constant requires a new Version string; outputs produced under an old
// version stay valid and interpretable under it.
type Rules struct {
	// Money constraints.
	MoneyCap   int `json:"money_cap"`
	StartMoney int `json:"start_money"`

	// Kill rewards by weapon category.
	KnifeReward          int `json:"knife_reward"`
	SMGDefaultReward     int `json:"smg_default_reward"`
	P90Reward            int `json:"p90_reward"`
	ShotgunDefaultReward int `json:"shotgun_default_reward"`
	XM1014Reward         int `json:"xm1014_reward"`
	RifleReward          int `json:"rifle_reward"`
	PistolReward         int `json:"pistol_reward"`
	GrenadeReward        int `json:"grenade_reward"`
	AWPReward            int `json:"awp_reward"`
	ZeusReward           int `json:"zeus_reward"`

	// AssistReward is kept explicit at 0: the target ruleset defines no
	// distinct assist payout, so assists are lineage-only. A future
	// correction is a one-line change here plus a version bump.
	AssistReward int `json:"assist_reward"`

	// Win rewards by condition.
	EliminationReward          int `json:"elimination_reward"`
	TBombExplosionReward       int `json:"t_bomb_explosion_reward"`
	CTDefuseReward             int `json:"ct_defuse_reward"`
	CTTimeExpiredNoPlantReward int `json:"ct_time_expired_no_plant_reward"`

	// LossBonusLadder is indexed by loss streak - 1 and clamped at the
	// final entry for longer streaks.
	LossBonusLadder []int `json:"loss_bonus_ladder"`

	// Objective bonuses.
	TPlantTeamBonusOnLoss int `json:"t_plant_team_bonus_on_loss"`
	ActorObjectiveBonus   int `json:"actor_objective_bonus"`

	// Version tags every output row produced under these constants.
	Version string `json:"version"`
}

// Default returns the compiled-in ruleset.
func Default() Rules {
	return Rules{
		MoneyCap:   16000,
		StartMoney: 800,

		KnifeReward:          1500,
		SMGDefaultReward:     600,
		P90Reward:            300,
		ShotgunDefaultReward: 900,
		XM1014Reward:         600,
		RifleReward:          300,
		PistolReward:         300,
		GrenadeReward:        300,
		AWPReward:            100,
		ZeusReward:           100,
		AssistReward:         0,

		EliminationReward:          3250,
		TBombExplosionReward:       3500,
		CTDefuseReward:             3500,
		CTTimeExpiredNoPlantReward: 3250,

		LossBonusLadder: []int{1400, 1900, 2400, 2900, 3400},

		TPlantTeamBonusOnLoss: 800,
		ActorObjectiveBonus:   300,

		Version: "2025_09",
	}
}

// KillRewardFor maps a weapon identifier to its reward category and returns
// the associated payout. An unmapped or empty weapon is a CONFIGURATION
// error: silently defaulting would hide a rules-table gap behind wrong
// balances.
func (r Rules) KillRewardFor(weapon string) (int, error) {
	w := strings.ToLower(weapon)
	if w == "" {
		return 0, &econ.EconError{
			Code:    econ.CodeConfiguration,
			Message: "kill event with empty weapon",
		}
	}

	// Special cases take precedence over category membership.
	switch w {
	case "p90":
		return r.P90Reward, nil
	case "xm1014":
		return r.XM1014Reward, nil
	case "awp":
		return r.AWPReward, nil
	case "zeus", "taser":
		return r.ZeusReward, nil
	}

	switch {
	case knifeWeapons[w]:
		return r.KnifeReward, nil
	case smgWeapons[w]:
		return r.SMGDefaultReward, nil
	case shotgunWeapons[w]:
		return r.ShotgunDefaultReward, nil
	case rifleWeapons[w]:
		return r.RifleReward, nil
	case pistolWeapons[w]:
		return r.PistolReward, nil
	case grenadeWeapons[w]:
		return r.GrenadeReward, nil
	}

	return 0, &econ.EconError{
		Code:    econ.CodeConfiguration,
		Message: fmt.Sprintf("unmapped weapon %q", weapon),
	}
}

// WinRewardFor returns the payout for a round win condition.
func (r Rules) WinRewardFor(wt econ.WinType) (int, error) {
	switch wt {
	case econ.WinElimination:
		return r.EliminationReward, nil
	case econ.WinTBombExplosion:
		return r.TBombExplosionReward, nil
	case econ.WinCTDefuse:
		return r.CTDefuseReward, nil
	case econ.WinCTTimeExpired:
		return r.CTTimeExpiredNoPlantReward, nil
	default:
		return 0, &econ.EconError{
			Code:    econ.CodeConfiguration,
			Message: fmt.Sprintf("no win reward defined for win_type %q", wt),
		}
	}
}

// LossBonusFor indexes the loss-bonus ladder by the streak counted before
// the loss being paid out: streak 0 pays the first rung, and streaks past
// the end of the ladder clamp to the final rung.
func (r Rules) LossBonusFor(streak int) int {
	if len(r.LossBonusLadder) == 0 {
		return 0
	}
	if streak < 0 {
		streak = 0
	}
	if streak >= len(r.LossBonusLadder) {
		streak = len(r.LossBonusLadder) - 1
	}
	return r.LossBonusLadder[streak]
}

// ClampMoney clamps an amount to [0, MoneyCap].
func (r Rules) ClampMoney(amount int) int {
	if amount < 0 {
		return 0
	}
	if amount > r.MoneyCap {
		return r.MoneyCap
	}
	return amount
}

// Validate checks structural sanity of a loaded ruleset.
func (r Rules) Validate() error {
	if r.Version == "" {
		return &econ.EconError{Code: econ.CodeConfiguration, Message: "rules version must not be empty"}
	}
	if r.MoneyCap <= 0 {
		return &econ.EconError{Code: econ.CodeConfiguration, Message: "money_cap must be positive"}
	}
	if r.StartMoney < 0 || r.StartMoney > r.MoneyCap {
		return &econ.EconError{Code: econ.CodeConfiguration, Message: "start_money must be within [0, money_cap]"}
	}
	if len(r.LossBonusLadder) == 0 {
		return &econ.EconError{Code: econ.CodeConfiguration, Message: "loss_bonus_ladder must not be empty"}
	}
	for i, v := range r.LossBonusLadder {
		if v < 0 {
			return &econ.EconError{
				Code:    econ.CodeConfiguration,
				Message: fmt.Sprintf("loss_bonus_ladder[%d] must not be negative", i),
			}
		}
	}
	return nil
}
