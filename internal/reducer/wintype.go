package reducer

import (
	"github.com/roach88/cs2econ/internal/econ"
)

// resolveOutcome determines the round's winner and win type. One
// deterministic rule, applied in strict priority order:
//
//  1. explicit payload fields on the round_end event,
//  2. a defuse event this round implies (CT, ct_defuse),
//  3. a plant with no defuse implies (T, t_bomb_explosion); a planted
//     bomb that was not defused can only have detonated,
//  4. otherwise elimination, with the winner taken from the payload.
//
// When none of the above can name a winner the round is unresolvable and
// that is a data integrity problem, not a guess to make.
func (f *roundFold) resolveOutcome() (econ.Team, econ.WinType, error) {
	winner := f.payload.Winner
	haveWinner := f.payload.HasWinner

	if !haveWinner {
		switch {
		case f.defused:
			winner = econ.TeamCT
			haveWinner = true
		case f.planted:
			winner = econ.TeamT
			haveWinner = true
		}
	}
	if !haveWinner {
		return "", "", econ.NewDataIntegrityError(f.matchID, f.number, "",
			"round_end without winner and no objective event to infer one from")
	}

	if f.payload.HasWinType {
		return winner, f.payload.WinType, nil
	}

	switch {
	case f.defused:
		return winner, econ.WinCTDefuse, nil
	case f.planted:
		return winner, econ.WinTBombExplosion, nil
	default:
		// Elimination and CT-time-expiry are indistinguishable from the
		// economic event stream alone; elimination is the documented
		// default when the payload is silent.
		return winner, econ.WinElimination, nil
	}
}
