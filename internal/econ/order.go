package econ

import (
	"fmt"
	"sort"
)

// RoundEvents is one round's worth of events in canonical processing order.
type RoundEvents struct {
	MatchID     string
	RoundNumber int
	Events      []Event
}

// OrderEvents normalizes an unordered collection of one match's events into
// the canonical per-round processing order.
//
// The total order is (match_id, round_number, tick, event_id) ascending.
// Upstream arrival order is never trusted; this is the single point where
// "trust but verify" is applied to producer data.
//
// Fails with a DATA_INTEGRITY error if:
//   - two events share an event_id with differing field values,
//   - a round number gap exists after sorting (missing round upstream),
//   - events from more than one match are mixed into the collection.
//
// Exact duplicate events (same event_id, identical fields) are collapsed
// to one occurrence; re-delivery from an at-least-once source is not an
// integrity problem.
func OrderEvents(events []Event) ([]RoundEvents, error) {
	if len(events) == 0 {
		return nil, nil
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.MatchID != b.MatchID {
			return a.MatchID < b.MatchID
		}
		if a.RoundNumber != b.RoundNumber {
			return a.RoundNumber < b.RoundNumber
		}
		if a.Tick != b.Tick {
			return a.Tick < b.Tick
		}
		return a.EventID < b.EventID
	})

	matchID := sorted[0].MatchID
	for _, ev := range sorted {
		if ev.MatchID != matchID {
			return nil, NewDataIntegrityError(matchID, 0, ev.EventID,
				fmt.Sprintf("events from multiple matches in one collection (%q and %q)", matchID, ev.MatchID))
		}
		if ev.RoundNumber < 1 {
			return nil, NewDataIntegrityError(matchID, ev.RoundNumber, ev.EventID,
				fmt.Sprintf("round_number %d out of range", ev.RoundNumber))
		}
		if !IsValidEventType(ev.Type) {
			return nil, NewDataIntegrityError(matchID, ev.RoundNumber, ev.EventID,
				fmt.Sprintf("unrecognized event type %q", ev.Type))
		}
		if ev.EventID == "" {
			return nil, NewDataIntegrityError(matchID, ev.RoundNumber, "",
				"event with empty event_id")
		}
		if ev.Team != "" && ev.Team != TeamT && ev.Team != TeamCT {
			return nil, NewDataIntegrityError(matchID, ev.RoundNumber, ev.EventID,
				fmt.Sprintf("unrecognized team %q", ev.Team))
		}
	}

	deduped, err := dedupe(sorted)
	if err != nil {
		return nil, err
	}

	// Group contiguous runs by round number. Sorting guarantees each round
	// occupies one run; a non-monotonic step at this point is impossible,
	// so only gaps remain to check.
	var groups []RoundEvents
	for _, ev := range deduped {
		if len(groups) == 0 || groups[len(groups)-1].RoundNumber != ev.RoundNumber {
			groups = append(groups, RoundEvents{
				MatchID:     ev.MatchID,
				RoundNumber: ev.RoundNumber,
			})
		}
		g := &groups[len(groups)-1]
		g.Events = append(g.Events, ev)
	}

	// A match's economic history is only meaningful from round 1; state
	// threading from a later round would start everyone on fresh banks.
	if groups[0].RoundNumber != 1 {
		return nil, NewDataIntegrityError(matchID, groups[0].RoundNumber, "",
			fmt.Sprintf("match history starts at round %d, round 1 missing", groups[0].RoundNumber))
	}
	for i := 1; i < len(groups); i++ {
		if groups[i].RoundNumber != groups[i-1].RoundNumber+1 {
			return nil, NewDataIntegrityError(matchID, groups[i].RoundNumber, "",
				fmt.Sprintf("round gap: round %d follows round %d", groups[i].RoundNumber, groups[i-1].RoundNumber))
		}
	}

	return groups, nil
}

// dedupe collapses exact duplicate event IDs and rejects conflicting ones.
// Input must already be sorted, so duplicates are adjacent.
func dedupe(sorted []Event) ([]Event, error) {
	out := sorted[:0:0]
	for _, ev := range sorted {
		if len(out) > 0 && out[len(out)-1].EventID == ev.EventID {
			prev := out[len(out)-1]
			if !sameEvent(prev, ev) {
				return nil, NewDataIntegrityError(ev.MatchID, ev.RoundNumber, ev.EventID,
					"duplicate event_id with conflicting field values")
			}
			continue
		}
		out = append(out, ev)
	}

	// Duplicate IDs that are not adjacent after sorting can only happen
	// across rounds or ticks, which is always a conflict.
	seen := make(map[string]int, len(out))
	for _, ev := range out {
		seen[ev.EventID]++
		if seen[ev.EventID] > 1 {
			return nil, NewDataIntegrityError(ev.MatchID, ev.RoundNumber, ev.EventID,
				"duplicate event_id across ordering positions")
		}
	}
	return out, nil
}

func sameEvent(a, b Event) bool {
	if a.MatchID != b.MatchID || a.RoundNumber != b.RoundNumber || a.Tick != b.Tick ||
		a.EventID != b.EventID || a.Type != b.Type || a.ActorSteamID != b.ActorSteamID ||
		a.VictimSteamID != b.VictimSteamID || a.Team != b.Team || a.Weapon != b.Weapon ||
		a.Price != b.Price || a.Amount != b.Amount {
		return false
	}
	if len(a.Payload) != len(b.Payload) {
		return false
	}
	for k, v := range a.Payload {
		if b.Payload[k] != v {
			return false
		}
	}
	return true
}
