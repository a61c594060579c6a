// Package testutil provides event fixture builders for reducer tests.
package testutil

import (
	"fmt"

	"github.com/roach88/cs2econ/internal/econ"
)

// MatchBuilder accumulates fixture events for one match with
// auto-incrementing ticks and stable, readable event IDs.
type MatchBuilder struct {
	MatchID string
	round   int
	tick    int
	seq     int
	events  []econ.Event
}

// NewMatch creates a builder for the given match ID.
func NewMatch(matchID string) *MatchBuilder {
	return &MatchBuilder{MatchID: matchID}
}

// Events returns the accumulated events.
func (b *MatchBuilder) Events() []econ.Event {
	return b.events
}

// Round begins a new round and emits its round_start event.
func (b *MatchBuilder) Round(n int) *MatchBuilder {
	b.round = n
	b.tick = 0
	b.add(econ.Event{Type: econ.EventRoundStart})
	return b
}

// Buy emits a buy event for the player.
func (b *MatchBuilder) Buy(steamID string, team econ.Team, weapon string, price int) *MatchBuilder {
	b.add(econ.Event{Type: econ.EventBuy, ActorSteamID: steamID, Team: team, Weapon: weapon, Price: price})
	return b
}

// Kill emits a kill event credited to the actor.
func (b *MatchBuilder) Kill(steamID string, team econ.Team, weapon, victim string) *MatchBuilder {
	b.add(econ.Event{Type: econ.EventKill, ActorSteamID: steamID, Team: team, Weapon: weapon, VictimSteamID: victim})
	return b
}

// Assist emits an assist event credited to the actor.
func (b *MatchBuilder) Assist(steamID string, team econ.Team, victim string) *MatchBuilder {
	b.add(econ.Event{Type: econ.EventAssist, ActorSteamID: steamID, Team: team, VictimSteamID: victim})
	return b
}

// Plant emits a bomb plant event.
func (b *MatchBuilder) Plant(steamID, site string) *MatchBuilder {
	b.add(econ.Event{
		Type: econ.EventPlant, ActorSteamID: steamID, Team: econ.TeamT,
		Payload: map[string]string{"planted_site": site},
	})
	return b
}

// Defuse emits a bomb defuse event.
func (b *MatchBuilder) Defuse(steamID string) *MatchBuilder {
	b.add(econ.Event{Type: econ.EventDefuse, ActorSteamID: steamID, Team: econ.TeamCT})
	return b
}

// Money emits an explicit currency adjustment.
func (b *MatchBuilder) Money(steamID string, team econ.Team, amount int) *MatchBuilder {
	b.add(econ.Event{Type: econ.EventMoney, ActorSteamID: steamID, Team: team, Amount: amount})
	return b
}

// DeathAfterTime emits a death-after-timer event for a T player.
func (b *MatchBuilder) DeathAfterTime(steamID string) *MatchBuilder {
	b.add(econ.Event{Type: econ.EventDeathAfterTime, ActorSteamID: steamID, Team: econ.TeamT})
	return b
}

// Seen emits a zero-value money event, registering a player in the round
// without touching their bank.
func (b *MatchBuilder) Seen(steamID string, team econ.Team) *MatchBuilder {
	b.add(econ.Event{Type: econ.EventMoney, ActorSteamID: steamID, Team: team})
	return b
}

// End emits the round_end event with an explicit winner and win type.
func (b *MatchBuilder) End(winner econ.Team, winType econ.WinType) *MatchBuilder {
	b.add(econ.Event{
		Type:    econ.EventRoundEnd,
		Payload: map[string]string{"winner": string(winner), "win_type": string(winType)},
	})
	return b
}

// EndBare emits a round_end event with no payload, forcing the reducer to
// infer the outcome from the round's objective events.
func (b *MatchBuilder) EndBare() *MatchBuilder {
	b.add(econ.Event{Type: econ.EventRoundEnd})
	return b
}

// Raw appends an arbitrary event, filling in identity fields that are
// unset so callers can still hand-craft edge cases.
func (b *MatchBuilder) Raw(ev econ.Event) *MatchBuilder {
	if ev.MatchID == "" {
		ev.MatchID = b.MatchID
	}
	if ev.RoundNumber == 0 {
		ev.RoundNumber = b.round
	}
	if ev.Tick == 0 {
		b.tick++
		ev.Tick = b.tick
	}
	if ev.EventID == "" {
		b.seq++
		ev.EventID = fmt.Sprintf("ev-%04d", b.seq)
	}
	b.events = append(b.events, ev)
	return b
}

func (b *MatchBuilder) add(ev econ.Event) {
	ev.MatchID = b.MatchID
	ev.RoundNumber = b.round
	b.tick++
	ev.Tick = b.tick
	b.seq++
	ev.EventID = fmt.Sprintf("ev-%04d", b.seq)
	b.events = append(b.events, ev)
}
