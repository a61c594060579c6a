package econ

import (
	"encoding/json"
	"fmt"
)

// EventType identifies the economic meaning of an event.
type EventType string

const (
	EventRoundStart     EventType = "round_start"
	EventRoundEnd       EventType = "round_end"
	EventBuy            EventType = "buy"
	EventKill           EventType = "kill"
	EventAssist         EventType = "assist"
	EventPlant          EventType = "plant"
	EventDefuse         EventType = "defuse"
	EventMoney          EventType = "money"
	EventDeathAfterTime EventType = "death_after_time"
)

// ValidEventTypes lists every recognized event type.
var ValidEventTypes = []EventType{
	EventRoundStart, EventRoundEnd, EventBuy, EventKill, EventAssist,
	EventPlant, EventDefuse, EventMoney, EventDeathAfterTime,
}

// IsValidEventType reports whether t is a recognized event type.
func IsValidEventType(t EventType) bool {
	for _, v := range ValidEventTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Team identifies one of the two sides in a match.
type Team string

const (
	TeamT  Team = "T"
	TeamCT Team = "CT"
)

// WinType categorizes how a round was decided. The four conditions carry
// distinct payouts in the rules table.
type WinType string

const (
	WinElimination    WinType = "elimination"
	WinTBombExplosion WinType = "t_bomb_explosion"
	WinCTDefuse       WinType = "ct_defuse"
	WinCTTimeExpired  WinType = "ct_time_expired_no_plant"
)

// Event is one atomic economic occurrence within a round.
// Events are immutable once produced; the reducer folds over them and
// never writes back.
type Event struct {
	MatchID     string `json:"match_id"`
	RoundNumber int    `json:"round_number"`
	Tick        int    `json:"tick"`

	// EventID is globally unique and stable. It is used both as the final
	// ordering tie-break and for lineage/checksums.
	EventID string `json:"event_id"`

	Type          EventType `json:"type"`
	ActorSteamID  string    `json:"actor_steamid,omitempty"`
	VictimSteamID string    `json:"victim_steamid,omitempty"`
	Team          Team      `json:"team,omitempty"`
	Weapon        string    `json:"weapon,omitempty"`
	Price         int       `json:"price,omitempty"`
	Amount        int       `json:"amount,omitempty"`

	// Payload carries auxiliary round_end metadata (win_type, winner,
	// planted_site). Stored as an open map on the wire, parsed into a
	// typed Payload before the reducer consumes it.
	Payload map[string]string `json:"payload,omitempty"`

	IngestSource string `json:"ingest_source,omitempty"`
	TSIngested   string `json:"ts_ingested,omitempty"`
}

// Payload is the typed view over an event's payload map.
// Unrecognized win_type values are a configuration problem, not something
// to consume ad hoc.
type Payload struct {
	WinType     WinType
	Winner      Team
	PlantedSite string

	// HasWinType and HasWinner distinguish "absent" from "empty" so the
	// reducer can fall back to deterministic inference (see reducer).
	HasWinType bool
	HasWinner  bool
}

// ParsePayload converts an event's raw payload map into its typed form.
// Returns a ConfigurationError for an unrecognized win_type or winner.
func ParsePayload(ev Event) (Payload, error) {
	var p Payload
	if ev.Payload == nil {
		return p, nil
	}

	if raw, ok := ev.Payload["win_type"]; ok && raw != "" {
		wt, err := parseWinType(raw)
		if err != nil {
			return p, &EconError{
				Code:        CodeConfiguration,
				Message:     err.Error(),
				MatchID:     ev.MatchID,
				RoundNumber: ev.RoundNumber,
				EventID:     ev.EventID,
			}
		}
		p.WinType = wt
		p.HasWinType = true
	}

	if raw, ok := ev.Payload["winner"]; ok && raw != "" {
		switch Team(raw) {
		case TeamT, TeamCT:
			p.Winner = Team(raw)
			p.HasWinner = true
		default:
			return p, &EconError{
				Code:        CodeConfiguration,
				Message:     fmt.Sprintf("unrecognized winner %q", raw),
				MatchID:     ev.MatchID,
				RoundNumber: ev.RoundNumber,
				EventID:     ev.EventID,
			}
		}
	}

	p.PlantedSite = ev.Payload["planted_site"]
	return p, nil
}

// parseWinType accepts both the canonical names and the short aliases the
// upstream demo stage emits (bomb_explosion, defuse, time_expired).
func parseWinType(raw string) (WinType, error) {
	switch raw {
	case "elimination":
		return WinElimination, nil
	case "t_bomb_explosion", "bomb_explosion":
		return WinTBombExplosion, nil
	case "ct_defuse", "defuse":
		return WinCTDefuse, nil
	case "ct_time_expired_no_plant", "time_expired":
		return WinCTTimeExpired, nil
	default:
		return "", fmt.Errorf("unrecognized win_type %q", raw)
	}
}

// MarshalPayload serializes an event payload map as canonical JSON text
// for storage. Empty payloads serialize as the empty string.
func MarshalPayload(payload map[string]string) (string, error) {
	if len(payload) == 0 {
		return "", nil
	}
	m := make(map[string]any, len(payload))
	for k, v := range payload {
		m[k] = v
	}
	data, err := MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// UnmarshalPayload parses payload JSON text from storage.
func UnmarshalPayload(data string) (map[string]string, error) {
	if data == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return m, nil
}
