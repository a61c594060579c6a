package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cs2econ/internal/econ"
)

// Scenario defines a conformance test scenario: a fixture match expressed
// as YAML events plus assertions on the reduced output.
type Scenario struct {
	// Name uniquely identifies this scenario (also names its golden file).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// MatchID for the fixture events. Defaults to "scenario-match".
	MatchID string `yaml:"match_id,omitempty"`

	// Events is the fixture event stream. Ticks are assigned by position
	// and event IDs are synthesized deterministically, so scenarios stay
	// readable while the reduction stays byte-stable.
	Events []EventStep `yaml:"events"`

	// ExpectError names the error code the reduction must fail with
	// (DATA_INTEGRITY, CONFIGURATION, INVARIANT_VIOLATION). Empty means
	// the reduction must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Balances asserts final end-of-round banks by player, for the last
	// round each player appears in.
	Balances map[string]int `yaml:"balances,omitempty"`

	// Snapshots asserts subsets of team snapshot fields.
	Snapshots []SnapshotExpect `yaml:"snapshots,omitempty"`
}

// EventStep is one fixture event in scenario YAML.
type EventStep struct {
	Round   int    `yaml:"round"`
	Type    string `yaml:"type"`
	Actor   string `yaml:"actor,omitempty"`
	Victim  string `yaml:"victim,omitempty"`
	Team    string `yaml:"team,omitempty"`
	Weapon  string `yaml:"weapon,omitempty"`
	Price   int    `yaml:"price,omitempty"`
	Amount  int    `yaml:"amount,omitempty"`
	Winner  string `yaml:"winner,omitempty"`
	WinType string `yaml:"win_type,omitempty"`
	Site    string `yaml:"site,omitempty"`
}

// SnapshotExpect asserts selected fields of one team snapshot.
// Only non-nil fields are compared.
type SnapshotExpect struct {
	Round          int    `yaml:"round"`
	Team           string `yaml:"team"`
	BankTotalStart *int   `yaml:"bank_total_start,omitempty"`
	SpendSum       *int   `yaml:"spend_sum,omitempty"`
	KillRewardSum  *int   `yaml:"kill_reward_sum,omitempty"`
	WinReward      *int   `yaml:"win_reward,omitempty"`
	LossBonus      *int   `yaml:"loss_bonus,omitempty"`
	PlantBonusTeam *int   `yaml:"plant_bonus_team,omitempty"`
	PlanterBonus   *int   `yaml:"planter_bonus,omitempty"`
	DefuseBonus    *int   `yaml:"defuse_bonus,omitempty"`
	BankTotalEnd   *int   `yaml:"bank_total_end,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly instead of silently
// weakening assertions.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	if scenario.MatchID == "" {
		scenario.MatchID = "scenario-match"
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario under dir, sorted by filename.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	var scenarios []*Scenario
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}
	for i, step := range s.Events {
		if step.Round < 1 {
			return fmt.Errorf("events[%d]: round must be >= 1", i)
		}
		if !econ.IsValidEventType(econ.EventType(step.Type)) {
			return fmt.Errorf("events[%d]: unknown event type %q", i, step.Type)
		}
	}
	switch s.ExpectError {
	case "", string(econ.CodeDataIntegrity), string(econ.CodeConfiguration), string(econ.CodeInvariantViolation):
	default:
		return fmt.Errorf("unknown expect_error code %q", s.ExpectError)
	}
	return nil
}

// buildEvents converts scenario steps into econ events with deterministic
// synthetic identity.
func buildEvents(s *Scenario) []econ.Event {
	events := make([]econ.Event, 0, len(s.Events))
	tickByRound := map[int]int{}
	for i, step := range s.Events {
		tickByRound[step.Round]++
		ev := econ.Event{
			MatchID:       s.MatchID,
			RoundNumber:   step.Round,
			Tick:          tickByRound[step.Round],
			EventID:       fmt.Sprintf("%s-ev-%04d", s.MatchID, i+1),
			Type:          econ.EventType(step.Type),
			ActorSteamID:  step.Actor,
			VictimSteamID: step.Victim,
			Team:          econ.Team(step.Team),
			Weapon:        step.Weapon,
			Price:         step.Price,
			Amount:        step.Amount,
		}
		payload := map[string]string{}
		if step.Winner != "" {
			payload["winner"] = step.Winner
		}
		if step.WinType != "" {
			payload["win_type"] = step.WinType
		}
		if step.Site != "" {
			payload["planted_site"] = step.Site
		}
		if len(payload) > 0 {
			ev.Payload = payload
		}
		events = append(events, ev)
	}
	return events
}
