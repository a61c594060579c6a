package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cs2econ/internal/econ"
	"github.com/roach88/cs2econ/internal/store"
)

// runCommand executes the CLI with args against a fresh root command and
// returns captured stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeEventsFile writes a small two-round match as JSON lines.
func writeEventsFile(t *testing.T, dir, matchID string) string {
	t.Helper()

	type line struct {
		MatchID     string            `json:"match_id"`
		RoundNumber int               `json:"round_number"`
		Tick        int               `json:"tick"`
		EventID     string            `json:"event_id"`
		Type        string            `json:"type"`
		Actor       string            `json:"actor_steamid,omitempty"`
		Team        string            `json:"team,omitempty"`
		Weapon      string            `json:"weapon,omitempty"`
		Victim      string            `json:"victim_steamid,omitempty"`
		Payload     map[string]string `json:"payload,omitempty"`
	}

	lines := []line{
		{RoundNumber: 1, Tick: 1, Type: "round_start"},
		{RoundNumber: 1, Tick: 2, Type: "money", Actor: "t-1", Team: "T"},
		{RoundNumber: 1, Tick: 3, Type: "money", Actor: "ct-1", Team: "CT"},
		{RoundNumber: 1, Tick: 4, Type: "kill", Actor: "t-1", Team: "T", Weapon: "glock", Victim: "ct-1"},
		{RoundNumber: 1, Tick: 5, Type: "round_end", Payload: map[string]string{"winner": "T", "win_type": "elimination"}},
		{RoundNumber: 2, Tick: 1, Type: "round_start"},
		{RoundNumber: 2, Tick: 2, Type: "money", Actor: "t-1", Team: "T"},
		{RoundNumber: 2, Tick: 3, Type: "money", Actor: "ct-1", Team: "CT"},
		{RoundNumber: 2, Tick: 4, Type: "plant", Actor: "t-1", Team: "T", Payload: map[string]string{"planted_site": "B"}},
		{RoundNumber: 2, Tick: 5, Type: "round_end"},
	}

	var buf bytes.Buffer
	for i, ln := range lines {
		ln.MatchID = matchID
		ln.EventID = fmt.Sprintf("%s-ev-%04d", matchID, i+1)
		data, err := json.Marshal(ln)
		require.NoError(t, err)
		buf.Write(data)
		buf.WriteByte('\n')
	}

	path := filepath.Join(dir, matchID+".jsonl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestPipelineEndToEnd(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cs2econ.db")
	file := writeEventsFile(t, dir, "m-cli")

	out, err := runCommand(t, "ingest", "--db", db, file)
	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 10/10")

	out, err = runCommand(t, "recompute", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Recomputed 1/1")

	out, err = runCommand(t, "export", "m-cli", "--db", db, "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var snaps []econ.TeamSnapshot
	require.NoError(t, json.Unmarshal(data, &snaps))
	require.Len(t, snaps, 4, "two rounds, two teams")

	out, err = runCommand(t, "verify", "m-cli", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "OK")
}

func TestIngestIdempotent(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cs2econ.db")
	file := writeEventsFile(t, dir, "m-cli")

	_, err := runCommand(t, "ingest", "--db", db, file)
	require.NoError(t, err)

	out, err := runCommand(t, "ingest", "--db", db, file)
	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 0/10", "re-ingest inserts nothing")
}

func TestVerifyDetectsDriftWithExitFailure(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cs2econ.db")
	file := writeEventsFile(t, dir, "m-cli")

	_, err := runCommand(t, "ingest", "--db", db, file)
	require.NoError(t, err)
	_, err = runCommand(t, "recompute", "--db", db)
	require.NoError(t, err)

	// Corrupt one persisted snapshot behind the pipeline's back.
	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().Exec("UPDATE snapshots SET bank_total_end = bank_total_end + 500 WHERE round_number = 1 AND team = 'T'")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := runCommand(t, "verify", "m-cli", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "DRIFT")
	assert.Contains(t, out, "bank_total_end")
}

func TestRecomputeMissingDataIsCommandError(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	_, err := runCommand(t, "recompute", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExportUnknownMatchIsCommandError(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	_, err := runCommand(t, "export", "m-none", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidFormatRejected(t *testing.T) {
	_, err := runCommand(t, "export", "m-1", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
