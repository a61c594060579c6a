package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/cs2econ/internal/econ"
	"github.com/roach88/cs2econ/internal/store"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Database string
	Source   string
}

// IngestResult holds the ingest outcome for JSON output.
type IngestResult struct {
	BatchID  string `json:"batch_id"`
	Files    int    `json:"files"`
	Read     int    `json:"events_read"`
	Inserted int    `json:"events_inserted"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <events.jsonl>...",
		Short: "Load event files into the events table",
		Long: `Load JSON-lines event files into the partitioned events table.

Ingest is idempotent: events are keyed by event_id and re-ingesting the
same file inserts nothing new. Events arriving without an event_id get a
synthesized one; ordering stays deterministic because the reducer sorts
by (match_id, round_number, tick, event_id) on read.

Exit codes:
  0 - Events ingested
  2 - Command error (unreadable file, malformed JSON, database error)

Examples:
  cs2econ ingest --db ./cs2econ.db match1.jsonl
  cs2econ ingest --db ./cs2econ.db --source demo-parser match*.jsonl`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to $CS2ECON_DB)")
	cmd.Flags().StringVar(&opts.Source, "source", "ingest", "ingest_source tag recorded on each event")

	return cmd
}

func runIngest(opts *IngestOptions, cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Defaults.DBPath
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	batchID := uuid.NewString()
	stamp := time.Now().UTC().Format(time.RFC3339)

	var events []econ.Event
	for _, path := range args {
		fileEvents, err := readEventFile(path)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read %s", path), err)
		}
		formatter.VerboseLog("read %d events from %s", len(fileEvents), path)
		events = append(events, fileEvents...)
	}

	for i := range events {
		if events[i].EventID == "" {
			events[i].EventID = uuid.NewString()
		}
		if events[i].IngestSource == "" {
			events[i].IngestSource = opts.Source
		}
		events[i].TSIngested = stamp
	}

	inserted, err := st.WriteEvents(ctx, events)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write events", err)
	}

	result := IngestResult{
		BatchID:  batchID,
		Files:    len(args),
		Read:     len(events),
		Inserted: inserted,
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d/%d events from %d file(s) (batch %s)\n",
		result.Inserted, result.Read, result.Files, result.BatchID)
	return nil
}

// readEventFile parses one JSON-lines event file. Blank lines are skipped;
// anything else that fails to parse is a hard error, not a warning.
func readEventFile(path string) ([]econ.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []econ.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev econ.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
