package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cs2econ/internal/econ"
	"github.com/roach88/cs2econ/internal/reducer"
	"github.com/roach88/cs2econ/internal/rules"
	"github.com/roach88/cs2econ/internal/store"
)

// RecomputeOptions holds flags for the recompute command.
type RecomputeOptions struct {
	*RootOptions
	Database     string
	MatchID      string
	RulesDir     string
	RulesVersion string
	Workers      int
}

// RecomputeResult holds the per-batch outcome for output.
type RecomputeResult struct {
	Matches   int                    `json:"matches"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Failures  []reducer.MatchFailure `json:"failures,omitempty"`
	Balances  int                    `json:"balance_rows"`
	Snapshots int                    `json:"snapshot_rows"`
	States    int                    `json:"state_rows"`
}

// NewRecomputeCommand creates the recompute command.
func NewRecomputeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecomputeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute balances, snapshots, and carried state from events",
		Long: `Recompute economic output tables from the raw events table.

Each match is re-sorted, validated, and folded round by round; output rows
for a match are replaced atomically. Matches are independent, so the batch
runs them concurrently; one bad match is reported and skipped, never
blocking the rest.

Exit codes:
  0 - All matches recomputed
  1 - At least one match failed
  2 - Command error (database not found, bad rules version, etc.)

Examples:
  cs2econ recompute --db ./cs2econ.db
  cs2econ recompute --db ./cs2econ.db --match m-2025-09-001
  cs2econ recompute --db ./cs2econ.db --rules-version 2025_09 --workers 4`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecompute(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to $CS2ECON_DB)")
	cmd.Flags().StringVar(&opts.MatchID, "match", "", "recompute a single match only")
	cmd.Flags().StringVar(&opts.RulesDir, "rules-dir", "", "directory with *.cue rules versions (defaults to $CS2ECON_RULES_DIR)")
	cmd.Flags().StringVar(&opts.RulesVersion, "rules-version", "", "rules version to apply (defaults to built-in)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "max concurrent matches (defaults to $CS2ECON_WORKERS or GOMAXPROCS)")

	return cmd
}

func runRecompute(opts *RecomputeOptions, cmd *cobra.Command) error {
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
	rulesDir := opts.RulesDir
	if rulesDir == "" {
		rulesDir = opts.Defaults.RulesDir
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = opts.Defaults.Workers
	}

	r, err := rules.Resolve(rulesDir, opts.RulesVersion)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve rules", err)
	}
	formatter.VerboseLog("using rules version %s", r.Version)

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var matchIDs []string
	if opts.MatchID != "" {
		matchIDs = []string{opts.MatchID}
	} else {
		matchIDs, err = st.ListMatchIDs(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list matches", err)
		}
	}
	if len(matchIDs) == 0 {
		return NewExitError(ExitCommandError, "no events found to process")
	}

	source := func(ctx context.Context, matchID string) ([]econ.Event, error) {
		return st.ReadMatchEvents(ctx, matchID)
	}

	batch, err := reducer.ReduceBatch(ctx, matchIDs, source, r, workers)
	if err != nil {
		return WrapExitError(ExitCommandError, "batch reduction failed", err)
	}

	result := RecomputeResult{
		Matches:   len(matchIDs),
		Succeeded: len(batch.Results),
		Failed:    len(batch.Failures),
		Failures:  batch.Failures,
	}
	for _, mr := range batch.Results {
		if err := st.WriteMatchResult(ctx, mr); err != nil {
			return WrapExitError(ExitCommandError,
				fmt.Sprintf("failed to write results for match %s", mr.MatchID), err)
		}
		result.Balances += len(mr.Balances)
		result.Snapshots += len(mr.Snapshots)
		result.States += len(mr.States)
		formatter.VerboseLog("match %s: %d balances, %d snapshots", mr.MatchID, len(mr.Balances), len(mr.Snapshots))
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Recomputed %d/%d match(es): %d balance rows, %d snapshots, %d state rows\n",
			result.Succeeded, result.Matches, result.Balances, result.Snapshots, result.States)
		for _, f := range result.Failures {
			fmt.Fprintf(out, "  FAILED %s: %s\n", f.MatchID, f.Error)
		}
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d match(es) failed", result.Failed))
	}
	return nil
}
