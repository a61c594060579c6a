package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cs2econ/internal/rules"
	"github.com/roach88/cs2econ/internal/store"
	"github.com/roach88/cs2econ/internal/verify"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database     string
	RulesDir     string
	RulesVersion string
}

// VerifyResult holds the batch verification outcome.
type VerifyResult struct {
	Reports []verify.Report `json:"reports"`
	AllOK   bool            `json:"all_ok"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify [<match-id>]",
		Short: "Recompute matches and diff against persisted snapshots",
		Long: `Verify data integrity by recomputing from raw events and comparing
every snapshot field and checksum against the persisted output tables.

Mismatches are reported with both values, never auto-corrected. Without a
match ID every match with persisted snapshots is verified; one mismatching
match does not stop the rest.

Exit codes:
  0 - All snapshots verified
  1 - Verification mismatches found
  2 - Command error (database not found, no persisted snapshots)

Examples:
  cs2econ verify --db ./cs2econ.db
  cs2econ verify m-2025-09-001 --db ./cs2econ.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID := ""
			if len(args) == 1 {
				matchID = args[0]
			}
			return runVerify(opts, cmd, matchID)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to $CS2ECON_DB)")
	cmd.Flags().StringVar(&opts.RulesDir, "rules-dir", "", "directory with *.cue rules versions (defaults to $CS2ECON_RULES_DIR)")
	cmd.Flags().StringVar(&opts.RulesVersion, "rules-version", "", "rules version to verify against (defaults to built-in)")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command, matchID string) error {
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

	r, err := rules.Resolve(rulesDir, opts.RulesVersion)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve rules", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var matchIDs []string
	if matchID != "" {
		matchIDs = []string{matchID}
	} else {
		matchIDs, err = st.ListMatchIDs(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list matches", err)
		}
	}

	result := VerifyResult{AllOK: true}
	for _, id := range matchIDs {
		persisted, err := st.ReadSnapshots(ctx, id, 0)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read snapshots for %s", id), err)
		}
		if len(persisted) == 0 {
			if matchID != "" {
				return NewExitError(ExitCommandError, fmt.Sprintf("no persisted snapshots for match %s", id))
			}
			continue
		}

		events, err := st.ReadMatchEvents(ctx, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read events for %s", id), err)
		}

		report, err := verify.Verify(id, persisted, events, r)
		if err != nil {
			// Recomputation itself failing is drift of the worst kind; the
			// report carries it, the batch keeps going.
			report.OK = false
			report.Mismatches = append(report.Mismatches, verify.Mismatch{
				Field:    "recompute",
				Expected: "success",
				Got:      err.Error(),
			})
		}
		formatter.VerboseLog("match %s: %d snapshots, %d mismatches", id, report.Snapshots, len(report.Mismatches))
		result.Reports = append(result.Reports, report)
		if !report.OK {
			result.AllOK = false
		}
	}

	if len(result.Reports) == 0 {
		return NewExitError(ExitCommandError, "no persisted snapshots found to verify")
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		for _, rep := range result.Reports {
			if rep.OK {
				fmt.Fprintf(out, "OK    %s (%d snapshots)\n", rep.MatchID, rep.Snapshots)
				continue
			}
			fmt.Fprintf(out, "DRIFT %s (%d mismatches)\n", rep.MatchID, len(rep.Mismatches))
			for _, m := range rep.Mismatches {
				fmt.Fprintf(out, "  round %d %s %s: expected %s, got %s\n",
					m.RoundNumber, m.Team, m.Field, m.Expected, m.Got)
			}
		}
	}

	if !result.AllOK {
		return NewExitError(ExitFailure, "verification mismatches found")
	}
	return nil
}
