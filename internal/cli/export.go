package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/cs2econ/internal/econ"
	"github.com/roach88/cs2econ/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	Round    int
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <match-id>",
		Short: "Export a match's team snapshots",
		Long: `Export persisted team snapshots for one match as a text table or JSON.

Exit codes:
  0 - Snapshots exported
  2 - Command error (no data for match, database not found)

Examples:
  cs2econ export m-2025-09-001 --db ./cs2econ.db
  cs2econ export m-2025-09-001 --round 7 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to $CS2ECON_DB)")
	cmd.Flags().IntVar(&opts.Round, "round", 0, "export a single round only")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command, matchID string) error {
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

	snapshots, err := st.ReadSnapshots(ctx, matchID, opts.Round)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read snapshots", err)
	}
	if len(snapshots) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no snapshot data found for match %s", matchID))
	}

	if opts.Format == "json" {
		return formatter.Success(snapshots)
	}
	return writeSnapshotTable(cmd, snapshots)
}

func writeSnapshotTable(cmd *cobra.Command, snapshots []econ.TeamSnapshot) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROUND\tTEAM\tSTART\tSPEND\tKILLS\tWIN\tLOSS\tPLANT\tEND\tCHECKSUM")
	for _, s := range snapshots {
		checksum := s.Checksum
		if len(checksum) > 12 {
			checksum = checksum[:12]
		}
		fmt.Fprintf(w, "%d\t%s\t$%d\t$%d\t$%d\t$%d\t$%d\t$%d\t$%d\t%s\n",
			s.RoundNumber, s.Team, s.BankTotalStart, s.SpendSum,
			s.KillRewardSum, s.WinReward, s.LossBonus,
			s.PlantBonusTeam+s.PlanterBonus, s.BankTotalEnd,
			checksum,
		)
	}
	return w.Flush()
}
