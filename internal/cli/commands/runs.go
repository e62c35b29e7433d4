package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/beatlake/beatlake/internal/cli/config"
	"github.com/beatlake/beatlake/internal/state"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "Show the latest run for the current environment",
		Long:  `Display the most recent run recorded in the run ledger, with its per-stage results.`,
		RunE:  runRuns,
	}
}

func runRuns(cmd *cobra.Command, _ []string) error {
	cfg := config.FromContext(cmd.Context())
	logger := config.LoggerFromContext(cmd.Context())

	if _, err := os.Stat(cfg.StatePath); err != nil {
		return fmt.Errorf("no run ledger at %s", cfg.StatePath)
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return fmt.Errorf("failed to open run ledger: %w", err)
	}
	defer func() { _ = store.Close() }()

	run, err := store.GetLatestRun(cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to query run ledger: %w", err)
	}
	if run == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded for environment %q\n", cfg.Environment)
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.Environment)
	fmt.Fprintf(out, "  Status:  %s\n", run.Status)
	fmt.Fprintf(out, "  Started: %s\n", run.StartedAt.Format(time.RFC3339))
	if run.CompletedAt != nil {
		fmt.Fprintf(out, "  Took:    %s\n", run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if run.Error != "" {
		fmt.Fprintf(out, "  Error:   %s\n", run.Error)
	}

	stageRuns, err := store.GetStageRunsForRun(run.ID)
	if err != nil {
		return fmt.Errorf("failed to query stage runs: %w", err)
	}
	if len(stageRuns) > 0 {
		fmt.Fprintln(out, "  Stages:")
		for _, sr := range stageRuns {
			line := fmt.Sprintf("    %-8s %-9s %8d rows  %6dms", sr.Stage, sr.Status, sr.RowsWritten, sr.ExecutionMS)
			if sr.Error != "" {
				line += "  " + sr.Error
			}
			fmt.Fprintln(out, line)
		}
	}

	return nil
}
