// Package commands implements the beatlake subcommands.
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/beatlake/beatlake/internal/cli/config"
	"github.com/beatlake/beatlake/internal/pipeline"
	"github.com/beatlake/beatlake/pkg/core"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Stage string
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ETL stages",
		Long: `Execute the transform stages in order: song metadata first (songs,
artists), then log events (users, time, songplays).

The log-event stage joins against the song-metadata stage's persisted
parquet output, so a single-stage events rerun requires a prior songs run
against the same output path.`,
		Example: `  # Run both stages
  beatlake run

  # Rerun only the log-event stage against existing songs output
  beatlake run --stage events`,
		Aliases: []string{"etl"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Stage, "stage", "s", "", "Run a single stage (songs|events)")

	_ = cmd.RegisterFlagCompletionFunc("stage", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return pipeline.Stages, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cfg := config.FromContext(cmd.Context())
	logger := config.LoggerFromContext(cmd.Context())

	stages := pipeline.Stages
	if opts.Stage != "" {
		if !validStage(opts.Stage) {
			return fmt.Errorf("unknown stage %q (valid: %s)", opts.Stage, strings.Join(pipeline.Stages, ", "))
		}
		stages = []string{opts.Stage}
	}

	if err := ensureStateDir(cfg.StatePath); err != nil {
		return err
	}

	p, err := pipeline.New(pipeline.Config{
		InputPath:   cfg.InputPath,
		OutputPath:  cfg.OutputPath,
		StatePath:   cfg.StatePath,
		Environment: cfg.Environment,
		Adapter:     adapterConfig(cfg.Target),
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	out := cmd.OutOrStdout()
	startTime := time.Now()

	run, runErr := p.RunStages(cmd.Context(), stages)

	if run != nil {
		printStageResults(out, p, run.ID)
		fmt.Fprintf(out, "Run %s: %s\n", run.ID, run.Status)
	}
	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}

	fmt.Fprintf(out, "Completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// printStageResults writes a per-stage summary line for a run.
func printStageResults(out io.Writer, p *pipeline.Pipeline, runID string) {
	stageRuns, err := p.Store().GetStageRunsForRun(runID)
	if err != nil {
		return
	}
	for _, sr := range stageRuns {
		line := fmt.Sprintf("  %-8s %-9s %8d rows  %6dms", sr.Stage, sr.Status, sr.RowsWritten, sr.ExecutionMS)
		if sr.Error != "" {
			line += "  " + sr.Error
		}
		fmt.Fprintln(out, line)
	}
}

func validStage(stage string) bool {
	for _, s := range pipeline.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// ensureStateDir creates the run-ledger directory if needed.
func ensureStateDir(statePath string) error {
	if statePath == "" || statePath == ":memory:" {
		return nil
	}
	stateDir := filepath.Dir(statePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return nil
}

// adapterConfig maps the configured target to an engine adapter config.
func adapterConfig(t *config.TargetConfig) core.AdapterConfig {
	if t == nil {
		return core.AdapterConfig{Type: "duckdb"}
	}
	return core.AdapterConfig{
		Type:     t.Type,
		Path:     t.Database,
		Database: t.Database,
		Host:     t.Host,
		Port:     t.Port,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
		Params:   t.Params,
	}
}
