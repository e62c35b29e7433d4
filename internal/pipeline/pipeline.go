// Package pipeline runs the beatlake ETL job: two sequential transform
// stages submitted to an analytical query engine, with results persisted
// as partitioned parquet file sets and bookkeeping written to a run ledger.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/beatlake/beatlake/internal/state"
	"github.com/beatlake/beatlake/pkg/adapter"
	"github.com/beatlake/beatlake/pkg/core"
)

// Stage names, in execution order. The events stage re-reads the songs
// stage's persisted output for its join, so the order is load-bearing.
const (
	StageSongs  = "songs"
	StageEvents = "events"
)

// Stages lists all stages in execution order.
var Stages = []string{StageSongs, StageEvents}

// Config holds pipeline configuration.
type Config struct {
	// InputPath is the root under which song_data/ and log_data/ live.
	InputPath string
	// OutputPath is the root the five output tables are written under.
	OutputPath string
	// StatePath is the run-ledger database path (empty for in-memory).
	StatePath string
	// Environment is the environment name recorded on runs.
	Environment string
	// Adapter configures the query engine (defaults to in-memory DuckDB).
	Adapter core.AdapterConfig
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Pipeline orchestrates the ETL stages against a query engine.
type Pipeline struct {
	// Query engine adapter (lazy connected)
	db          adapter.Adapter
	dbCfg       core.AdapterConfig
	dbConnected bool
	dbMu        sync.Mutex

	logger *slog.Logger
	store  core.Store

	inputPath   string
	outputPath  string
	environment string
}

// New creates a pipeline with a lazy engine connection.
// The engine is only connected when Run is called.
func New(cfg Config) (*Pipeline, error) {
	if cfg.InputPath == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if cfg.OutputPath == "" {
		return nil, fmt.Errorf("output path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dbCfg := cfg.Adapter
	if dbCfg.Type == "" {
		dbCfg.Type = "duckdb"
	}

	env := cfg.Environment
	if env == "" {
		env = "dev"
	}

	statePath := cfg.StatePath
	if statePath == "" {
		statePath = ":memory:"
	}

	logger.Debug("initializing pipeline",
		"input", cfg.InputPath, "output", cfg.OutputPath, "environment", env)

	store := state.NewSQLiteStore(logger)
	if err := store.Open(statePath); err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize run ledger schema: %w", err)
	}

	return &Pipeline{
		db:          nil, // Lazy
		dbCfg:       dbCfg,
		logger:      logger,
		store:       store,
		inputPath:   cfg.InputPath,
		outputPath:  cfg.OutputPath,
		environment: env,
	}, nil
}

// ensureDBConnected lazily connects to the query engine.
func (p *Pipeline) ensureDBConnected(ctx context.Context) error {
	p.dbMu.Lock()
	defer p.dbMu.Unlock()

	if p.dbConnected {
		return nil
	}

	p.logger.Debug("connecting to query engine", "adapter_type", p.dbCfg.Type)

	db, err := adapter.NewAdapter(p.dbCfg, p.logger)
	if err != nil {
		return fmt.Errorf("failed to create engine adapter: %w", err)
	}

	if err := db.Connect(ctx, p.dbCfg); err != nil {
		return fmt.Errorf("failed to connect to engine: %w", err)
	}

	p.db = db
	p.dbConnected = true

	p.logger.Debug("query engine connected", "dialect", db.DialectName())
	return nil
}

// Close releases all resources.
func (p *Pipeline) Close() error {
	p.logger.Debug("closing pipeline")

	var errs []error
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing pipeline: %v", errs)
	}
	return nil
}

// Store returns the run ledger.
func (p *Pipeline) Store() core.Store {
	return p.store
}

// Run executes both stages in order and records the run in the ledger.
func (p *Pipeline) Run(ctx context.Context) (*core.Run, error) {
	return p.RunStages(ctx, Stages)
}

// RunStages executes the named stages in the given order. Running the
// events stage alone assumes a prior run already persisted the songs and
// artists tables at the output path.
func (p *Pipeline) RunStages(ctx context.Context, stages []string) (*core.Run, error) {
	p.logger.Info("starting run", "environment", p.environment, "stages", stages)

	if err := p.ensureDBConnected(ctx); err != nil {
		return nil, err
	}

	run, err := p.store.CreateRun(p.environment)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	p.logger.Debug("created run", "run_id", run.ID)

	runErr := p.executeStages(ctx, run.ID, stages)

	if runErr != nil {
		p.logger.Info("run failed", "run_id", run.ID, "error", runErr.Error())
		_ = p.store.CompleteRun(run.ID, core.RunStatusFailed, runErr.Error())
	} else {
		p.logger.Info("run completed", "run_id", run.ID)
		_ = p.store.CompleteRun(run.ID, core.RunStatusCompleted, "")
	}

	run, _ = p.store.GetRun(run.ID)
	return run, runErr
}

// executeStages runs each stage, aborting on the first failure and
// marking the remaining stages as skipped.
func (p *Pipeline) executeStages(ctx context.Context, runID string, stages []string) error {
	for i, stage := range stages {
		stageRun := &core.StageRun{
			RunID:  runID,
			Stage:  stage,
			Status: core.StageRunStatusRunning,
		}
		if err := p.store.RecordStageRun(stageRun); err != nil {
			return fmt.Errorf("failed to record stage run: %w", err)
		}

		rowsWritten, executionMS, err := p.executeStage(ctx, stage)
		if err != nil {
			p.logger.Debug("stage failed", "stage", stage, "error", err)
			_ = p.store.UpdateStageRun(stageRun.ID, core.StageRunStatusFailed, rowsWritten, err.Error(), executionMS)

			for _, skipped := range stages[i+1:] {
				_ = p.store.RecordStageRun(&core.StageRun{
					RunID:  runID,
					Stage:  skipped,
					Status: core.StageRunStatusSkipped,
					Error:  fmt.Sprintf("skipped: upstream stage %s failed", stage),
				})
			}
			return fmt.Errorf("stage %s: %w", stage, err)
		}

		p.logger.Debug("stage executed", "stage", stage, "rows", rowsWritten, "exec_ms", executionMS)
		_ = p.store.UpdateStageRun(stageRun.ID, core.StageRunStatusSuccess, rowsWritten, "", executionMS)
	}

	return nil
}

// executeStage dispatches a stage by name.
func (p *Pipeline) executeStage(ctx context.Context, stage string) (rowsWritten, executionMS int64, err error) {
	switch stage {
	case StageSongs:
		return p.timedStage(ctx, p.processSongData)
	case StageEvents:
		return p.timedStage(ctx, p.processLogData)
	default:
		return 0, 0, fmt.Errorf("unknown stage: %s", stage)
	}
}

// joinLakePath joins storage path segments with forward slashes, keeping
// object-store URLs (s3://...) intact.
func joinLakePath(root string, elem ...string) string {
	parts := append([]string{strings.TrimSuffix(root, "/")}, elem...)
	return strings.Join(parts, "/")
}

// parquetGlob returns the glob matching a persisted projection's parquet
// files: one wildcard directory level per partition column.
func parquetGlob(partitionBy []string) string {
	return strings.Repeat("*/", len(partitionBy)) + "*.parquet"
}

// countRows counts the rows a SELECT produces.
func (p *Pipeline) countRows(ctx context.Context, selectSQL string) (int64, error) {
	rows, err := p.db.Query(ctx, fmt.Sprintf("SELECT COUNT(*) FROM (%s) t", selectSQL))
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}
	return count, rows.Err()
}
