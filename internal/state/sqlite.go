// Package state persists the run ledger: which ETL runs happened, which
// stages they executed, and how they ended.
package state

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/beatlake/beatlake/pkg/core"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore implements core.Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite ledger store instance.
// A nil logger discards all log output.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema initializes the database schema.
func (s *SQLiteStore) InitSchema() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// --- Run operations ---

// CreateRun creates a new job run in the running state.
func (s *SQLiteStore) CreateRun(env string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.Run{
		ID:          generateID(),
		Environment: env,
		Status:      core.RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, environment, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Environment, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	s.logger.Debug("run created", "run_id", run.ID, "environment", env)
	return run, nil
}

// GetRun retrieves a run by id.
func (s *SQLiteStore) GetRun(id string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, environment, status, started_at, completed_at, error FROM runs WHERE id = ?`, id,
	)
	return scanRun(row)
}

// GetLatestRun retrieves the most recently started run for an environment.
func (s *SQLiteStore) GetLatestRun(env string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, environment, status, started_at, completed_at, error
		 FROM runs WHERE environment = ? ORDER BY started_at DESC LIMIT 1`, env,
	)
	return scanRun(row)
}

// CompleteRun marks a run as finished with the given status.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), time.Now().UTC(), errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// --- Stage run operations ---

// RecordStageRun inserts a stage run. The ID and StartedAt fields are
// filled in if unset.
func (s *SQLiteStore) RecordStageRun(stageRun *core.StageRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if stageRun.ID == "" {
		stageRun.ID = generateID()
	}
	if stageRun.StartedAt.IsZero() {
		stageRun.StartedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO stage_runs (id, run_id, stage, status, rows_written, started_at, error, execution_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		stageRun.ID, stageRun.RunID, stageRun.Stage, string(stageRun.Status),
		stageRun.RowsWritten, stageRun.StartedAt, stageRun.Error, stageRun.ExecutionMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record stage run: %w", err)
	}
	return nil
}

// UpdateStageRun updates a stage run's terminal state.
func (s *SQLiteStore) UpdateStageRun(id string, status core.StageRunStatus, rowsWritten int64, errMsg string, executionMS int64) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`UPDATE stage_runs SET status = ?, rows_written = ?, completed_at = ?, error = ?, execution_ms = ?
		 WHERE id = ?`,
		string(status), rowsWritten, time.Now().UTC(), errMsg, executionMS, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update stage run: %w", err)
	}
	return nil
}

// GetStageRunsForRun retrieves all stage runs for a run in start order.
func (s *SQLiteStore) GetStageRunsForRun(runID string) ([]*core.StageRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, stage, status, rows_written, started_at, completed_at, error, execution_ms
		 FROM stage_runs WHERE run_id = ? ORDER BY started_at`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stageRuns []*core.StageRun
	for rows.Next() {
		sr := &core.StageRun{}
		var status string
		var completedAt sql.NullTime
		if err := rows.Scan(&sr.ID, &sr.RunID, &sr.Stage, &status, &sr.RowsWritten,
			&sr.StartedAt, &completedAt, &sr.Error, &sr.ExecutionMS); err != nil {
			return nil, fmt.Errorf("failed to scan stage run: %w", err)
		}
		sr.Status = core.StageRunStatus(status)
		if completedAt.Valid {
			t := completedAt.Time
			sr.CompletedAt = &t
		}
		stageRuns = append(stageRuns, sr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stage runs: %w", err)
	}
	return stageRuns, nil
}

// scanRun scans a single run row.
func scanRun(row *sql.Row) (*core.Run, error) {
	run := &core.Run{}
	var status string
	var completedAt sql.NullTime
	if err := row.Scan(&run.ID, &run.Environment, &status, &run.StartedAt, &completedAt, &run.Error); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Status = core.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return run, nil
}

// Ensure SQLiteStore implements core.Store
var _ core.Store = (*SQLiteStore)(nil)
