package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultListLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertRunStmt *sql.Stmt
	getRunStmt    *sql.Stmt
}

// NewSQLiteStore opens or creates a SQLite store at the given path.
// ":memory:" gives an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := st.prepareStatements(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			dataset TEXT NOT NULL,
			system TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			total_samples INTEGER NOT NULL,
			performance_samples INTEGER NOT NULL,
			observations INTEGER NOT NULL,
			failures INTEGER NOT NULL,
			metric REAL NOT NULL,
			formatted TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	var err error
	s.insertRunStmt, err = s.db.Prepare(`
		INSERT INTO runs (
			id, dataset, system, started_at, finished_at, total_samples,
			performance_samples, observations, failures, metric, formatted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare insert run: %w", err)
	}

	s.getRunStmt, err = s.db.Prepare(`
		SELECT id, dataset, system, started_at, finished_at, total_samples,
			performance_samples, observations, failures, metric, formatted
		FROM runs WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("store: prepare get run: %w", err)
	}
	return nil
}

// SaveRun persists one run record.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) error {
	if s == nil || s.insertRunStmt == nil {
		return errors.New("store: nil sqlite store")
	}
	if run == nil {
		return errors.New("store: nil run")
	}
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("store: run missing id")
	}

	_, err := s.insertRunStmt.ExecContext(ctx,
		run.ID,
		run.Dataset,
		run.System,
		run.StartedAt.UnixMilli(),
		run.FinishedAt.UnixMilli(),
		run.TotalSamples,
		run.PerformanceSamples,
		run.Observations,
		run.Failures,
		run.Metric,
		run.Formatted,
	)
	if err != nil {
		return fmt.Errorf("store: save run %q: %w", run.ID, err)
	}
	return nil
}

// ErrRunNotFound reports a missing run id.
var ErrRunNotFound = errors.New("store: run not found")

// GetRun returns the run with the given id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if s == nil || s.getRunStmt == nil {
		return nil, errors.New("store: nil sqlite store")
	}

	row := s.getRunStmt.QueryRowContext(ctx, strings.TrimSpace(id))
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, id)
	}
	return run, err
}

// ListRuns returns runs matching the filter, most recent first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: nil sqlite store")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := strings.Builder{}
	query.WriteString(`
		SELECT id, dataset, system, started_at, finished_at, total_samples,
			performance_samples, observations, failures, metric, formatted
		FROM runs
	`)
	var (
		conds []string
		args  []any
	)
	if v := strings.TrimSpace(filter.Dataset); v != "" {
		conds = append(conds, "dataset = ?")
		args = append(args, v)
	}
	if v := strings.TrimSpace(filter.System); v != "" {
		conds = append(conds, "system = ?")
		args = append(args, v)
	}
	if len(conds) > 0 {
		query.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	query.WriteString(" ORDER BY finished_at DESC, id DESC LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return out, nil
}

// Close releases prepared statements and the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	if s.insertRunStmt != nil {
		_ = s.insertRunStmt.Close()
	}
	if s.getRunStmt != nil {
		_ = s.getRunStmt.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		run                 RunRecord
		startedMs, finishMs int64
	)
	err := row.Scan(
		&run.ID,
		&run.Dataset,
		&run.System,
		&startedMs,
		&finishMs,
		&run.TotalSamples,
		&run.PerformanceSamples,
		&run.Observations,
		&run.Failures,
		&run.Metric,
		&run.Formatted,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan run: %w", err)
	}
	run.StartedAt = time.UnixMilli(startedMs).UTC()
	run.FinishedAt = time.UnixMilli(finishMs).UTC()
	return &run, nil
}
