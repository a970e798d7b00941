package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/imgconv/internal/log"
	"github.com/slok/imgconv/internal/model"
	"github.com/slok/imgconv/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.RunRepository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateRun stores a finished run with its inputs and outcomes.
func (r *Repository) CreateRun(ctx context.Context, run model.RunResult) (err error) {
	if run.ID == "" {
		return fmt.Errorf("run id is required: %w", model.ErrValidation)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var endedAt *int64
	if !run.EndedAt.IsZero() {
		u := run.EndedAt.Unix()
		endedAt = &u
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, format, output_dir, state, processed, total, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Job.Format,
		run.Job.OutputDir,
		run.State,
		run.Processed,
		run.Total,
		run.StartedAt.Unix(),
		endedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: runs.") {
			return fmt.Errorf("run %s: %w", run.ID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert run: %w", err)
	}

	for i, p := range run.Job.Files {
		_, err = tx.ExecContext(ctx, `INSERT INTO run_inputs (run_id, seq, path) VALUES (?, ?, ?)`, run.ID, i, p)
		if err != nil {
			return fmt.Errorf("could not insert run input: %w", err)
		}
	}

	for i, o := range run.Outcomes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_outcomes (run_id, seq, status, input_path, output_path, reason)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, i, o.Status, o.InputPath, o.OutputPath, o.Reason)
		if err != nil {
			return fmt.Errorf("could not insert run outcome: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Created run in repository: %s", run.ID)
	return nil
}

// GetRun retrieves a run by ID.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.RunResult, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, format, output_dir, state, processed, total, started_at, ended_at
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query run: %w", err)
	}

	if err := r.loadDetails(ctx, &run); err != nil {
		return nil, err
	}

	return &run, nil
}

// ListRuns returns all runs, newest first.
func (r *Repository) ListRuns(ctx context.Context) ([]model.RunResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, format, output_dir, state, processed, total, started_at, ended_at
		FROM runs
		ORDER BY started_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("could not query runs: %w", err)
	}
	defer rows.Close()

	var runs []model.RunResult
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	for i := range runs {
		if err := r.loadDetails(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}

	return runs, nil
}

func (r *Repository) loadDetails(ctx context.Context, run *model.RunResult) error {
	inRows, err := r.db.QueryContext(ctx, `SELECT path FROM run_inputs WHERE run_id = ? ORDER BY seq`, run.ID)
	if err != nil {
		return fmt.Errorf("could not query run inputs: %w", err)
	}
	defer inRows.Close()

	for inRows.Next() {
		var p string
		if err := inRows.Scan(&p); err != nil {
			return fmt.Errorf("could not scan run input: %w", err)
		}
		run.Job.Files = append(run.Job.Files, p)
	}
	if err := inRows.Err(); err != nil {
		return fmt.Errorf("error iterating run inputs: %w", err)
	}

	outRows, err := r.db.QueryContext(ctx, `
		SELECT status, input_path, output_path, reason
		FROM run_outcomes
		WHERE run_id = ?
		ORDER BY seq
	`, run.ID)
	if err != nil {
		return fmt.Errorf("could not query run outcomes: %w", err)
	}
	defer outRows.Close()

	for outRows.Next() {
		var o model.ConversionOutcome
		if err := outRows.Scan(&o.Status, &o.InputPath, &o.OutputPath, &o.Reason); err != nil {
			return fmt.Errorf("could not scan run outcome: %w", err)
		}
		o.FileName = filepath.Base(o.InputPath)
		run.Outcomes = append(run.Outcomes, o)
	}
	if err := outRows.Err(); err != nil {
		return fmt.Errorf("error iterating run outcomes: %w", err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (model.RunResult, error) {
	var run model.RunResult
	var startedAt int64
	var endedAt sql.NullInt64

	err := s.Scan(
		&run.ID,
		&run.Job.Format,
		&run.Job.OutputDir,
		&run.State,
		&run.Processed,
		&run.Total,
		&startedAt,
		&endedAt,
	)
	if err != nil {
		return model.RunResult{}, err
	}

	run.StartedAt = timeFromUnix(startedAt)
	if endedAt.Valid {
		run.EndedAt = timeFromUnix(endedAt.Int64)
	}

	return run, nil
}

func timeFromUnix(unix int64) time.Time { return time.Unix(unix, 0).UTC() }
