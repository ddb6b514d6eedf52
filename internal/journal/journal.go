package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrRunNotFound is returned when a run ID is not in the journal
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded cleanup run
type Run struct {
	ID           string
	StartedAt    time.Time
	Root         string
	Language     string
	Mode         string
	Requested    int
	Changed      int
	FilesChanged int
	Failed       int
	BackupDir    string
}

// Journal stores runs in SQLite
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	j := &Journal{db: db}
	if err := j.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return j, nil
}

// createTables creates the journal schema if it does not exist yet
func (j *Journal) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id text PRIMARY KEY,
			started_at integer NOT NULL,
			root text NOT NULL,
			language text NOT NULL,
			mode text NOT NULL,
			requested integer NOT NULL,
			changed integer NOT NULL,
			files_changed integer NOT NULL,
			failed integer NOT NULL,
			backup_dir text NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_runs_started ON runs (started_at)`,
	}

	for _, query := range queries {
		if _, err := j.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// Record stores a run
func (j *Journal) Record(ctx context.Context, run Run) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, root, language, mode, requested, changed, files_changed, failed, backup_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixMilli(), run.Root, run.Language, run.Mode,
		run.Requested, run.Changed, run.FilesChanged, run.Failed, run.BackupDir,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// List returns up to limit runs, newest first. A limit below one returns all runs.
func (j *Journal) List(ctx context.Context, limit int) ([]Run, error) {
	if limit < 1 {
		limit = -1
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, started_at, root, language, mode, requested, changed, files_changed, failed, backup_dir
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// Get returns the run with the given ID
func (j *Journal) Get(ctx context.Context, id string) (Run, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT id, started_at, root, language, mode, requested, changed, files_changed, failed, backup_dir
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Close closes the database
func (j *Journal) Close() error {
	return j.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run       Run
		startedAt int64
	)

	err := s.Scan(&run.ID, &startedAt, &run.Root, &run.Language, &run.Mode,
		&run.Requested, &run.Changed, &run.FilesChanged, &run.Failed, &run.BackupDir)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to read run: %w", err)
	}

	run.StartedAt = time.UnixMilli(startedAt)
	return run, nil
}
