// Package runindex persists pipeline run manifests in a local SQLite
// database so past runs can be listed and compared without re-walking the
// dataset.
package runindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/provtagio/provtag/pkg/dataset"
)

// ErrNotFound is returned when no run with the requested ID exists.
var ErrNotFound = errors.New("run not found")

// Store is a SQLite-backed index of pipeline run manifests.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the run index at dbPath. The path
// can be ":memory:" for an in-memory index.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening run index: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating run index: %w", err)
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		generated_at DATETIME NOT NULL,
		content_root TEXT NOT NULL,
		strict INTEGER NOT NULL,
		total_files INTEGER NOT NULL,
		processed_files INTEGER NOT NULL,
		skipped_files INTEGER NOT NULL,
		error_files INTEGER NOT NULL,
		manifest TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_generated_at ON runs(generated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Put records one run manifest. Re-recording the same run ID is a no-op.
func (s *Store) Put(ctx context.Context, m *dataset.Manifest) error {
	if m == nil || m.Statistics == nil {
		return errors.New("cannot store incomplete manifest")
	}

	manifestJSON, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	strict := 0
	if m.Configuration.Strict {
		strict = 1
	}

	query := `INSERT OR IGNORE INTO runs
		(run_id, generated_at, content_root, strict, total_files, processed_files, skipped_files, error_files, manifest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		m.RunID,
		m.GeneratedAt.UTC(),
		m.Configuration.ContentRoot,
		strict,
		m.Statistics.Summary.TotalFiles,
		m.Statistics.Summary.ProcessedFiles,
		m.Statistics.Summary.SkippedFiles,
		m.Statistics.Summary.ErrorFiles,
		string(manifestJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	return nil
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	RunID       string
	GeneratedAt time.Time
	ContentRoot string
	Strict      bool
	Total       int
	Processed   int
	Skipped     int
	Errors      int
}

// List returns recorded runs, most recent first.
func (s *Store) List(ctx context.Context) ([]RunSummary, error) {
	query := `SELECT run_id, generated_at, content_root, strict,
		total_files, processed_files, skipped_files, error_files
		FROM runs ORDER BY generated_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var strict int
		if err := rows.Scan(&r.RunID, &r.GeneratedAt, &r.ContentRoot, &strict,
			&r.Total, &r.Processed, &r.Skipped, &r.Errors); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		r.Strict = strict != 0
		out = append(out, r)
	}

	return out, rows.Err()
}

// Get retrieves the full manifest for a run ID.
func (s *Store) Get(ctx context.Context, runID string) (*dataset.Manifest, error) {
	query := `SELECT manifest FROM runs WHERE run_id = ?`

	var manifestJSON string
	err := s.db.QueryRowContext(ctx, query, runID).Scan(&manifestJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", runID, err)
	}

	m := &dataset.Manifest{}
	if err := json.Unmarshal([]byte(manifestJSON), m); err != nil {
		return nil, fmt.Errorf("unmarshaling manifest: %w", err)
	}

	return m, nil
}
