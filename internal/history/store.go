// Package history persists per-project build outcomes in SQLite so past
// runs can be inspected with the history command.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one project conversion outcome.
type Record struct {
	ID         int64
	BuildID    string
	Project    string
	Status     string // success|failed
	DurationMS int64
	Error      string
	Timestamp  time.Time
}

// Statuses stored in records.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Store implements the build history using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the history database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create history directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		project TEXT NOT NULL,
		status TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_build_id ON builds(build_id);
	CREATE INDEX IF NOT EXISTS idx_builds_project ON builds(project);
	CREATE INDEX IF NOT EXISTS idx_builds_timestamp ON builds(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records one project outcome.
func (s *Store) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (build_id, project, status, duration_ms, error, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		rec.BuildID, rec.Project, rec.Status, rec.DurationMS, rec.Error, ts.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// Recent returns the most recent records, newest first. A non-empty project
// filters to that project; limit <= 0 means a default of 20.
func (s *Store) Recent(ctx context.Context, project string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	query := "SELECT id, build_id, project, status, duration_ms, error, timestamp FROM builds"
	args := []any{}
	if project != "" {
		query += " WHERE project = ?"
		args = append(args, project)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query build records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var ts int64
		var errText sql.NullString
		if err := rows.Scan(&rec.ID, &rec.BuildID, &rec.Project, &rec.Status, &rec.DurationMS, &errText, &ts); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		rec.Error = errText.String
		rec.Timestamp = time.Unix(ts, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
