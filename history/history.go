// Package history keeps a local SQLite archive of saved postings so the
// same URL is not captured and uploaded twice.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS saved_jobs (
	url       TEXT PRIMARY KEY,
	title     TEXT NOT NULL,
	company   TEXT NOT NULL,
	record_id TEXT NOT NULL,
	saved_at  TEXT NOT NULL
);`

// Entry is one archived save.
type Entry struct {
	URL      string
	Title    string
	Company  string
	RecordID string
	SavedAt  time.Time
}

// Store is the archive handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: creating directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: opening database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Seen reports whether the URL has been saved before.
func (s *Store) Seen(ctx context.Context, url string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM saved_jobs WHERE url = ?", url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("history: lookup: %w", err)
	}
	return true, nil
}

// Record archives a completed save. Saving the same URL again (e.g. with
// --force) overwrites the previous entry.
func (s *Store) Record(ctx context.Context, e Entry) error {
	savedAt := e.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_jobs (url, title, company, record_id, saved_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
		   title = excluded.title,
		   company = excluded.company,
		   record_id = excluded.record_id,
		   saved_at = excluded.saved_at`,
		e.URL, e.Title, e.Company, e.RecordID, savedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Get returns the archived entry for url, or nil when absent.
func (s *Store) Get(ctx context.Context, url string) (*Entry, error) {
	var e Entry
	var savedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT url, title, company, record_id, saved_at FROM saved_jobs WHERE url = ?", url).
		Scan(&e.URL, &e.Title, &e.Company, &e.RecordID, &savedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: get: %w", err)
	}
	if t, perr := time.Parse(time.RFC3339, savedAt); perr == nil {
		e.SavedAt = t
	}
	return &e, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
