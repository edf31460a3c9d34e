// Package cache is a flat key-value store for generated rule documents and
// workflow snapshots, backed by SQLite.
//
// Keys are namespaced by prefix: "rule/<name>" for documents and
// "session/<id>" for workflow state. Nothing in the workflow depends on the
// cache; callers treat a cache failure as a logged miss.
package cache

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

	"github.com/HendryAvila/rulewright/internal/apperr"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is replaced in tests.
var timeNow = time.Now

const (
	RulePrefix    = "rule/"
	SessionPrefix = "session/"
)

// RuleKey is the cache key for a generated document.
func RuleKey(name string) string { return RulePrefix + name }

// SessionKey is the cache key for a workflow snapshot.
func SessionKey(id string) string { return SessionPrefix + id }

// Entry is one cached value.
type Entry struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Store is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) cache.db inside dataDir.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrStorage, "cache: create data dir")
	}

	dbPath := filepath.Join(dataDir, "cache.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrStorage, "cache: open database")
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, apperr.Wrapf(err, apperr.ErrStorage, "cache: pragma %q", p)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, apperr.Wrap(err, apperr.ErrStorage, "cache: migration")
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_updated ON entries(updated_at DESC);
	`)
	return err
}

func now() string {
	return timeNow().UTC().Format(time.RFC3339)
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return apperr.New(apperr.ErrInvalidInput, "cache: key is required")
	}
	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, ts, ts)
	if err != nil {
		return apperr.Wrapf(err, apperr.ErrStorage, "cache: put %q", key)
	}
	return nil
}

// Get returns the entry for key. A missing key is an apperr.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT key, value, created_at, updated_at FROM entries WHERE key = ?`, key,
	).Scan(&e.Key, &e.Value, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, apperr.Newf(apperr.ErrNotFound, "cache: no entry for %q", key)
	}
	if err != nil {
		return Entry{}, apperr.Wrapf(err, apperr.ErrStorage, "cache: get %q", key)
	}
	return e, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
		return apperr.Wrapf(err, apperr.ErrStorage, "cache: delete %q", key)
	}
	return nil
}

// List returns entries whose key starts with prefix, most recently
// updated first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, prefix string, limit int) ([]Entry, error) {
	query := `SELECT key, value, created_at, updated_at FROM entries
		WHERE substr(key, 1, ?) = ?
		ORDER BY updated_at DESC, key`
	args := []any{len(prefix), prefix}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.ErrStorage, "cache: list %q", prefix)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, apperr.Wrap(err, apperr.ErrStorage, "cache: scan entry")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache: list %q: %w", prefix, err)
	}
	return out, nil
}
