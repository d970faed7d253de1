package aesthetic

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteCreateTable = `
CREATE TABLE IF NOT EXISTS aesthetics (
    artist      TEXT NOT NULL,
    song        TEXT NOT NULL,
    description TEXT NOT NULL,
    created_at  TEXT NOT NULL,
    PRIMARY KEY (artist, song)
)`

const sqliteGet = `SELECT description FROM aesthetics WHERE artist = ? AND song = ?`

const sqliteUpsert = `
INSERT INTO aesthetics (artist, song, description, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (artist, song) DO UPDATE SET
    description = excluded.description,
    created_at  = excluded.created_at`

// SQLiteStore is the default Store backed by an embedded SQLite file.
// Concurrent readers and serialized writers are handled by the engine.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the cache database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("aesthetic: sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("aesthetic: ensure cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("aesthetic: open sqlite: %w", err)
	}
	// modernc.org/sqlite serializes writes itself; a single connection
	// avoids SQLITE_BUSY between concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteCreateTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("aesthetic: create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, artist, song string) (string, bool, error) {
	var description string
	err := s.db.QueryRowContext(ctx, sqliteGet, normalizeKey(artist), normalizeKey(song)).Scan(&description)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("aesthetic: get: %w", err)
	}
	return description, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, artist, song, description string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, sqliteUpsert, normalizeKey(artist), normalizeKey(song), description, now); err != nil {
		return fmt.Errorf("aesthetic: put: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
