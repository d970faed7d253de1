package aesthetic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgCreateTable = `
CREATE TABLE IF NOT EXISTS aesthetics (
    artist      TEXT NOT NULL,
    song        TEXT NOT NULL,
    description TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (artist, song)
)`

const pgGet = `SELECT description FROM aesthetics WHERE artist = $1 AND song = $2`

const pgUpsert = `
INSERT INTO aesthetics (artist, song, description, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (artist, song) DO UPDATE SET
    description = excluded.description,
    created_at  = excluded.created_at`

// PostgresStore keeps the aesthetic cache in a shared Postgres database,
// for deployments where several instances should hit one cache.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pgx pool and ensures the cache table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("aesthetic: database url is required")
	}

	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("aesthetic: parse database url: %w", err)
	}
	poolCfg.MaxConns = 5
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("aesthetic: connect database: %w", err)
	}

	if _, err := pool.Exec(connectCtx, pgCreateTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("aesthetic: create table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, artist, song string) (string, bool, error) {
	var description string
	err := s.pool.QueryRow(ctx, pgGet, normalizeKey(artist), normalizeKey(song)).Scan(&description)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("aesthetic: get: %w", err)
	}
	return description, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, artist, song, description string) error {
	if _, err := s.pool.Exec(ctx, pgUpsert, normalizeKey(artist), normalizeKey(song), description, time.Now().UTC()); err != nil {
		return fmt.Errorf("aesthetic: put: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)
