// Package aesthetic caches visual aesthetic descriptions keyed by
// normalized (artist, song) pairs.
package aesthetic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Record is one cached aesthetic description.
type Record struct {
	Artist      string
	Song        string
	Description string
	CreatedAt   time.Time
}

// Store is a point get/put key-value store with upsert semantics. Callers
// own the cache-aside policy: check Get, fetch from the resolver on a miss,
// and write back with Put. Implementations rely on the underlying engine's
// locking; no store performs a read-modify-write across Get and Put.
type Store interface {
	Get(ctx context.Context, artist, song string) (string, bool, error)
	Put(ctx context.Context, artist, song, description string) error
	Close() error
}

// Config selects and parameterizes a Store implementation.
type Config struct {
	Driver        string
	SQLitePath    string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
}

// Open constructs the Store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	case "postgres":
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case "redis":
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword)
	default:
		return nil, fmt.Errorf("aesthetic: unknown store driver %q", cfg.Driver)
	}
}

// normalizeKey folds case and trims surrounding whitespace so lookups are
// insensitive to how the song metadata was spelled. A Caser is stateful and
// not safe for concurrent use, so each call gets its own.
func normalizeKey(v string) string {
	return cases.Fold().String(strings.TrimSpace(v))
}

// negativeResultSentinel is the resolver's in-band "no data" answer. It is a
// substring match against model-generated prose, so the check lives behind
// IsNegativeResult in case the upstream phrasing ever changes.
const negativeResultSentinel = "No visual data found"

// IsNegativeResult reports whether a resolver description carries the
// negative-result sentinel. Such descriptions must never be cached, so a
// later query retries the search once visual data becomes available.
func IsNegativeResult(description string) bool {
	return strings.Contains(description, negativeResultSentinel)
}
