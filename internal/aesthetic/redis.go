package aesthetic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the aesthetic cache in Redis hashes, one per normalized
// (artist, song) pair. Entries carry no TTL; the cache never evicts.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects a Redis client and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("aesthetic: redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("aesthetic: redis ping: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// redisKey joins the normalized pair with a unit separator, which cannot
// occur in trimmed song metadata.
func redisKey(artist, song string) string {
	return "aesthetic:" + normalizeKey(artist) + "\x1f" + normalizeKey(song)
}

func (s *RedisStore) Get(ctx context.Context, artist, song string) (string, bool, error) {
	description, err := s.client.HGet(ctx, redisKey(artist, song), "description").Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("aesthetic: get: %w", err)
	}
	return description, true, nil
}

func (s *RedisStore) Put(ctx context.Context, artist, song, description string) error {
	err := s.client.HSet(ctx, redisKey(artist, song), map[string]any{
		"description": description,
		"created_at":  time.Now().UTC().Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return fmt.Errorf("aesthetic: put: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
