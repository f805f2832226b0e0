package fallback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "mobility:fallback:"

// RedisStore is the redis-backed PersistentStore. Each source name maps to
// one hash holding the serialized payload and the last-success timestamp.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an already-connected redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(key string) string {
	return keyPrefix + key
}

// Put stores the payload and timestamp, overwriting any prior entry.
func (s *RedisStore) Put(ctx context.Context, key string, payload []byte, ts time.Time) error {
	err := s.client.HSet(ctx, redisKey(key),
		"payload", payload,
		"timestamp", ts.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("redis cache write for %q: %w", key, err)
	}
	return nil
}

// Get returns the payload and timestamp for a key, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	vals, err := s.client.HGetAll(ctx, redisKey(key)).Result()
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis cache read for %q: %w", key, err)
	}
	if len(vals) == 0 {
		// HGetAll returns an empty map, not redis.Nil, for a missing key.
		return nil, time.Time{}, ErrNotFound
	}

	payload, ok := vals["payload"]
	if !ok {
		return nil, time.Time{}, ErrNotFound
	}

	ts, err := time.Parse(time.RFC3339Nano, vals["timestamp"])
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis cache timestamp for %q: %w", key, err)
	}

	return []byte(payload), ts, nil
}

// Delete removes the entry for a key. Deleting a missing key is not an error.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis cache delete for %q: %w", key, err)
	}
	return nil
}

// ListKeys returns every cached source name.
func (s *RedisStore) ListKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis cache key scan: %w", err)
	}
	return keys, nil
}
