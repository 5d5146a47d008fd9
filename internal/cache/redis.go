package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps cache entries in Redis. Expiry uses the native TTL, with
// ExpiresAt stored alongside so the cache's lazy-expiry check still holds.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore parses redisURL, verifies connectivity, and returns a Store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{client: client, prefix: "ojs:cache:"}, nil
}

// redisEntry is the JSON shape stored per key.
type redisEntry struct {
	Value       []byte    `json:"value"`
	TokensSaved int       `json:"tokens_saved"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (s *RedisStore) GetEntry(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get: %w", err)
	}

	var e redisEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode cache entry: %w", err)
	}
	return Entry{Value: e.Value, TokensSaved: e.TokensSaved, ExpiresAt: e.ExpiresAt}, true, nil
}

func (s *RedisStore) SetEntry(ctx context.Context, key string, e Entry) error {
	raw, err := json.Marshal(redisEntry{
		Value:       e.Value,
		TokensSaved: e.TokensSaved,
		ExpiresAt:   e.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	ttl := time.Until(e.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteEntry(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
