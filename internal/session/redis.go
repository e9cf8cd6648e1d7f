package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Cache backed by Redis, for deployments that run more than
// one bot instance behind the same store. Entry expiry is delegated to Redis
// key TTLs, so the last-write-wins and lazy-expiry semantics match
// MemoryCache without any sweep loop.
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// RedisConfig holds connection settings for the Redis session backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NewRedisCache creates a Redis-backed cache. A non-positive ttl falls back
// to DefaultTTL.
func NewRedisCache(cfg *RedisConfig, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl:       ttl,
		keyPrefix: "pulsebot:session:",
	}
}

// Put stores the item ids for a conversation with the cache TTL.
func (c *RedisCache) Put(ctx context.Context, conversationID string, itemIDs []string) error {
	data, err := json.Marshal(itemIDs)
	if err != nil {
		return fmt.Errorf("failed to encode session entry: %w", err)
	}

	if err := c.client.Set(ctx, c.keyPrefix+conversationID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session entry: %w", err)
	}
	return nil
}

// Get returns the cached ids for a conversation, or absent once the key TTL
// has elapsed.
func (c *RedisCache) Get(ctx context.Context, conversationID string) ([]string, bool, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+conversationID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read session entry: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, false, fmt.Errorf("failed to decode session entry: %w", err)
	}
	return ids, true, nil
}

// Close releases the underlying Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
