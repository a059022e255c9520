// Package redis implements engine.ResultCache on a Redis server.
//
// Results are stored as JSON under "goal-engine:result:<key>" with an
// optional TTL. A miss is (nil, nil); connection failures are returned so
// callers can decide to evaluate without the cache.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/warp/goal-engine/engine"
)

// KeyPrefix namespaces every cache entry.
const KeyPrefix = "goal-engine:result:"

// Cache is a Redis-backed engine.ResultCache.
type Cache struct {
	client *goredis.Client
	ttl    time.Duration // 0 = no expiry
}

// NewCache connects to addr lazily; no command is sent until first use.
func NewCache(addr string, ttl time.Duration) *Cache {
	return NewCacheWithClient(goredis.NewClient(&goredis.Options{Addr: addr}), ttl)
}

// NewCacheWithClient wraps an existing client.
func NewCacheWithClient(client *goredis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Key returns the Redis key for a result key.
func Key(key string) string {
	return KeyPrefix + key
}

// Ping checks the connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Get returns the cached result, or nil on a miss.
func (c *Cache) Get(ctx context.Context, key string) (*engine.GoalResult, error) {
	data, err := c.client.Get(ctx, Key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var result engine.GoalResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}
	return &result, nil
}

// Set stores result under key.
func (c *Cache) Set(ctx context.Context, key string, result *engine.GoalResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.client.Set(ctx, Key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

var _ engine.ResultCache = (*Cache)(nil)
