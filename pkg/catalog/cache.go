package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultCacheTTL bounds how stale a cached menu may get after an out-of-band seed.
const DefaultCacheTTL = 5 * time.Minute

// DefaultCacheKey is the Redis key holding the serialized menu.
const DefaultCacheKey = "food-delivery:catalog:foods"

// Cache stores the unfiltered menu. Get reports a miss on any failure.
type Cache interface {
	Get(ctx context.Context) ([]FoodItem, bool)
	Set(ctx context.Context, items []FoodItem) error
	Invalidate(ctx context.Context) error
}

// RedisCache keeps the menu in a single Redis string.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration

	hits   int64
	misses int64
}

// CacheOption customizes a RedisCache.
type CacheOption func(*RedisCache)

// WithCacheTTL overrides DefaultCacheTTL.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheKey overrides DefaultCacheKey.
func WithCacheKey(key string) CacheOption {
	return func(c *RedisCache) {
		if key != "" {
			c.key = key
		}
	}
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, opts ...CacheOption) *RedisCache {
	cache := &RedisCache{
		client: client,
		key:    DefaultCacheKey,
		ttl:    DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache
}

// Get returns the cached menu. Redis errors and corrupt payloads count as misses.
func (c *RedisCache) Get(ctx context.Context) ([]FoodItem, bool) {
	val, err := c.client.Get(ctx, c.key).Result()
	if err != nil {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	var items []FoodItem
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&c.hits, 1)
	return items, true
}

// Set writes the menu with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, items []FoodItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("write catalog cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached menu.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}

// Stats reports hit and miss counters.
func (c *RedisCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}
