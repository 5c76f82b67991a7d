package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m0rjc/OrmTestKit/internal/metrics"
)

// SecondLevelCache stores loaded entities across sessions, keyed by region
// (usually the table name) and primary key.
type SecondLevelCache interface {
	// Get decodes the cached entry into dest and reports whether it was found.
	Get(ctx context.Context, region string, id any, dest any) (bool, error)
	Put(ctx context.Context, region string, id any, value any) error
	Evict(ctx context.Context, region string, id any) error
}

// noCache is used by session factories built without a second-level cache.
type noCache struct{}

func (noCache) Get(context.Context, string, any, any) (bool, error) { return false, nil }
func (noCache) Put(context.Context, string, any, any) error         { return nil }
func (noCache) Evict(context.Context, string, any) error            { return nil }

// DefaultCacheTTL applies when NewRedisCache is given no TTL.
const DefaultCacheTTL = 5 * time.Minute

// RedisCache is a SecondLevelCache storing JSON encoded entities in Redis.
type RedisCache struct {
	redis *RedisClient
	ttl   time.Duration
}

func NewRedisCache(client *RedisClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{redis: client, ttl: ttl}
}

func cacheKey(region string, id any) string {
	return fmt.Sprintf("cache:%s:%v", region, id)
}

func (c *RedisCache) Get(ctx context.Context, region string, id any, dest any) (bool, error) {
	data, err := c.redis.Get(ctx, cacheKey(region, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheOperations.WithLabelValues(region, "get", "miss").Inc()
		return false, nil
	}
	if err != nil {
		metrics.CacheOperations.WithLabelValues(region, "get", "error").Inc()
		return false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		metrics.CacheOperations.WithLabelValues(region, "get", "error").Inc()
		return false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	metrics.CacheOperations.WithLabelValues(region, "get", "hit").Inc()
	return true, nil
}

func (c *RedisCache) Put(ctx context.Context, region string, id any, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		metrics.CacheOperations.WithLabelValues(region, "put", "error").Inc()
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.redis.Set(ctx, cacheKey(region, id), data, c.ttl).Err(); err != nil {
		metrics.CacheOperations.WithLabelValues(region, "put", "error").Inc()
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	metrics.CacheOperations.WithLabelValues(region, "put", "ok").Inc()
	return nil
}

func (c *RedisCache) Evict(ctx context.Context, region string, id any) error {
	if err := c.redis.Del(ctx, cacheKey(region, id)).Err(); err != nil {
		metrics.CacheOperations.WithLabelValues(region, "evict", "error").Inc()
		return fmt.Errorf("failed to evict cache entry: %w", err)
	}
	metrics.CacheOperations.WithLabelValues(region, "evict", "ok").Inc()
	return nil
}
