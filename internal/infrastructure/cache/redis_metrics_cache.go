package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tripdesk/backend/internal/domain/finance"
)

const metricsKey = "finance:metrics:agency"

// RedisMetricsCache caches agency-wide dashboard metrics in Redis with a
// short TTL. A stale entry is at most the TTL behind; every mutation
// invalidates it explicitly anyway.
type RedisMetricsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisMetricsCache creates a metrics cache with its own Redis client
func NewRedisMetricsCache(cfg RedisConfig, ttl time.Duration) (*RedisMetricsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisMetricsCacheWithClient(client, ttl), nil
}

// NewRedisMetricsCacheWithClient creates a metrics cache sharing an existing
// Redis client. Useful for testing and for sharing a client across components.
func NewRedisMetricsCacheWithClient(client *redis.Client, ttl time.Duration) *RedisMetricsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisMetricsCache{client: client, ttl: ttl}
}

// Get returns the cached metrics, or nil on a miss
func (c *RedisMetricsCache) Get(ctx context.Context) (*finance.Metrics, error) {
	data, err := c.client.Get(ctx, metricsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached metrics: %w", err)
	}

	var m finance.Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		// A corrupt entry is treated as a miss and dropped
		_ = c.client.Del(ctx, metricsKey).Err()
		return nil, nil
	}
	return &m, nil
}

// Set stores the metrics with the configured TTL
func (c *RedisMetricsCache) Set(ctx context.Context, m finance.Metrics) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}
	if err := c.client.Set(ctx, metricsKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache metrics: %w", err)
	}
	return nil
}

// Invalidate drops the cached metrics
func (c *RedisMetricsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, metricsKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached metrics: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client
func (c *RedisMetricsCache) Close() error {
	return c.client.Close()
}
