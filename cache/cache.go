// Package cache is a small read-through cache for analytics responses.
// Aggregations walk whole order ranges in memory, so dashboard polling is
// served from redis for a short TTL instead of rescanning per request.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// Initialize connects to redis. Callers treat a nil *Client as a disabled
// cache, so a missing REDIS_URL simply skips initialization.
func Initialize(redisURL string, ttl time.Duration) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// Get unmarshals the cached value for key into dest. Returns false on a
// miss or when the cache is disabled.
func (c *Client) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	val, err := c.rdb.Get(ctx, "analytics:"+key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

// Set stores value under key for the configured TTL. Errors are ignored:
// the cache is an optimization, never a source of truth.
func (c *Client) Set(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, "analytics:"+key, data, c.ttl)
}
