package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seoblog/backend/internal/domain/keyword"
)

const redisKeyPrefix = "seoblog:keywords:"

// RedisKeywordCache stores keyword metrics as JSON strings with a TTL.
type RedisKeywordCache struct {
	client *redis.Client
}

// NewRedisKeywordCache connects and pings; an unreachable server is an error.
func NewRedisKeywordCache(ctx context.Context, addr, password string, db int) (*RedisKeywordCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisKeywordCache{client: client}, nil
}

// NewRedisKeywordCacheWithClient wraps an existing client.
func NewRedisKeywordCacheWithClient(client *redis.Client) *RedisKeywordCache {
	return &RedisKeywordCache{client: client}
}

func (c *RedisKeywordCache) Get(ctx context.Context, key string) ([]keyword.Metrics, bool, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var metrics []keyword.Metrics
	if err := json.Unmarshal(raw, &metrics); err != nil {
		// A corrupt entry behaves like a miss and gets overwritten.
		return nil, false, nil
	}
	return metrics, true, nil
}

func (c *RedisKeywordCache) Set(ctx context.Context, key string, metrics []keyword.Metrics, ttl time.Duration) error {
	raw, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisKeywordCache) Close() error {
	return c.client.Close()
}
