package vendapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisTokenCache keeps the telemetry access token in Redis so restarts and
// sibling workers reuse it instead of re-authenticating.
type RedisTokenCache struct {
	client *redis.Client
	key    string
}

// NewRedisTokenCache wraps an existing Redis client. key is the cache key the
// token is stored under.
func NewRedisTokenCache(client *redis.Client, key string) *RedisTokenCache {
	return &RedisTokenCache{client: client, key: key}
}

// Get returns the cached token and its remaining TTL, or an empty token on a
// cache miss.
func (c *RedisTokenCache) Get(ctx context.Context) (string, time.Duration, error) {
	pipe := c.client.Pipeline()
	get := pipe.Get(ctx, c.key)
	ttl := pipe.TTL(ctx, c.key)
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return "", 0, nil
		}
		return "", 0, err
	}
	return get.Val(), ttl.Val(), nil
}

// Set stores the token with the given TTL.
func (c *RedisTokenCache) Set(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, c.key, token, ttl).Err()
}

// Delete evicts the token, typically after the API rejected it.
func (c *RedisTokenCache) Delete(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
