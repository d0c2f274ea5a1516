package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const devicePrefix = "device:"

// RedisCache implements Cache using Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to redisURL and checks the connection.
func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func (r *RedisCache) key(thingName string) string {
	return devicePrefix + thingName
}

// Get retrieves a cached device id
func (r *RedisCache) Get(ctx context.Context, thingName string) (string, bool, error) {
	id, err := r.client.Get(ctx, r.key(thingName)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get device id: %w", err)
	}
	return id, true, nil
}

// Set stores a device id with TTL
func (r *RedisCache) Set(ctx context.Context, thingName, id string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(thingName), id, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set device id: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
