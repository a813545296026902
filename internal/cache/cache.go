// Package cache wraps Redis behind the two primitives the rest of the
// app needs: add-if-absent with a TTL, and delete. That is enough to
// build the advisory task mutex.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mitoc/trips-api/internal/config"
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(conf *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("client.Ping -> %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Add stores a value only if the key is absent, with an expiration.
// Returns whether the key was set.
func (c *RedisCache) Add(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key, value, ttl).Result()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
