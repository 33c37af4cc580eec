package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements catalog.Cache on a shared Redis instance so verification
// verdicts survive process restarts and are visible to every worker replica.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client. prefix namespaces the keys so the
// instance can be shared with other services.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "catalog"
	}
	return &Redis{client: client, prefix: prefix}
}

// DialRedis connects and ping-checks a Redis instance.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (r *Redis) key(k string) string {
	return r.prefix + ":" + k
}

// Get returns the cached value, reporting a miss for absent keys.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key for ttl. A non-positive ttl deletes the key.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
			return fmt.Errorf("redis del %q: %w", key, err)
		}
		return nil
	}
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
