package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"steam-soundboard/backend/pkg/logger"
)

// Redis is a KV backed by a Redis server. Connectivity problems degrade
// to cache misses so the process keeps serving from the authoritative store.
type Redis struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedis creates a Redis-backed KV for the given address.
func NewRedis(addr, password string, db int, log *logger.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{client: client, log: log}
}

// Ping verifies connectivity; used at startup to decide whether to
// fall back to the in-memory cache.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get retrieves a value; any error reads as a miss.
func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("redis get failed", "key", key, "error", err.Error())
		}
		return "", false
	}
	return val, true
}

// Set stores a value with a TTL; errors are logged and swallowed.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.log.Warn("redis set failed", "key", key, "error", err.Error())
	}
}

// Delete removes a key; errors are logged and swallowed.
func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.log.Warn("redis del failed", "key", key, "error", err.Error())
	}
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
