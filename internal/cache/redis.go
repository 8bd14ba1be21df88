package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"openshelf/internal/config"
)

// Redis is the shared Redis-backed cache.
// The client reconnects on its own, so an unreachable server at startup or
// later only turns lookups into misses until it comes back.
type Redis struct {
	client *redis.Client
	log    *slog.Logger
}

var _ Cache = (*Redis)(nil)

// NewRedisClient builds a client from REDIS_URL or host/port/password settings.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:            net.JoinHostPort(cfg.Host, cfg.Port),
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      3,
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 2 * time.Second,
	}), nil
}

// NewRedis wraps client. A failed initial ping is logged, not returned.
func NewRedis(ctx context.Context, client *redis.Client, log *slog.Logger) *Redis {
	r := &Redis{client: client, log: log.With(slog.String("component", "cache"))}
	if err := client.Ping(ctx).Err(); err != nil {
		r.log.Warn("redis unavailable, continuing without caching until it recovers", slog.String("error", err.Error()))
	} else {
		r.log.Info("redis connected")
	}
	return r
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			observe("miss")
			return nil, false
		}
		observe("error")
		r.log.Warn("cache get failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}
	observe("hit")
	return val, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.log.Warn("cache set failed", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

func (r *Redis) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.log.Warn("cache delete failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// Close releases the client connections.
func (r *Redis) Close() error {
	return r.client.Close()
}
