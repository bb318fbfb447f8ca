package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kongdonovan/anarchy-and-associates/internal/config"
)

// Redis wraps the go-redis client. Used for command cooldowns and
// guild-scan locks.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// AcquireCooldown sets a cooldown key if absent. Returns true when the caller
// may proceed, false while the cooldown is still in effect. Redis errors are
// treated as "proceed" so an outage never blocks commands.
func (r *Redis) AcquireCooldown(ctx context.Context, key string, ttl time.Duration) bool {
	if r == nil || r.Client == nil || ttl <= 0 {
		return true
	}
	ok, err := r.Client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

// AcquireLock takes a best-effort guild-scoped lock for long scans.
func (r *Redis) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r == nil || r.Client == nil {
		return true, nil
	}
	return r.Client.SetNX(ctx, key, 1, ttl).Result()
}

// ReleaseLock releases a lock taken with AcquireLock.
func (r *Redis) ReleaseLock(ctx context.Context, key string) {
	if r == nil || r.Client == nil {
		return
	}
	_ = r.Client.Del(ctx, key).Err()
}
