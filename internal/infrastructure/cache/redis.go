// Package cache holds the optional Redis-backed helpers: cross-process return
// locks and stock alert throttling. Every consumer works without them.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Components are the Redis-backed collaborators, nil-safe to hand to services
type Components struct {
	Client   *redis.Client
	Locker   *RedisLocker
	Throttle *RedisAlertThrottle
}

// Close releases the Redis client
func (c *Components) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// Connect builds the Redis components when Redis is enabled. It returns nil
// when Redis is disabled or unreachable; the failure is logged and callers
// fall back to in-process locks and throttling.
func Connect(ctx context.Context, cfg config.RedisConfig, alertWindow time.Duration, logger *zap.Logger) *Components {
	if !cfg.Enabled {
		logger.Info("redis disabled, using in-process locks and throttling")
		return nil
	}
	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("redis unavailable, using in-process locks and throttling",
			zap.String("addr", cfg.Addr()), zap.Error(err))
		return nil
	}
	logger.Info("redis connected", zap.String("addr", cfg.Addr()))
	return &Components{
		Client:   client,
		Locker:   NewRedisLocker(client),
		Throttle: NewRedisAlertThrottle(client, alertWindow),
	}
}
