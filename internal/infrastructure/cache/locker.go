package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	apptrade "github.com/Erenishere/pharam-sub008/internal/application/trade"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotObtained is returned when another process holds the lock
var ErrLockNotObtained = errors.New("lock not obtained")

const (
	lockRetryInterval = 50 * time.Millisecond
	lockRetryLimit    = 20
)

// RedisLocker implements the return service's Locker with redislock
type RedisLocker struct {
	client *redislock.Client
	opts   *redislock.Options
}

// NewRedisLocker creates a locker that waits up to about a second for a
// held lock before giving up
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(client),
		opts: &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(lockRetryInterval), lockRetryLimit),
		},
	}
}

// Obtain acquires key for ttl
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (apptrade.Lock, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, l.opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrLockNotObtained, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return &redisLock{lock: lock}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

// Release tolerates locks that already expired
func (l *redisLock) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

var _ apptrade.Locker = (*RedisLocker)(nil)
