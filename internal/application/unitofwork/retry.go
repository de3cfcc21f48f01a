// Package unitofwork runs application operations as retryable units of
// work. A unit that loses an optimistic-concurrency race is re-run from the
// start with exponential backoff; every other error ends it immediately.
package unitofwork

import (
	"context"
	"fmt"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryPolicy bounds how often a conflicting unit of work is re-run
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 5,
		BaseDelay:  20 * time.Millisecond,
		MaxDelay:   500 * time.Millisecond,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	if b.InitialInterval <= 0 {
		b.InitialInterval = 20 * time.Millisecond
	}
	b.MaxInterval = p.MaxDelay
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	b.MaxElapsedTime = 0
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// Run executes op, re-running it while it fails with a consistency conflict.
// When retries are exhausted the last conflict is returned wrapped, so its
// kind is still shared.KindConsistencyConflict.
func (p RetryPolicy) Run(ctx context.Context, logger *zap.Logger, name string, op func(ctx context.Context) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if shared.IsConflict(err) {
			return err
		}
		return backoff.Permanent(err)
	}, p.backOff(ctx), func(err error, wait time.Duration) {
		logger.Warn("unit of work conflicted, retrying",
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
	if err != nil && shared.IsConflict(err) {
		return fmt.Errorf("%s: gave up after %d attempts: %w", name, attempt, err)
	}
	return err
}
