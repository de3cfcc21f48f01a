package unitofwork

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{MaxRetries: retries, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetryPolicy_RetriesConflicts(t *testing.T) {
	calls := 0
	err := fastPolicy(5).Run(context.Background(), zap.NewNop(), "confirm", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("update invoice: %w", shared.ErrConcurrencyConflict)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_StopsOnOtherErrors(t *testing.T) {
	calls := 0
	err := fastPolicy(5).Run(context.Background(), nil, "confirm", func(ctx context.Context) error {
		calls++
		return shared.ErrInsufficientStock
	})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Equal(t, 1, calls)

	calls = 0
	infra := errors.New("connection reset")
	err = fastPolicy(5).Run(context.Background(), nil, "confirm", func(ctx context.Context) error {
		calls++
		return infra
	})
	assert.ErrorIs(t, err, infra)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_Exhaustion(t *testing.T) {
	calls := 0
	err := fastPolicy(2).Run(context.Background(), nil, "create return", func(ctx context.Context) error {
		calls++
		return shared.ErrConcurrencyConflict
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, shared.KindConsistencyConflict, shared.KindOf(err))
	assert.Contains(t, err.Error(), "create return: gave up after 3 attempts")
}
