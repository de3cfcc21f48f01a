package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	wrapped := fmt.Errorf("confirm invoice: %w", ErrInsufficientStock)
	assert.ErrorIs(t, wrapped, ErrInsufficientStock)
	assert.NotErrorIs(t, wrapped, ErrCreditLimitExceeded)

	detailed := ErrInvalidInput.WithDetails([]string{"line 1"})
	assert.ErrorIs(t, detailed, ErrInvalidInput)
	assert.Nil(t, ErrInvalidInput.Details)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"not found", NewNotFoundError("invoice", "x"), KindNotFound},
		{"wrapped invalid state", fmt.Errorf("cancel: %w", NewInvalidStateError("already cancelled")), KindInvalidState},
		{"validation", NewValidationError("bad"), KindValidationFailed},
		{"business rule", NewDomainError("CREDIT_LIMIT_EXCEEDED", "over"), KindBusinessRuleViolation},
		{"conflict", ErrConcurrencyConflict, KindConsistencyConflict},
		{"infrastructure", errors.New("connection refused"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestNewDomainError_KindFromCode(t *testing.T) {
	assert.Equal(t, KindNotFound, NewDomainError("NOT_FOUND", "x").Kind)
	assert.Equal(t, KindInvalidState, NewDomainError("INVALID_STATE", "x").Kind)
	assert.Equal(t, KindBusinessRuleViolation, NewDomainError("ITEM_INACTIVE", "x").Kind)
	assert.Equal(t, KindValidationFailed, NewDomainError("INVALID_QUANTITY", "x").Kind)
	assert.True(t, IsConflict(fmt.Errorf("save: %w", ErrConcurrencyConflict)))
	assert.False(t, IsConflict(ErrNotFound))
}

func TestFilter_Paging(t *testing.T) {
	f := Filter{Page: 3, PageSize: 10}
	assert.Equal(t, 20, f.Offset())
	assert.Equal(t, 10, f.Limit())

	assert.Equal(t, 0, Filter{}.Offset())
	assert.Equal(t, 20, Filter{}.Limit())
	assert.Equal(t, 500, Filter{PageSize: 10000}.Limit())
}
