package validation

import (
	"errors"
	"testing"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineRequest struct {
	ItemID uuid.UUID `json:"item_id" validate:"required"`
}

type draftRequest struct {
	Type   string        `json:"type" validate:"required,oneof=sales purchase"`
	Notes  string        `json:"notes" validate:"max=5"`
	Lines  []lineRequest `json:"lines" validate:"required,min=1,dive"`
	Hidden string        `json:"-" validate:"required"`
}

func TestError_FieldDetails(t *testing.T) {
	v := New()
	err := v.Struct(draftRequest{
		Type:   "transfer",
		Notes:  "too long",
		Lines:  []lineRequest{{}},
		Hidden: "x",
	})
	require.Error(t, err)

	de := Error(err)

	assert.Equal(t, shared.KindValidationFailed, de.Kind)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, "Request validation failed", de.Message)
	details, ok := de.Details.([]FieldError)
	require.True(t, ok)
	assert.ElementsMatch(t, []FieldError{
		{Field: "type", Message: "Must be one of: sales purchase"},
		{Field: "notes", Message: "Must be at most 5 characters"},
		{Field: "lines[0].item_id", Message: "This field is required"},
	}, details)
}

func TestError_SingleFieldMessage(t *testing.T) {
	err := New().Struct(draftRequest{Type: "sales", Hidden: "x"})
	require.Error(t, err)

	de := Error(err)

	assert.Equal(t, "lines: This field is required", de.Message)
}

func TestError_NonValidatorError(t *testing.T) {
	de := Error(errors.New("validator: (nil *draftRequest)"))

	assert.True(t, shared.IsKind(de, shared.KindValidationFailed))
	assert.Nil(t, de.Details)
}
