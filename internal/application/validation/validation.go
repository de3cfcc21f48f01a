// Package validation runs struct tag validation for application requests and
// converts failures into domain validation errors with per-field details.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

// FieldError describes one rejected request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New returns a validator that reports fields by their JSON names
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	return v
}

// Error converts a validator error into a VALIDATION_FAILED domain error.
// Field failures are attached as []FieldError details.
func Error(err error) *shared.DomainError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return shared.NewValidationError(err.Error())
	}
	details := make([]FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	msg := "Request validation failed"
	if len(details) == 1 {
		msg = details[0].Field + ": " + details[0].Message
	}
	return shared.NewValidationError(msg).WithDetails(details)
}

// fieldPath drops the top-level struct name, so "CreateInvoiceRequest.lines[0].item_id"
// becomes "lines[0].item_id"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if fe.Kind() == reflect.String {
			return "Must be at least " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return "Must contain at least " + fe.Param() + " entries"
		}
		return "Must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "Must be at most " + fe.Param() + " characters"
		}
		return "Must be at most " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	case "lte":
		return "Must be less than or equal to " + fe.Param()
	case "gt":
		return "Must be greater than " + fe.Param()
	case "uuid":
		return "Invalid UUID format"
	default:
		return "Invalid value"
	}
}
