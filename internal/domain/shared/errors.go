package shared

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a domain error for callers and transport adapters.
type ErrorKind string

const (
	KindNotFound              ErrorKind = "NOT_FOUND"
	KindInvalidState          ErrorKind = "INVALID_STATE"
	KindValidationFailed      ErrorKind = "VALIDATION_FAILED"
	KindBusinessRuleViolation ErrorKind = "BUSINESS_RULE_VIOLATION"
	KindConsistencyConflict   ErrorKind = "CONSISTENCY_CONFLICT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches another DomainError by kind and code, so wrapped instances of the
// package-level sentinels still satisfy errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// WithDetails returns a copy of the error carrying details
func (e *DomainError) WithDetails(details any) *DomainError {
	cp := *e
	cp.Details = details
	return &cp
}

// NewDomainError creates a new domain error. The kind is derived from the
// code: kind names map to themselves, INVALID_* codes are validation failures
// and anything else is a business rule.
func NewDomainError(code, message string) *DomainError {
	kind := ErrorKind(code)
	switch {
	case kind == KindNotFound, kind == KindInvalidState, kind == KindValidationFailed, kind == KindConsistencyConflict:
	case strings.HasPrefix(code, "INVALID_"):
		kind = KindValidationFailed
	default:
		kind = KindBusinessRuleViolation
	}
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewKindError creates a domain error of an explicit kind
func NewKindError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError reports a missing entity
func NewNotFoundError(entity string, id any) *DomainError {
	return &DomainError{
		Kind:    KindNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %v not found", entity, id),
	}
}

// NewInvalidStateError reports an operation rejected by the lifecycle
func NewInvalidStateError(message string) *DomainError {
	return &DomainError{Kind: KindInvalidState, Code: "INVALID_STATE", Message: message}
}

// NewValidationError reports malformed or out-of-range input
func NewValidationError(message string) *DomainError {
	return &DomainError{Kind: KindValidationFailed, Code: "VALIDATION_FAILED", Message: message}
}

// NewBusinessRuleError reports a violated business precondition
func NewBusinessRuleError(code, message string) *DomainError {
	return &DomainError{Kind: KindBusinessRuleViolation, Code: code, Message: message}
}

// Common domain errors
var (
	ErrNotFound            = NewKindError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewKindError(KindConsistencyConflict, "ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewKindError(KindValidationFailed, "VALIDATION_FAILED", "Invalid input provided")
	ErrConcurrencyConflict = NewKindError(KindConsistencyConflict, "CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewKindError(KindInvalidState, "INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewBusinessRuleError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrCreditLimitExceeded = NewBusinessRuleError("CREDIT_LIMIT_EXCEEDED", "Credit limit exceeded")
	ErrPartyInactive       = NewBusinessRuleError("PARTY_INACTIVE", "Party is inactive")
	ErrItemInactive        = NewBusinessRuleError("ITEM_INACTIVE", "Item is inactive")
)

// KindOf returns the kind of a domain error anywhere in err's chain, or the
// empty kind for infrastructure errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err is a domain error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// IsConflict reports whether err signals a lost optimistic-concurrency race
func IsConflict(err error) bool {
	return IsKind(err, KindConsistencyConflict)
}
