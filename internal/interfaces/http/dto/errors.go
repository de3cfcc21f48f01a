package dto

import (
	"errors"
	"net/http"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeValidation is used when a well-formed request fails validation
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeMissingActor is used when no acting user is identified
	ErrCodeMissingActor = "ERR_MISSING_ACTOR"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for the current lifecycle state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for business rule violations without a dedicated code
	ErrCodeBusinessRule       = "ERR_BUSINESS_RULE"
	ErrCodeInsufficientStock  = "ERR_INSUFFICIENT_STOCK"
	ErrCodeCreditLimit        = "ERR_CREDIT_LIMIT_EXCEEDED"
	ErrCodeReturnRejected     = "ERR_RETURN_REJECTED"
	ErrCodeInactiveMasterData = "ERR_INACTIVE_MASTER_DATA"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeMissingActor:    http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Validation and business rule errors -> 422 Unprocessable Entity
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:       http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:  http.StatusUnprocessableEntity,
	ErrCodeCreditLimit:        http.StatusUnprocessableEntity,
	ErrCodeReturnRejected:     http.StatusUnprocessableEntity,
	ErrCodeInactiveMasterData: http.StatusUnprocessableEntity,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping maps domain error codes to API codes
var domainCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT":  ErrCodeConcurrencyConflict,
	"INVALID_STATE":         ErrCodeInvalidState,
	"VALIDATION_FAILED":     ErrCodeValidation,
	"INSUFFICIENT_STOCK":    ErrCodeInsufficientStock,
	"CREDIT_LIMIT_EXCEEDED": ErrCodeCreditLimit,
	"RETURN_LINES_REJECTED": ErrCodeReturnRejected,
	"PARTY_INACTIVE":        ErrCodeInactiveMasterData,
	"ITEM_INACTIVE":         ErrCodeInactiveMasterData,
}

// kindFallback is the API code for a domain error whose own code is unmapped
var kindFallback = map[shared.ErrorKind]string{
	shared.KindNotFound:              ErrCodeNotFound,
	shared.KindInvalidState:          ErrCodeInvalidState,
	shared.KindValidationFailed:      ErrCodeValidation,
	shared.KindBusinessRuleViolation: ErrCodeBusinessRule,
	shared.KindConsistencyConflict:   ErrCodeConcurrencyConflict,
}

// ErrorCodeFor returns the API error code and HTTP status for err. The
// status follows the error kind; the code is the most specific one known.
// Errors that carry no domain kind map to ERR_INTERNAL.
func ErrorCodeFor(err error) (string, int) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return ErrCodeInternal, http.StatusInternalServerError
	}
	fallback, ok := kindFallback[de.Kind]
	if !ok {
		return ErrCodeInternal, http.StatusInternalServerError
	}
	code, ok := domainCodeMapping[de.Code]
	if !ok {
		code = fallback
	}
	return code, GetHTTPStatus(fallback)
}
