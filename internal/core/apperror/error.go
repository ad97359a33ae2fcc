// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// ConsistencyViolation is raised by reconciliation when the mutable batch state and
	// the audit ledger disagree. It is never healed automatically.
	CodeConsistencyViolation = "CONSISTENCY_VIOLATION"

	// Validation errors (400)
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidQuantity = "INVALID_QUANTITY"

	// Business rule violations (422)
	CodeBusinessRule      = "BUSINESS_RULE_VIOLATION"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"

	// Not found (404)
	CodeNotFound      = "NOT_FOUND"
	CodeBatchNotFound = "BATCH_NOT_FOUND"

	// Conflict (409)
	CodeConflict           = "CONFLICT"
	CodeDuplicate          = "DUPLICATE_ENTRY"
	CodeDuplicateReference = "DUPLICATE_REFERENCE"
	CodeIdempotency        = "IDEMPOTENCY_CONFLICT"

	// Precondition (428)
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (quantities, references, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidQuantity rejects zero, negative or fractional quantities.
func NewInvalidQuantity(quantity any) *AppError {
	return &AppError{
		Code:       CodeInvalidQuantity,
		Message:    "Quantity must be a positive whole number",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"quantity": quantity},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBatchNotFound is returned when an explicitly named batch is absent or exhausted.
func NewBatchNotFound(batchNumber string) *AppError {
	return &AppError{
		Code:       CodeBatchNotFound,
		Message:    fmt.Sprintf("batch %s not found or exhausted", batchNumber),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"batch_number": batchNumber},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInsufficientStock creates a stock shortage error carrying the shortfall.
func NewInsufficientStock(product string, requested, available int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product":   product,
			"requested": requested,
			"available": available,
			"shortfall": requested - available,
		},
	}
}

// NewDuplicateReference is returned when a movement reference number is already used.
func NewDuplicateReference(reference string) *AppError {
	return &AppError{
		Code:       CodeDuplicateReference,
		Message:    fmt.Sprintf("reference number %s already used", reference),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"reference_number": reference},
	}
}

// NewConsistencyViolation reports a mismatch between batch state and the audit ledger.
func NewConsistencyViolation(kind string, subject any) *AppError {
	return &AppError{
		Code:       CodeConsistencyViolation,
		Message:    fmt.Sprintf("consistency violation: %s", kind),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"kind": kind, "subject": subject},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewIdempotencyConflict creates error when operation is already in progress
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Operation already in progress or completed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when the same idempotency key is reused for
// a different request (different operation or body hash).
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewConfirmationRequired is returned by the HTTP adapter for gated operations
// invoked without explicit confirmation.
func NewConfirmationRequired(operation, tier string) *AppError {
	return &AppError{
		Code:       CodeConfirmationRequired,
		Message:    fmt.Sprintf("operation %s requires confirmation", operation),
		HTTPStatus: http.StatusPreconditionRequired,
		Details:    map[string]any{"operation": operation, "gate_type": tier},
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

func IsNotFound(err error) bool             { return HasCode(err, CodeNotFound) }
func IsBatchNotFound(err error) bool        { return HasCode(err, CodeBatchNotFound) }
func IsInvalidQuantity(err error) bool      { return HasCode(err, CodeInvalidQuantity) }
func IsInsufficientStock(err error) bool    { return HasCode(err, CodeInsufficientStock) }
func IsDuplicateReference(err error) bool   { return HasCode(err, CodeDuplicateReference) }
func IsConsistencyViolation(err error) bool { return HasCode(err, CodeConsistencyViolation) }

// Shortfall extracts the missing quantity from an InsufficientStock error.
func Shortfall(err error) (int64, bool) {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Code != CodeInsufficientStock {
		return 0, false
	}
	v, ok := appErr.Details["shortfall"].(int64)
	return v, ok
}
