package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrTenantNotFound indicates that the requested tenant is absent or inactive.
// A metrics run aborts immediately on this error.
var ErrTenantNotFound = errors.New("tenant not found or inactive")

// ErrRunInProgress indicates that another computation run already holds the
// tenant's run lease. Requests are rejected, never queued; the caller retries later.
var ErrRunInProgress = errors.New("metrics run already in progress for tenant")

// ErrInsufficientHistory indicates that a customer does not have enough
// transaction history for a metric to be defined. Per-customer and non-fatal:
// the affected fields stay null and the batch continues.
var ErrInsufficientHistory = errors.New("insufficient transaction history")

// ErrWriteConflict indicates that a fresher metrics snapshot already exists
// for the (tenant, customer) pair. Retried once, then the customer is
// reported as skipped.
var ErrWriteConflict = errors.New("metrics write conflict")

// ErrComputation indicates an unexpected numeric failure while computing a
// customer's metrics. The customer is skipped and the run degrades to partial.
var ErrComputation = errors.New("metrics computation error")

// AppError wraps an underlying error with a status code and a context message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping cause with a code and message.
func NewAppError(code int, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Err: cause}
}

// NewNotFoundError creates an AppError that satisfies errors.Is(err, ErrNotFound).
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
