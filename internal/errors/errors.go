package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	ErrDecode           ErrorCode = "DECODE_ERROR"      // 422
	ErrStore            ErrorCode = "STORE_ERROR"       // 503
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrForbidden        ErrorCode = "FORBIDDEN"         // 403
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrUniqueConstraint ErrorCode = "UNIQUE_CONSTRAINT" // 409
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// FlixError represents a structured error with code, status, and details.
type FlixError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *FlixError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *FlixError) Unwrap() error {
	return e.cause
}

// NewDecode creates a 422 error for a malformed provider file reference.
// Decode errors are not retryable; the record is skipped.
func NewDecode(msg string) *FlixError {
	return &FlixError{
		Code:    ErrDecode,
		Status:  422,
		Message: msg,
	}
}

// NewStore wraps a record store failure for the named operation.
func NewStore(op string, err error) *FlixError {
	msg := op + " failed"
	if err != nil {
		msg = fmt.Sprintf("%s failed: %v", op, err)
	}
	return &FlixError{
		Code:    ErrStore,
		Status:  503,
		Message: msg,
		Details: map[string]any{"op": op},
		cause:   err,
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *FlixError {
	return &FlixError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewForbidden creates a 403 error.
func NewForbidden(msg string) *FlixError {
	return &FlixError{
		Code:    ErrForbidden,
		Status:  403,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing file record.
func NewNotFound(identifier string) *FlixError {
	return &FlixError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewPageNotFound creates a 404 error for an unknown or expired pagination token.
func NewPageNotFound(token string) *FlixError {
	return &FlixError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("page expired or unknown: %s", token),
		Details: map[string]any{"token": token},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *FlixError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &FlixError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is reports whether err, or any error it wraps, is a FlixError with the given code.
func Is(err error, code ErrorCode) bool {
	var fErr *FlixError
	if stderrors.As(err, &fErr) {
		return fErr.Code == code
	}
	return false
}

// As returns the first FlixError in err's chain.
func As(err error) (*FlixError, bool) {
	var fErr *FlixError
	if stderrors.As(err, &fErr) {
		return fErr, true
	}
	return nil, false
}
