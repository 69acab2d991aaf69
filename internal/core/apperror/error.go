// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All application errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes grouped by failure channel
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"
	CodeUpstream = "UPSTREAM_ERROR"

	// Request validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Query engine errors (400, 422)
	CodeQueryParse      = "QUERY_PARSE_ERROR"
	CodeQueryValidation = "QUERY_VALIDATION_ERROR"

	// Authorization errors (401)
	CodeUnauthorized = "UNAUTHORIZED"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Rate limiting from the tracker API (429)
	CodeThrottled = "UPSTREAM_THROTTLED"
)

// AppError is the standard error type for the application.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (validation errors, upstream status, etc.)
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

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewQueryParse creates a query parse error (400).
// Raised only when clause extraction hits an unexpected internal failure;
// individual malformed conditions are dropped by the parser, not reported here.
func NewQueryParse(err error) *AppError {
	return &AppError{
		Code:       CodeQueryParse,
		Message:    "Failed to parse WIQL query",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

// NewQueryValidation creates a query validation error (422) carrying the
// full list of validator messages.
func NewQueryValidation(errs []string) *AppError {
	return &AppError{
		Code:       CodeQueryValidation,
		Message:    "WIQL query failed validation",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"errors": errs},
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

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUpstream creates an error for failed tracker API calls (502)
func NewUpstream(status int, err error) *AppError {
	return &AppError{
		Code:       CodeUpstream,
		Message:    "Work item service request failed",
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"upstream_status": status},
		Err:        err,
	}
}

// NewThrottled creates an error when the tracker API rate-limits us (429)
func NewThrottled(retryAfter string) *AppError {
	return &AppError{
		Code:       CodeThrottled,
		Message:    "Work item service rate limit exceeded",
		HTTPStatus: http.StatusTooManyRequests,
		Details:    map[string]any{"retry_after": retryAfter},
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewTimeout creates a timeout error (504)
func NewTimeout(operation string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    fmt.Sprintf("Operation %s timed out", operation),
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
