package models

import (
	"errors"
	"fmt"
)

// Error codes carried by AppError.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeValidation   = "VALIDATION_ERROR"
)

// AppError represents an expected failure of a request, as opposed to an infrastructure error.
type AppError struct {
	Code    string
	Message string
	// Fields holds field-level messages for validation failures, e.g. {"email": ["is already taken."]}.
	Fields map[string][]string
	Err    error
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

// NewNotFoundError reports that the named resource does not exist.
func NewNotFoundError(resource string, key interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v not found", resource, key),
	}
}

// NewUnauthorizedError reports a missing or unresolvable authenticated actor.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewValidationError reports field-level problems with the given input.
func NewValidationError(fields map[string][]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

// NewConflictError reports a uniqueness violation on field.
func NewConflictError(field string) *AppError {
	return NewValidationError(map[string][]string{field: {"is already taken."}})
}

// ErrorCode returns the AppError code in err's chain, or "" for other errors.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
