package model

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError is an operational failure: an expected, user-facing error
// condition carrying the HTTP status it should surface with. Anything
// that is not an AppError (and not one of the recognized error kinds)
// is treated as an unexpected internal failure by the error writer.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the wrapped cause, if any
func (e *AppError) Unwrap() error {
	return e.Err
}

// FieldError represents a validation failure on a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewAppError creates an operational error with an explicit status code
func NewAppError(message string, code int) *AppError {
	return &AppError{Code: code, Message: message}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: http.StatusForbidden, Message: message}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// NewValidationError joins every field-level violation into one message,
// in the order the violations were detected.
func NewValidationError(errors []FieldError) *AppError {
	messages := make([]string, 0, len(errors))
	for _, fe := range errors {
		messages = append(messages, fe.Message)
	}
	return &AppError{Code: http.StatusBadRequest, Message: strings.Join(messages, ". ")}
}

func NewTooManyRequestsError(message string) *AppError {
	return &AppError{Code: http.StatusTooManyRequests, Message: message}
}
