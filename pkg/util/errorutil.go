package util

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code          string
	Message       string
	ClientMessage string
	HTTPStatus    int
	Retryable     bool
	Timestamp     time.Time
	Details       map[string]any
	Err           error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Sanitized returns the client-facing message, falling back to a generic one.
func (e *DomainError) Sanitized() string {
	if e.ClientMessage != "" {
		return e.ClientMessage
	}
	if e.HTTPStatus >= 500 {
		return "An internal error occurred. Please try again later."
	}
	return e.Message
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		Timestamp:  time.Now(),
		Details:    details,
	}
}

// NewBusinessRuleError flags a violated operational rule (limits, hierarchy).
func NewBusinessRuleError(message string, details map[string]any) error {
	err := NewDomainError("BUSINESS_RULE_VIOLATION", message, http.StatusUnprocessableEntity, details)
	err.ClientMessage = message
	return err
}

func NewValidationError(message string, details map[string]any) error {
	err := NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
	err.ClientMessage = message
	return err
}

// NewPermissionError flags an authorization failure. Security relevant.
func NewPermissionError(message string, details map[string]any) error {
	err := NewDomainError("PERMISSION_DENIED", message, http.StatusForbidden, details)
	err.ClientMessage = "You do not have permission to perform this action."
	return err
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	err := NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
	err.ClientMessage = err.Message
	return err
}

// NewDatabaseError wraps a transport or query failure.
func NewDatabaseError(err error, retryable bool) error {
	de := NewDomainError("DATABASE_ERROR", "database operation failed", http.StatusInternalServerError, nil)
	de.Err = err
	de.Retryable = retryable
	return de
}

func NewInternalError(err error) error {
	de := NewDomainError("INTERNAL_ERROR", "internal error", http.StatusInternalServerError, nil)
	de.Err = err
	return de
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal error",
		HTTPStatus: http.StatusInternalServerError,
		Timestamp:  time.Now(),
		Err:        err,
	}
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// IsRetryable reports whether the error is a retryable database failure.
func IsRetryable(err error) bool {
	de := ToDomainError(err)
	return de != nil && de.Retryable
}
