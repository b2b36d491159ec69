// Package shared provides shared domain types and utilities.
package shared

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrUnavailable = errors.New("upstream unavailable")
	ErrRejected    = errors.New("rejected by directory")
	ErrConflict    = errors.New("conflict")
	ErrInternal    = errors.New("internal error")
)

// DomainError represents a domain-specific error.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError.
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation DomainError.
func NewValidationError(message string, err error) *DomainError {
	if err == nil {
		err = ErrValidation
	} else {
		err = fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return NewDomainError("VALIDATION", message, err)
}

// NewConflictError creates a conflict DomainError.
func NewConflictError(message string) *DomainError {
	return NewDomainError("CONFLICT", message, ErrConflict)
}

// NewRejectionError wraps a directory rejection, keeping the upstream message.
func NewRejectionError(message string) *DomainError {
	return NewDomainError("REJECTED", message, ErrRejected)
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable checks if the error is an upstream availability error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsConflict checks if the error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsRejected checks if the error is a directory rejection.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}
