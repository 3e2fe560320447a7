// Package apperrors holds the error taxonomy shared by services and handlers.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against the typed errors below
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict")
	ErrIntegrityFault = errors.New("data integrity fault")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s with identifier %v not found", e.Resource, e.ID)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError represents bad input the caller can correct
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConflictError represents a uniqueness violation; nothing was written
type ConflictError struct {
	Resource string
	Key      string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Resource, e.Key)
}

func (e ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// IntegrityFault means stored data contradicts an invariant. It is not
// recoverable by retrying.
type IntegrityFault struct {
	Message string
}

func (e IntegrityFault) Error() string {
	return "integrity fault: " + e.Message
}

func (e IntegrityFault) Is(target error) bool {
	return target == ErrIntegrityFault
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource string, id interface{}) error {
	return NotFoundError{Resource: resource, ID: id}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

// NewConflictError creates a new ConflictError
func NewConflictError(resource, key string) error {
	return ConflictError{Resource: resource, Key: key}
}

// NewIntegrityFault creates a new IntegrityFault
func NewIntegrityFault(format string, args ...interface{}) error {
	return IntegrityFault{Message: fmt.Sprintf(format, args...)}
}

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConflict checks if an error is a ConflictError
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsIntegrityFault checks if an error is an IntegrityFault
func IsIntegrityFault(err error) bool {
	return errors.Is(err, ErrIntegrityFault)
}
