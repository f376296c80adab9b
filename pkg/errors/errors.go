package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPStatuser is implemented by errors that know which HTTP status they map to.
type HTTPStatuser interface {
	HTTPStatus() int
}

// Exposer is implemented by errors whose message is safe to return to callers.
type Exposer interface {
	Exposed() bool
}

// ValidationError represents malformed, missing or out-of-range input detected
// before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// HTTPStatus returns the HTTP status for this error
func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }

// Exposed reports that the message may be returned to the caller
func (e *ValidationError) Exposed() bool { return true }

// NotFoundError represents a referenced resource that does not exist
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// HTTPStatus returns the HTTP status for this error
func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }

// Exposed reports that the message may be returned to the caller
func (e *NotFoundError) Exposed() bool { return true }

// ConflictError represents a request that cannot be resolved unambiguously
// against the current state, e.g. a name shared by several users.
type ConflictError struct {
	Resource string
	Message  string
}

// NewConflictError creates a new conflict error
func NewConflictError(resource, message string) *ConflictError {
	return &ConflictError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s conflict", e.Resource)
}

// HTTPStatus returns the HTTP status for this error
func (e *ConflictError) HTTPStatus() int { return http.StatusConflict }

// Exposed reports that the message may be returned to the caller
func (e *ConflictError) Exposed() bool { return true }

// BusinessRuleError represents a well-formed request rejected by a domain rule
type BusinessRuleError struct {
	Rule    string
	Message string
}

// NewBusinessRuleError creates a new business rule error
func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
	}
}

// Error implements the error interface
func (e *BusinessRuleError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("rule %s violated", e.Rule)
}

// HTTPStatus returns the HTTP status for this error
func (e *BusinessRuleError) HTTPStatus() int { return http.StatusUnprocessableEntity }

// Exposed reports that the message may be returned to the caller
func (e *BusinessRuleError) Exposed() bool { return true }

// PersistenceError represents a failure of the underlying database.
// Its message is logged but never returned to callers.
type PersistenceError struct {
	Message string
	Err     error
}

// NewPersistenceError creates a new persistence error
func NewPersistenceError(message string, err error) *PersistenceError {
	return &PersistenceError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status for this error
func (e *PersistenceError) HTTPStatus() int { return http.StatusInternalServerError }

// RollbackError is returned when a transaction failed and rolling it back
// failed as well. Cause is the error that triggered the rollback.
type RollbackError struct {
	Message  string
	Cause    error
	Rollback error
}

// NewRollbackError creates a new rollback error
func NewRollbackError(message string, cause, rollback error) *RollbackError {
	return &RollbackError{
		Message:  message,
		Cause:    cause,
		Rollback: rollback,
	}
}

// Error implements the error interface
func (e *RollbackError) Error() string {
	return e.Message
}

// Unwrap returns both the original cause and the rollback failure
func (e *RollbackError) Unwrap() []error {
	return []error{e.Cause, e.Rollback}
}

// HTTPStatus returns the HTTP status for this error
func (e *RollbackError) HTTPStatus() int { return http.StatusInternalServerError }

// Exposed reports that the message may be returned to the caller
func (e *RollbackError) Exposed() bool { return true }

// HTTPStatus returns the status code carried by err, or 500 when err does not
// carry one.
func HTTPStatus(err error) int {
	var s HTTPStatuser
	if errors.As(err, &s) {
		return s.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message of err when it is safe to expose,
// otherwise fallback.
func PublicMessage(err error, fallback string) string {
	if msg := exposedMessage(err); msg != "" {
		return msg
	}
	return fallback
}

// exposedMessage returns the message of the first exposed error in err's chain.
func exposedMessage(err error) string {
	for err != nil {
		if e, ok := err.(Exposer); ok && e.Exposed() {
			return err.Error()
		}
		err = errors.Unwrap(err)
	}
	return ""
}
