// Package domain defines core types, interfaces, and errors for the federated
// SQL gateway.
package domain

import (
	"errors"
	"fmt"
)

// UnsupportedCommandError indicates the classifier found no matching command
// variant for a statement. It aborts the whole batch.
type UnsupportedCommandError struct {
	SQL string
}

func (e *UnsupportedCommandError) Error() string {
	return fmt.Sprintf("unsupported command: %q", e.SQL)
}

// AccessDeniedError indicates insufficient privileges. It is never retried
// and always propagates to the caller with the denial reason intact.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// CanceledError indicates user-initiated cancellation surfaced mid-execution.
// It is never retried.
type CanceledError struct {
	JobGroup string
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("job group %q was canceled", e.JobGroup)
}

// CoordinatorRejectedError carries an explicit rejection message reported by
// the remote scheduling coordinator. Distinct from ErrCoordinatorTimeout.
type CoordinatorRejectedError struct {
	Message string
}

func (e *CoordinatorRejectedError) Error() string {
	return fmt.Sprintf("coordinator rejected request: %s", e.Message)
}

// ErrCoordinatorTimeout indicates the coordinator did not answer within the
// request deadline.
var ErrCoordinatorTimeout = errors.New("coordinator request timed out")

// NotFoundError indicates a catalog resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict, e.g. a duplicate temp view name.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrAccessDenied creates an AccessDeniedError with a formatted message.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// IsAccessDenied reports whether err is an AccessDeniedError anywhere in its
// chain.
func IsAccessDenied(err error) bool {
	var denied *AccessDeniedError
	return errors.As(err, &denied)
}

// IsCanceled reports whether err is a CanceledError anywhere in its chain.
func IsCanceled(err error) bool {
	var canceled *CanceledError
	return errors.As(err, &canceled)
}
