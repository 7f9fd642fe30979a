// Package apperr classifies failures so handlers can map them to HTTP
// statuses instead of collapsing everything into a generic 500.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError carries per-field violation codes for bad input.
// Recoverable: the client fixes the payload and retries.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%d fields)", len(e.Fields))
}

// Validation builds a ValidationError from field/code pairs.
func Validation(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// NotFoundError signals a stale reference, e.g. editing a deleted client.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func NotFound(entity string, id uint) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// PermissionError signals access to a record owned by another user.
type PermissionError struct {
	Entity string
	ID     uint
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s %d belongs to another user", e.Entity, e.ID)
}

func Permission(entity string, id uint) *PermissionError {
	return &PermissionError{Entity: entity, ID: id}
}

// TransientError wraps network/timeout failures eligible for retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

func Transient(err error) *TransientError { return &TransientError{Err: err} }

// IsValidation reports whether err is (or wraps) a ValidationError and
// returns it when so. The other Is helpers follow the same shape.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

func IsNotFound(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	ok := errors.As(err, &nf)
	return nf, ok
}

func IsPermission(err error) (*PermissionError, bool) {
	var pe *PermissionError
	ok := errors.As(err, &pe)
	return pe, ok
}

func IsTransient(err error) (*TransientError, bool) {
	var te *TransientError
	ok := errors.As(err, &te)
	return te, ok
}
