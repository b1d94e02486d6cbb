package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Services return errors that match exactly one of these with errors.Is,
// the HTTP layer maps each kind to a status code.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrStore      = errors.New("store failure")
)

type Error struct {
	kind    error
	message string
	cause   error
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Is(target error) bool {
	return target == e.kind
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns one of the Err* kinds.
func (e *Error) Kind() error {
	return e.kind
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

func Forbiddenf(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}

func Conflictf(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

// StoreFailure hides cause behind a generic message. The cause stays reachable through
// errors.Unwrap for logging.
func StoreFailure(cause error) error {
	return &Error{kind: ErrStore, message: "internal error", cause: cause}
}

// GatewayFailure is a StoreFailure raised by the payment provider.
func GatewayFailure(cause error) error {
	return &Error{kind: ErrStore, message: "payment processing error", cause: cause}
}
