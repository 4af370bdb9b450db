package core

import "github.com/pkg/errors"

// ErrForbidden is returned whenever the caller's role is not allowed to perform an operation.
var ErrForbidden = NewForbiddenError("permission denied")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// ConflictError reports a unique field that is already taken.
type ConflictError struct {
	Field   string
	Message string
}

func NewConflictError(field, msg string) error {
	return &ConflictError{Field: field, Message: msg}
}

func (err ConflictError) Error() string { return err.Message }

// AuthError reports bad credentials.
type AuthError struct {
	message string
}

func NewAuthError(msg string) error {
	return &AuthError{message: msg}
}

func (err AuthError) Error() string { return err.message }

// UnauthorizedError reports a request without usable credentials.
type UnauthorizedError struct {
	message string
}

func NewUnauthorizedError(msg string) error {
	return &UnauthorizedError{message: msg}
}

func (err UnauthorizedError) Error() string { return err.message }

// ForbiddenError reports an authenticated caller that may not do what it asked.
type ForbiddenError struct {
	message string
}

func NewForbiddenError(msg string) error {
	return &ForbiddenError{message: msg}
}

func (err ForbiddenError) Error() string { return err.message }

type NotFoundError struct {
	message string
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{message: msg}
}

func (err NotFoundError) Error() string { return err.message }

// TransientError wraps a store failure (timeout, lost connection) that the caller may retry.
type TransientError struct {
	Err error
	msg string
}

func NewTransientError(err error, msg string) error {
	return &TransientError{Err: err, msg: msg}
}

func (err TransientError) Error() string {
	if err.Err == nil {
		return err.msg
	}
	return err.msg + ": " + err.Err.Error()
}

func (err TransientError) Unwrap() error { return err.Err }

func IsTransient(err error) bool {
	_, ok := errors.Cause(err).(*TransientError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
