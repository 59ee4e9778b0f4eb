// Package apperrors defines the typed error taxonomy shared by the access
// and ordering core and the services built on top of them. Handlers translate
// these into HTTP responses in exactly one place.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
	// KindForbidden means the principal resolved but lacks membership or role.
	KindForbidden
	// KindConflict means a uniqueness constraint was violated.
	KindConflict
	// KindValidation means malformed input reached the core.
	KindValidation
	// KindStorage means the persistence layer failed and the transaction
	// was rolled back; callers must assume no partial state change.
	KindStorage
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing entity, naming its type and identifier.
func NotFound(entity string, id any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", entity, id),
	}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence failure. The original error is retained for
// logging; the message shown to callers stays generic.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Message: "storage operation failed", Err: err}
}

// KindOf returns the taxonomy kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsForbidden(err error) bool  { return KindOf(err) == KindForbidden }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsStorage(err error) bool    { return KindOf(err) == KindStorage }
