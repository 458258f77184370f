// Package apperr defines the typed failures returned by the service layer.
// Handlers translate the Kind of an error into an HTTP status; anything that
// is not an *Error is treated as an infrastructure failure.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure.
type Kind string

const (
	// KindValidation marks malformed input, e.g. a rating outside 1..10.
	KindValidation Kind = "VALIDATION"
	// KindConflict marks a uniqueness or business-rule violation.
	KindConflict Kind = "CONFLICT"
	// KindCapacity marks an event that is already full.
	KindCapacity Kind = "CAPACITY"
	// KindNotFound marks a referenced entity that does not exist.
	KindNotFound Kind = "NOT_FOUND"
	// KindForbidden marks an actor mutating something they do not own.
	KindForbidden Kind = "FORBIDDEN"
)

// Error is a domain failure with a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error of the given kind.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an *Error of the given kind that wraps err.
func Wrap(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) error { return New(KindValidation, message) }
func Conflict(message string) error   { return New(KindConflict, message) }
func Capacity(message string) error   { return New(KindCapacity, message) }
func NotFound(message string) error   { return New(KindNotFound, message) }
func Forbidden(message string) error  { return New(KindForbidden, message) }

// KindOf returns the kind of err and whether err is a domain failure at all.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// MessageOf returns the user-facing message of a domain failure, or "" when
// err is not one.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

func is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func IsValidation(err error) bool { return is(err, KindValidation) }
func IsConflict(err error) bool   { return is(err, KindConflict) }
func IsCapacity(err error) bool   { return is(err, KindCapacity) }
func IsNotFound(err error) bool   { return is(err, KindNotFound) }
func IsForbidden(err error) bool  { return is(err, KindForbidden) }
