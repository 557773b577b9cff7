// Package errors holds the sentinel errors shared across upload-ai packages.
//
// Sentinels are *Error values compared by message, so a wrapped copy created with
// Wrapf still satisfies errors.Is against the original.
package errors

import "fmt"

var (
	ErrInvalidConfig     = New("invalid configuration")
	ErrEngineUnavailable = New("transcoding engine unavailable")
	ErrRunNotFound       = New("run not found")
)

// Error is a message with an optional cause.
type Error struct {
	message string
	cause   error
}

func New(message string) *Error {
	return &Error{message: message}
}

// Wrapf adds formatted context to err. It returns nil when err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{message: fmt.Sprintf(format, args...), cause: err}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.message
	}
	return e.message + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.message == t.message
}

// RequiredField reports a missing input field.
func RequiredField(field string) error {
	return New(field + " is required")
}

// InvalidField reports an input field whose value cannot be used.
func InvalidField(field, reason string) error {
	return New(fmt.Sprintf("%s is invalid: %s", field, reason))
}
