package errors

import (
	goErrors "errors"
	"fmt"
)

// New returns an error with the given message.
// It's a convenience wrapper so that callers don't have to import both this
// package and the standard library's errors package.
func New(msg string) error {
	return goErrors.New(msg)
}

// ContextError annotates an error with context on the operation that caused
// it. The result of chained ContextErrors reads like a call stack, e.g.
// "scan source: read directory: permission denied".
type ContextError struct {
	Context string
	Err     error
}

func (ce ContextError) Error() string {
	return fmt.Sprintf("%s: %s", ce.Context, ce.Err)
}

// Unwrap returns the wrapped error.
func (ce ContextError) Unwrap() error {
	return ce.Err
}

// WithContext wraps err with a description of the operation that failed.
func WithContext(err error, context string) error {
	return ContextError{Context: context, Err: err}
}

// RootCause returns the innermost error in a chain of wrapped errors.
func RootCause(err error) error {
	for {
		wrapped, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}

		inner := wrapped.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}

// FriendlyError is an error whose message is meant to be shown to the user
// directly, without the "context: context: cause" chain.
type FriendlyError struct {
	Message string
}

func (err FriendlyError) Error() string {
	return err.Message
}

// FriendlyMessage returns the user-facing message.
func (err FriendlyError) FriendlyMessage() string {
	return err.Message
}

// NewFriendlyError creates an error that is printed to the user as is.
func NewFriendlyError(format string, args ...interface{}) error {
	return FriendlyError{Message: fmt.Sprintf(format, args...)}
}

type friendlier interface {
	FriendlyMessage() string
}

// GetPrintableMessage returns the message that should be shown to the user
// for the given error.
func GetPrintableMessage(err error) string {
	if friendly, ok := err.(friendlier); ok {
		return friendly.FriendlyMessage()
	}
	if friendly, ok := RootCause(err).(friendlier); ok {
		return friendly.FriendlyMessage()
	}
	return err.Error()
}
