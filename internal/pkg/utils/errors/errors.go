// Package errors provides error constructors and helpers used across the project.
// It is a drop-in replacement of the standard errors package, extended with
// the MultiError container and error prefixing.
package errors

import (
	"errors"
	"fmt"
)

func New(msg string) error {
	return errors.New(msg)
}

func Errorf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// PrefixError wraps the error with a custom prefix, the original error is preserved for Is/As.
func PrefixError(err error, prefix string) error {
	return &prefixError{err: err, prefix: prefix}
}

func PrefixErrorf(err error, format string, a ...any) error {
	return PrefixError(err, fmt.Sprintf(format, a...))
}

type prefixError struct {
	err    error
	prefix string
}

func (e *prefixError) Error() string {
	return e.prefix + ": " + e.err.Error()
}

func (e *prefixError) Unwrap() error {
	return e.err
}
