package errors

import (
	"strings"
	"sync"
)

// MultiError is a container for multiple errors, it is safe for concurrent Append.
type MultiError interface {
	error
	Len() int
	Append(errs ...error)
	WrappedErrors() []error
	ErrorOrNil() error
}

type multiError struct {
	lock *sync.Mutex
	errs []error
}

func NewMultiError(errs ...error) MultiError {
	v := &multiError{lock: &sync.Mutex{}}
	v.Append(errs...)
	return v
}

func (e *multiError) Len() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.errs)
}

func (e *multiError) Append(errs ...error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	for _, err := range errs {
		if err == nil {
			continue
		}
		if v, ok := err.(*multiError); ok { // nolint: errorlint
			e.errs = append(e.errs, v.WrappedErrors()...)
		} else {
			e.errs = append(e.errs, err)
		}
	}
}

func (e *multiError) WrappedErrors() []error {
	e.lock.Lock()
	defer e.lock.Unlock()
	out := make([]error, len(e.errs))
	copy(out, e.errs)
	return out
}

func (e *multiError) Unwrap() []error {
	return e.WrappedErrors()
}

func (e *multiError) ErrorOrNil() error {
	e.lock.Lock()
	defer e.lock.Unlock()
	switch len(e.errs) {
	case 0:
		return nil
	case 1:
		return e.errs[0]
	default:
		return e
	}
}

func (e *multiError) Error() string {
	e.lock.Lock()
	defer e.lock.Unlock()
	switch len(e.errs) {
	case 0:
		return ""
	case 1:
		return e.errs[0].Error()
	default:
		var out strings.Builder
		out.WriteString("multiple errors occurred:")
		for _, err := range e.errs {
			out.WriteString("\n- ")
			out.WriteString(strings.ReplaceAll(err.Error(), "\n", "\n  "))
		}
		return out.String()
	}
}
