package run

import (
	"go.uber.org/atomic"
)

// CancelFlag carries the cooperative cancellation of a job.
//
// The first cancellation wins, its cause is kept. Node instances observe the
// flag at phase boundaries only, in-flight tree construction is never
// preemptively interrupted.
type CancelFlag struct {
	cancelled atomic.Bool
	cause     atomic.Error
}

func NewCancelFlag() *CancelFlag {
	return &CancelFlag{}
}

func (f *CancelFlag) Cancel(cause error) {
	if f.cancelled.CompareAndSwap(false, true) {
		f.cause.Store(cause)
	}
}

func (f *CancelFlag) IsCancelled() bool {
	return f.cancelled.Load()
}

// Cause returns the error that triggered the cancellation, nil if not cancelled.
func (f *CancelFlag) Cause() error {
	return f.cause.Load()
}
