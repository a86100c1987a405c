package job

import (
	"context"
	"sync"

	"github.com/grovekit/grove/internal/pkg/service/forest/run"
)

// Handle exposes a running job to the caller.
// All methods are safe for concurrent use.
type Handle struct {
	lock     sync.Mutex
	job      Job
	err      error
	flag     *run.CancelFlag
	progress *run.Progress
	done     chan struct{}
}

func newHandle(j Job, flag *run.CancelFlag, progress *run.Progress) *Handle {
	return &Handle{job: j, flag: flag, progress: progress, done: make(chan struct{})}
}

// Job returns a snapshot of the job record.
func (h *Handle) Job() Job {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.job
}

// Progress returns the completed fraction in [0,1], it never blocks.
func (h *Handle) Progress() float64 {
	select {
	case <-h.done:
		if h.Err() == nil {
			return 1
		}
	default:
	}
	return h.progress.Fraction()
}

// Cancel requests a cooperative cancellation.
// Node instances observe it at their next phase boundary, no work is preempted.
func (h *Handle) Cancel(cause error) {
	h.flag.Cancel(cause)
	h.progress.Freeze()
}

// Err returns the failure or cancellation cause, nil while running or on success.
func (h *Handle) Err() error {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.err
}

// Done is closed when the job reached a terminal state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the job completes or the context ends.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return h.Err()
	}
}

// complete moves the job to a terminal state, called exactly once by the registry.
func (h *Handle) complete(job Job, err error) {
	h.lock.Lock()
	h.job = job
	h.err = err
	h.lock.Unlock()
	close(h.done)
}
