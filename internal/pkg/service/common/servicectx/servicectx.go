// Package servicectx provides a unique ID for the service process and support for graceful shutdown.
package servicectx

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/grovekit/grove/internal/pkg/log"
)

type Process struct {
	logger   log.Logger
	wg       *sync.WaitGroup
	uniqueID string

	lock        *sync.Mutex
	terminating bool
	onShutdown  []OnShutdownFn
}

type OnShutdownFn func()

type Option func(c *config)

type config struct {
	uniqueID string
}

// WithUniqueID sets unique ID of the service process.
// By default, it is generated from the hostname and PID.
func WithUniqueID(v string) Option {
	return func(c *config) {
		c.uniqueID = v
	}
}

func New(logger log.Logger, opts ...Option) (*Process, error) {
	c := config{}
	for _, o := range opts {
		o(&c)
	}

	if c.uniqueID == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, err
		}
		c.uniqueID = fmt.Sprintf(`%s-%05d`, hostname, os.Getpid())
	}

	return &Process{
		logger:   logger,
		wg:       &sync.WaitGroup{},
		uniqueID: c.uniqueID,
		lock:     &sync.Mutex{},
	}, nil
}

func NewForTest(logger log.Logger, uniqueID string) *Process {
	proc, err := New(logger, WithUniqueID(uniqueID))
	if err != nil {
		panic(err)
	}
	return proc
}

// UniqueID returns a unique process ID, it is used as the node ID within the cluster.
func (p *Process) UniqueID() string {
	return p.uniqueID
}

// Add starts a new service goroutine tracked by the process.
func (p *Process) Add(operation func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		operation()
	}()
}

// OnShutdown registers a callback invoked during Shutdown.
// Callbacks are invoked in reverse order, the last registered runs first.
func (p *Process) OnShutdown(fn OnShutdownFn) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.terminating {
		panic("process is terminating, OnShutdown cannot be registered")
	}
	p.onShutdown = append(p.onShutdown, fn)
}

// Shutdown runs all registered callbacks and waits for tracked goroutines.
func (p *Process) Shutdown(_ context.Context) {
	p.lock.Lock()
	if p.terminating {
		p.lock.Unlock()
		return
	}
	p.terminating = true
	callbacks := make([]OnShutdownFn, len(p.onShutdown))
	copy(callbacks, p.onShutdown)
	p.lock.Unlock()

	p.logger.Infof("exiting (%d shutdown callbacks)", len(callbacks))
	for i := len(callbacks) - 1; i >= 0; i-- {
		callbacks[i]()
	}
	p.wg.Wait()
	p.logger.Infof("exited")
}
