package dependencies

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/grovekit/grove/internal/pkg/log"
	"github.com/grovekit/grove/internal/pkg/service/common/servicectx"
	"github.com/grovekit/grove/internal/pkg/service/forest/model"
	"github.com/grovekit/grove/internal/pkg/service/forest/tree"
	"github.com/grovekit/grove/internal/pkg/telemetry"
)

// Mocked is the test scope, it captures logs and uses the in-memory backend.
type Mocked interface {
	ServiceScope
	DebugLogger() log.DebugLogger
	TestBackend() model.Backend
}

type mocked struct {
	*serviceScope
	debugLogger log.DebugLogger
	backend     model.Backend
}

type MockedOption func(*mocked)

func WithClock(clock clockwork.Clock) MockedOption {
	return func(m *mocked) {
		m.clock = clock
	}
}

func WithTreeBuilder(builder tree.Builder) MockedOption {
	return func(m *mocked) {
		m.builder = builder
	}
}

func WithBackend(backend model.Backend) MockedOption {
	return func(m *mocked) {
		m.backend = backend
	}
}

func NewMocked(opts ...MockedOption) Mocked {
	logger := log.NewDebugLogger()
	m := &mocked{
		serviceScope: &serviceScope{
			logger:    logger,
			clock:     clockwork.NewRealClock(),
			telemetry: telemetry.NewNop(),
			process:   servicectx.NewForTest(logger, "test-node"),
		},
		debugLogger: logger,
		backend:     model.NewMemoryBackend(),
	}

	// Default builder succeeds immediately with the requested tree count.
	m.builder = tree.BuilderFunc(func(_ context.Context, req tree.BuildRequest) (tree.BuildResult, error) {
		if req.OnTreeBuilt != nil {
			req.OnTreeBuilt(req.Trees)
		}
		return tree.BuildResult{Trees: make([][]byte, req.Trees), Count: req.Trees}, nil
	})

	for _, o := range opts {
		o(m)
	}
	m.store = model.NewStore(m.logger, m.backend)
	return m
}

func (m *mocked) DebugLogger() log.DebugLogger {
	return m.debugLogger
}

func (m *mocked) TestBackend() model.Backend {
	return m.backend
}
