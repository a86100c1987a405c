// Package dependencies wires the forest service scope together.
//
// Production code constructs the scope from real collaborators, tests use
// NewMocked with an in-memory model store backend and a stub tree builder.
package dependencies

import (
	"io"

	"github.com/jonboulle/clockwork"

	"github.com/grovekit/grove/internal/pkg/log"
	"github.com/grovekit/grove/internal/pkg/service/common/servicectx"
	"github.com/grovekit/grove/internal/pkg/service/forest/model"
	"github.com/grovekit/grove/internal/pkg/service/forest/tree"
	"github.com/grovekit/grove/internal/pkg/telemetry"
)

type ServiceScope interface {
	Logger() log.Logger
	Clock() clockwork.Clock
	Telemetry() telemetry.Telemetry
	Process() *servicectx.Process
	ModelStore() *model.Store
	TreeBuilder() tree.Builder
}

type serviceScope struct {
	logger    log.Logger
	clock     clockwork.Clock
	telemetry telemetry.Telemetry
	process   *servicectx.Process
	store     *model.Store
	builder   tree.Builder
}

func (s *serviceScope) Logger() log.Logger             { return s.logger }
func (s *serviceScope) Clock() clockwork.Clock         { return s.clock }
func (s *serviceScope) Telemetry() telemetry.Telemetry { return s.telemetry }
func (s *serviceScope) Process() *servicectx.Process   { return s.process }
func (s *serviceScope) ModelStore() *model.Store       { return s.store }
func (s *serviceScope) TreeBuilder() tree.Builder      { return s.builder }

// NewServiceScope assembles a production scope.
func NewServiceScope(out io.Writer, verbose bool, backend model.Backend, builder tree.Builder, tel telemetry.Telemetry) (ServiceScope, error) {
	logger := log.NewServiceLogger(out, verbose)
	proc, err := servicectx.New(logger)
	if err != nil {
		return nil, err
	}
	return &serviceScope{
		logger:    logger,
		clock:     clockwork.NewRealClock(),
		telemetry: tel,
		process:   proc,
		store:     model.NewStore(logger, backend),
		builder:   builder,
	}, nil
}
