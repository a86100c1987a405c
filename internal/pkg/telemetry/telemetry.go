// Package telemetry provides a minimal tracing facade over OpenTelemetry.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Telemetry interface {
	Tracer() Tracer
}

type Tracer interface {
	Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, Span)
}

type telemetry struct {
	tracer Tracer
}

func New(tracer trace.Tracer) Telemetry {
	return &telemetry{tracer: &wrappedTracer{tracer: tracer}}
}

// NewNop provides a no-operation telemetry, it is the default in tests.
func NewNop() Telemetry {
	return New(noop.NewTracerProvider().Tracer("nop"))
}

func (t *telemetry) Tracer() Tracer {
	return t.tracer
}

type wrappedTracer struct {
	tracer trace.Tracer
}

func (t *wrappedTracer) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, Span) {
	ctx, s := t.tracer.Start(ctx, spanName, opts...)
	return ctx, &span{span: s}
}
