package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// probeSpanNames are the request spans of liveness probes and metric scrapes.
var probeSpanNames = []string{
	"GET /healthz",
	"GET /metrics",
}

// filteringTracerProvider wraps a real TracerProvider and replaces spans with
// suppressed names by no-op spans.
type filteringTracerProvider struct {
	embedded.TracerProvider

	delegate trace.TracerProvider
	noop     trace.TracerProvider
	suppress map[string]bool
}

// NewFilteringTracerProvider wraps delegate so that probe and scrape request
// spans are dropped while every other span is delegated.
func NewFilteringTracerProvider(delegate trace.TracerProvider) trace.TracerProvider {
	suppress := make(map[string]bool, len(probeSpanNames))
	for _, name := range probeSpanNames {
		suppress[name] = true
	}

	return &filteringTracerProvider{
		delegate: delegate,
		noop:     nooptrace.NewTracerProvider(),
		suppress: suppress,
	}
}

// Tracer returns a filtering tracer for the given name.
func (f *filteringTracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return &filteringTracer{
		delegate: f.delegate.Tracer(name, opts...),
		noop:     f.noop.Tracer(name, opts...),
		suppress: f.suppress,
	}
}

type filteringTracer struct {
	embedded.Tracer

	delegate trace.Tracer
	noop     trace.Tracer
	suppress map[string]bool
}

// Start creates a span, returning a no-op span for suppressed names. The
// incoming context is kept so a suppressed span never breaks propagation.
func (f *filteringTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if f.suppress[name] {
		return f.noop.Start(ctx, name, opts...)
	}

	return f.delegate.Start(ctx, name, opts...)
}
