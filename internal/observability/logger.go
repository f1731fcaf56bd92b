package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrMode    = "mode"
)

type opContextKey struct{}

// opLabels names the tree operation a context belongs to.
type opLabels struct {
	op      string
	algebra string
}

// ContextWithOp returns a context whose log records carry op and algebra.
// An empty algebra is omitted.
func ContextWithOp(ctx context.Context, op, algebra string) context.Context {
	return context.WithValue(ctx, opContextKey{}, opLabels{op: op, algebra: algebra})
}

// OpFromContext returns the operation and algebra stored by ContextWithOp.
func OpFromContext(ctx context.Context) (op, algebra string, ok bool) {
	labels, ok := ctx.Value(opContextKey{}).(opLabels)

	return labels.op, labels.algebra, ok
}

// TracingHandler is an [slog.Handler] that adds the active span's trace_id and
// span_id to every record, plus the op and algebra of the tree operation set
// with ContextWithOp. Service attributes (service, env, mode) are
// attached once at construction so they stay at the top level under groups.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner with trace context injection and service metadata.
func NewTracingHandler(inner slog.Handler, service, env string, appMode AppMode) *TracingHandler {
	attrs := []slog.Attr{
		slog.String(attrService, service),
		slog.String(attrMode, string(appMode)),
	}

	if env != "" {
		attrs = append(attrs, slog.String(attrEnv, env))
	}

	return &TracingHandler{
		inner: inner.WithAttrs(attrs),
	}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle adds trace context and operation attributes from ctx, then delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	if op, algebra, ok := OpFromContext(ctx); ok {
		record.AddAttrs(slog.String(attrOp, op))

		if algebra != "" {
			record.AddAttrs(slog.String(attrAlgebra, algebra))
		}
	}

	err := th.inner.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs returns a TracingHandler whose inner handler carries attrs.
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: th.inner.WithAttrs(attrs)}
}

// WithGroup returns a TracingHandler whose inner handler opens group name.
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: th.inner.WithGroup(name)}
}
