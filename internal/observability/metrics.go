package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricOpsTotal    = "segtree.ops.total"
	metricOpDuration  = "segtree.op.duration.seconds"
	metricErrorsTotal = "segtree.errors.total"
	metricTreeLength  = "segtree.tree.length"

	attrOp      = "op"
	attrStatus  = "status"
	attrAlgebra = "algebra"
)

// Operation statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// opBucketBoundaries covers 1µs to 100ms: tree operations are logarithmic
// and rebuilds are linear in the sequence length.
var opBucketBoundaries = []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 5e-3, 1e-2, 5e-2, 0.1}

// OpMetrics holds the rate, error and duration instruments for tree operations.
type OpMetrics struct {
	opsTotal    metric.Int64Counter
	opDuration  metric.Float64Histogram
	errorsTotal metric.Int64Counter
	treeLength  metric.Int64UpDownCounter
}

// NewOpMetrics creates the operation instruments from the given meter.
func NewOpMetrics(mt metric.Meter) (*OpMetrics, error) {
	b := newMetricBuilder(mt)

	om := &OpMetrics{
		opsTotal:    b.counter(metricOpsTotal, "Total number of tree operations", "{operation}"),
		opDuration:  b.histogram(metricOpDuration, "Tree operation duration in seconds", "s", opBucketBoundaries...),
		errorsTotal: b.counter(metricErrorsTotal, "Total number of failed tree operations", "{error}"),
		treeLength:  b.upDownCounter(metricTreeLength, "Length of the served sequence", "{position}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return om, nil
}

// RecordOp records a completed operation with its algebra, status and duration.
func (om *OpMetrics) RecordOp(ctx context.Context, op, algebra, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrAlgebra, algebra),
		attribute.String(attrStatus, status),
	)

	om.opsTotal.Add(ctx, 1, attrs)
	om.opDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		om.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrOp, op),
		))
	}
}

// AdjustLength moves the served sequence length gauge by delta.
func (om *OpMetrics) AdjustLength(ctx context.Context, delta int) {
	om.treeLength.Add(ctx, int64(delta))
}
