package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels for note operations
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// NoteMetrics records note store activity
type NoteMetrics struct {
	operations    metric.Int64Counter
	duration      metric.Float64Histogram
	contentLength metric.Int64Histogram
	cacheLookups  metric.Int64Counter
}

// NewNoteMetrics creates the note instruments on the given meter
func NewNoteMetrics(meter metric.Meter) (*NoteMetrics, error) {
	mb := newMetricBuilder(meter)

	m := &NoteMetrics{}
	m.operations = mb.Int64Counter(
		"note_operations",
		"Note store operations by type and outcome",
		"1")
	m.duration = mb.Float64Histogram(
		"note_operation_duration_seconds",
		"Duration of note store operations",
		"s",
		[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5})
	m.contentLength = mb.Int64Histogram(
		"note_content_length",
		"Length of written note content in characters",
		"1",
		[]float64{16, 64, 256, 1024, 4096, 10000})
	m.cacheLookups = mb.Int64Counter(
		"note_cache_lookups",
		"Note cache lookups by result",
		"1")

	if err := mb.Error(); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordOperation counts one store operation and its latency
func (m *NoteMetrics) RecordOperation(ctx context.Context, operation string, duration time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	m.operations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, duration.Seconds(), attrs)
}

// RecordContentLength records the size of written content
func (m *NoteMetrics) RecordContentLength(ctx context.Context, length int) {
	m.contentLength.Record(ctx, int64(length))
}

// RecordCacheLookup counts a cache hit or miss
func (m *NoteMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
