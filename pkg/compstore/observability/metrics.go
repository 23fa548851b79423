package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records component store metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordInsert records a component insertion with its duration.
	RecordInsert(ctx context.Context, component string, duration time.Duration)

	// RecordHandleRequest records a handle acquisition. forward is true
	// when the request forward-declared a not-yet-inserted component.
	RecordHandleRequest(ctx context.Context, component string, forward bool)

	// RecordFinalize records the one-time map publication.
	RecordFinalize(ctx context.Context, components int, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	inserts         metric.Int64Counter
	insertLatency   metric.Float64Histogram
	handleRequests  metric.Int64Counter
	finalizedCount  metric.Int64Counter
	storeComponents metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("compstore")

	inserts, err := meter.Int64Counter("compstore.inserts",
		metric.WithDescription("Number of component insertions"),
	)
	if err != nil {
		return nil, err
	}

	insertLatency, err := meter.Float64Histogram("compstore.insert.latency_ms",
		metric.WithDescription("Component insertion latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	handleRequests, err := meter.Int64Counter("compstore.handle.requests",
		metric.WithDescription("Number of handle acquisitions"),
	)
	if err != nil {
		return nil, err
	}

	finalizedCount, err := meter.Int64Counter("compstore.store.finalizations",
		metric.WithDescription("Number of store finalizations"),
	)
	if err != nil {
		return nil, err
	}

	storeComponents, err := meter.Int64Histogram("compstore.store.components",
		metric.WithDescription("Components in the store at finalization"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		inserts:         inserts,
		insertLatency:   insertLatency,
		handleRequests:  handleRequests,
		finalizedCount:  finalizedCount,
		storeComponents: storeComponents,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordInsert records a component insertion.
func (m *otelMetrics) RecordInsert(ctx context.Context, component string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("component", component),
	}
	m.inserts.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.insertLatency.Record(ctx, float64(duration.Microseconds())/1000.0, metric.WithAttributes(attrs...))
}

// RecordHandleRequest records a handle acquisition.
func (m *otelMetrics) RecordHandleRequest(ctx context.Context, component string, forward bool) {
	m.handleRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
		attribute.Bool("forward_declared", forward),
	))
}

// RecordFinalize records the one-time map publication.
func (m *otelMetrics) RecordFinalize(ctx context.Context, components int, _ time.Duration) {
	m.finalizedCount.Add(ctx, 1)
	m.storeComponents.Record(ctx, int64(components))
}
