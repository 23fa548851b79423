package compstore

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/randalmurphal/compstore/pkg/compstore/observability"
)

// storeConfig holds configuration for a Store.
type storeConfig struct {
	id      string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

// defaultStoreConfig returns the default store configuration: a generated
// store id, no logging, no metrics, no tracing.
func defaultStoreConfig() storeConfig {
	return storeConfig{
		id:      fmt.Sprintf("store-%s", uuid.New().String()[:8]),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// StoreOption configures a Store.
type StoreOption func(*storeConfig)

// WithStoreID overrides the generated store id used in logs and traces.
func WithStoreID(id string) StoreOption {
	return func(c *storeConfig) {
		if id != "" {
			c.id = id
		}
	}
}

// WithLogger enables structured logging of store operations.
// Logs include store_id, component, and duration_ms fields.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics for store operations.
// Uses the global OTel meter provider.
func WithMetrics(enabled bool) StoreOption {
	return func(c *storeConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder sets a custom metrics recorder.
func WithMetricsRecorder(recorder observability.MetricsRecorder) StoreOption {
	return func(c *storeConfig) {
		if recorder != nil {
			c.metrics = recorder
		}
	}
}

// WithTracing enables OpenTelemetry spans for insertions and finalization.
// Uses the global OTel tracer provider.
func WithTracing(enabled bool) StoreOption {
	return func(c *storeConfig) {
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithSpanManager sets a custom span manager.
func WithSpanManager(spans observability.SpanManager) StoreOption {
	return func(c *storeConfig) {
		if spans != nil {
			c.spans = spans
		}
	}
}
