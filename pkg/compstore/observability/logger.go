// Package observability provides production-grade observability features
// for compstore: structured logging, metrics, and tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds store context to a logger.
// Returns a new logger with the store_id field attached.
func EnrichLogger(logger *slog.Logger, storeID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("store_id", storeID))
}

// LogStoreCreated logs store construction.
func LogStoreCreated(logger *slog.Logger, storeID string) {
	if logger == nil {
		return
	}
	logger.Debug("component store created",
		slog.String("store_id", storeID),
	)
}

// LogInsert logs a component insertion.
func LogInsert(logger *slog.Logger, storeID, component string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("component inserted",
		slog.String("store_id", storeID),
		slog.String("component", component),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogHandleRequest logs a handle acquisition. forward is true when the
// component did not exist yet and a forward-declared cell was created.
func LogHandleRequest(logger *slog.Logger, storeID, component string, forward bool) {
	if logger == nil {
		return
	}
	logger.Debug("handle requested",
		slog.String("store_id", storeID),
		slog.String("component", component),
		slog.Bool("forward_declared", forward),
	)
}

// LogFinalize logs the one-time publication of the immutable component map.
func LogFinalize(logger *slog.Logger, storeID string, components int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("component store finalized",
		slog.String("store_id", storeID),
		slog.Int("components", components),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogUninitialized logs that finalization published a map still containing
// forward-declared cells that were never inserted. Reading through their
// handles will panic, so this is worth a warning at startup.
func LogUninitialized(logger *slog.Logger, storeID, component string) {
	if logger == nil {
		return
	}
	logger.Warn("finalized with uninitialized component",
		slog.String("store_id", storeID),
		slog.String("component", component),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in
// milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000.0
	}
}
