package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the compstore tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("compstore")

// SpanManager handles trace span lifecycle for store operations.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartInsertSpan starts a span for a component insertion.
	StartInsertSpan(ctx context.Context, storeID, component string) (context.Context, trace.Span)

	// StartFinalizeSpan starts a span for store finalization.
	StartFinalizeSpan(ctx context.Context, storeID string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartInsertSpan starts a span for a component insertion.
func (m *otelSpanManager) StartInsertSpan(ctx context.Context, storeID, component string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "compstore.insert",
		trace.WithAttributes(
			attribute.String("store.id", storeID),
			attribute.String("component", component),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartFinalizeSpan starts a span for store finalization.
func (m *otelSpanManager) StartFinalizeSpan(ctx context.Context, storeID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "compstore.finalize",
		trace.WithAttributes(
			attribute.String("store.id", storeID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
