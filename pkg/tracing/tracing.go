package tracing

import (
	"context"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer

// SetTracer sets the tracer used by the service. Before this is called all
// spans are no-ops, which keeps tests free of tracing setup.
func SetTracer(t trace.Tracer) {
	tracer = t
}

// StartSpan starts a new span with the given name and returns the context and span.
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName)
}

// GetActiveSpan returns the active span from the context, or nil when no real
// span is recording.
func GetActiveSpan(ctx context.Context) trace.Span {
	if tracer == nil {
		return nil
	}
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	return span
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	span := GetActiveSpan(ctx)
	if span == nil {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// GetTraceParent returns the W3C traceparent header value for the context,
// for propagation across Kafka.
func GetTraceParent(ctx context.Context) string {
	span := GetActiveSpan(ctx)
	if span == nil {
		return ""
	}

	tp := propagation.TraceContext{}
	carrier := propagation.MapCarrier{}
	tp.Inject(ctx, carrier)

	return carrier.Get("traceparent")
}
