package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "oac"

// Tracer returns the oac tracer from the global provider
func Tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(tracerName)
}

// WithSpan runs f inside a span named name. A non-nil error from f marks
// the span as failed.
func WithSpan(ctx context.Context, name string, f func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	err := f(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

// RecordConversion annotates the current span with the outcome of an
// adapter conversion.
func RecordConversion(ctx context.Context, adapter, direction string, warnings, errs int) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("oac.adapter", adapter),
		attribute.String("oac.direction", direction),
		attribute.Int("oac.warnings", warnings),
		attribute.Int("oac.errors", errs),
	)
	if errs > 0 {
		span.SetStatus(codes.Error, "conversion failed")
	}
}

// SetAttributes sets attributes on the current span
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
