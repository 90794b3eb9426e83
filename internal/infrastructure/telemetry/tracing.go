package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of application spans and meters
const TracerName = "rental-backend"

// Span attribute keys
var (
	SpanAttrRoomNumber = attribute.Key("room.number")
	SpanAttrMonth      = attribute.Key("billing.month")
	SpanAttrRoomCount  = attribute.Key("billing.rooms")
	SpanAttrCacheHit   = attribute.Key("billing.cache_hit")
	SpanAttrRows       = attribute.Key("import.rows")
)

// StartServiceSpan starts "<service>.<method>" on the global tracer, so it
// follows whatever provider Setup installed. The caller ends the span.
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "ComputeMonthlyBilling",
//		telemetry.SpanAttrMonth.String(month.String()))
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// SetAttributes tolerates a nil span
func SetAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}

// RecordError marks the span failed; nil errors and spans are ignored
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
