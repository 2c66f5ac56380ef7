// Package telemetry provides the control-core's tracing surface (spec
// §4.9, C10). Grounded on observability/telemetry.go's
// otel.Tracer/trace.Span usage, trimmed from the teacher's multi-backend
// TelemetryProvider (DataDog/Elastic/Prometheus/OTLP clients) down to the
// bare tracer the event controller needs: one span per dispatched event,
// exported only if the process wires a real SDK TracerProvider — left at
// its no-op default otherwise.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "elevator-control-core"

// Tracer wraps the OpenTelemetry tracer used to span dispatched cabin
// events.
type Tracer struct {
	tracer trace.Tracer
}

// New returns a Tracer backed by the globally configured
// TracerProvider. When no provider has been registered, spans are
// created against the SDK's no-op implementation, so calling code never
// needs to check whether tracing is enabled.
func New() *Tracer {
	return &Tracer{tracer: otel.Tracer(instrumentationName)}
}

// StartEvent opens a span named after the dispatched event kind,
// recording the floor it concerns as a span attribute. Callers must end
// the returned span once the handler has finished running.
func (t *Tracer) StartEvent(ctx context.Context, event string, floor int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, event, trace.WithAttributes(
		attribute.String("event.kind", event),
		attribute.Int("event.floor", floor),
	))
}
