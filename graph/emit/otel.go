package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// NewSDKTracerProvider builds an in-process OpenTelemetry TracerProvider
// with no exporter attached, for programs that want NewOtelEmitter's span
// recording (and Flush's ForceFlush support) without standing up a
// collector. Callers that already configure their own TracerProvider
// should use that instead and skip this helper.
func NewSDKTracerProvider() *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider()
}

// OtelEmitter records each event as an instantaneous OpenTelemetry span:
// standard attributes (workflow id, run id, step, node id) plus whatever
// Meta carries, with span status set to error when Meta["error"] is set.
type OtelEmitter struct {
	tracer trace.Tracer
}

// NewOtelEmitter creates an OtelEmitter from tracer, e.g.
// otel.Tracer("stepgraph").
func NewOtelEmitter(tracer trace.Tracer) *OtelEmitter {
	return &OtelEmitter{tracer: tracer}
}

func (o *OtelEmitter) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), event.Msg)
	defer span.End()
	o.annotate(span, event)
}

func (o *OtelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		_, span := o.tracer.Start(ctx, event.Msg)
		o.annotate(span, event)
		span.End()
	}
	return nil
}

func (o *OtelEmitter) annotate(span trace.Span, event Event) {
	span.SetAttributes(
		attribute.String("stepgraph.workflow_id", event.WorkflowID),
		attribute.String("stepgraph.run_id", event.RunID),
		attribute.Int("stepgraph.step", event.Step),
		attribute.String("stepgraph.node_id", event.NodeID),
	)
	for k, v := range event.Meta {
		switch val := v.(type) {
		case string:
			span.SetAttributes(attribute.String(k, val))
		case int:
			span.SetAttributes(attribute.Int(k, val))
		case int64:
			span.SetAttributes(attribute.Int64(k, val))
		case float64:
			span.SetAttributes(attribute.Float64(k, val))
		case bool:
			span.SetAttributes(attribute.Bool(k, val))
		default:
			span.SetAttributes(attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
	if errMsg, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, errMsg)
	}
}

// Flush force-flushes the registered global TracerProvider, if it supports
// flushing (the SDK provider does; the no-op provider silently ignores it).
func (o *OtelEmitter) Flush(ctx context.Context) error {
	type flusher interface {
		ForceFlush(context.Context) error
	}
	if f, ok := otel.GetTracerProvider().(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}
