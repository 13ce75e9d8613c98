package emit

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOtelEmitter_RecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	emitter := NewOtelEmitter(tp.Tracer("stepgraph-test"))

	emitter.Emit(Event{
		WorkflowID: "wf1",
		RunID:      "run1",
		Step:       2,
		NodeID:     "n1",
		Msg:        "step_complete",
		Meta:       map[string]any{"node_status": "succeeded"},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 recorded span, got %d", len(spans))
	}
	if spans[0].Name != "step_complete" {
		t.Errorf("span name = %q, want step_complete", spans[0].Name)
	}
}

func TestOtelEmitter_EmitBatch(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	emitter := NewOtelEmitter(tp.Tracer("stepgraph-test"))

	err := emitter.EmitBatch(context.Background(), []Event{
		{Msg: "a"}, {Msg: "b"},
	})
	if err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}
	if len(exporter.GetSpans()) != 2 {
		t.Errorf("expected 2 spans, got %d", len(exporter.GetSpans()))
	}
}

func TestOtelEmitter_SetsErrorStatus(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	emitter := NewOtelEmitter(tp.Tracer("stepgraph-test"))

	emitter.Emit(Event{Msg: "step_failed", Meta: map[string]any{"error": "boom"}})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Description != "boom" {
		t.Errorf("status description = %q, want boom", spans[0].Status.Description)
	}
}

func TestNewSDKTracerProvider(t *testing.T) {
	tp := NewSDKTracerProvider()
	if tp == nil {
		t.Fatal("expected a non-nil TracerProvider")
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
