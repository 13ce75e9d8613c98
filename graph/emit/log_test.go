package emit

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLogEmitter_Text(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, FormatText)
	e.Emit(Event{WorkflowID: "wf", RunID: "run1", Step: 3, NodeID: "n1", Msg: "step_complete"})

	out := buf.String()
	if !strings.Contains(out, "[step_complete]") {
		t.Errorf("output missing message: %s", out)
	}
	if !strings.Contains(out, "workflow=wf") || !strings.Contains(out, "run=run1") {
		t.Errorf("output missing identifiers: %s", out)
	}
}

func TestLogEmitter_JSONL(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, FormatJSONL)
	e.Emit(Event{WorkflowID: "wf", RunID: "run1", Step: 1, NodeID: "n1", Msg: "step_complete"})

	out := buf.String()
	if !strings.HasPrefix(out, "{") {
		t.Errorf("expected a JSON object line, got %q", out)
	}
	if !strings.Contains(out, `"WorkflowID":"wf"`) {
		t.Errorf("expected marshaled WorkflowID, got %q", out)
	}
}

func TestLogEmitter_NilWriterDefaultsToStderr(t *testing.T) {
	e := NewLogEmitter(nil, FormatText)
	if e.writer == nil {
		t.Error("expected a non-nil default writer")
	}
}

func TestLogEmitter_EmitBatch(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, FormatJSONL)
	events := []Event{
		{WorkflowID: "wf", Step: 0, Msg: "a"},
		{WorkflowID: "wf", Step: 1, Msg: "b"},
	}
	if err := e.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 output lines, got %d", len(lines))
	}
}

func TestLogEmitter_Flush(t *testing.T) {
	e := NewLogEmitter(&bytes.Buffer{}, FormatText)
	if err := e.Flush(context.Background()); err != nil {
		t.Errorf("Flush: %v, want nil (no-op)", err)
	}
}

func TestNullEmitter(t *testing.T) {
	var n NullEmitter
	n.Emit(Event{Msg: "discarded"})
	if err := n.EmitBatch(context.Background(), []Event{{Msg: "discarded"}}); err != nil {
		t.Errorf("EmitBatch: %v", err)
	}
	if err := n.Flush(context.Background()); err != nil {
		t.Errorf("Flush: %v", err)
	}
}
