package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Format selects LogEmitter's output encoding.
type Format int

const (
	// FormatText writes one human-readable line per event.
	FormatText Format = iota
	// FormatJSONL writes one JSON object per event (JSON Lines).
	FormatJSONL
)

// LogEmitter writes events to an io.Writer, either as JSON Lines or as
// human-readable text.
type LogEmitter struct {
	writer io.Writer
	format Format
}

// NewLogEmitter creates a LogEmitter writing to writer in the given format.
// A nil writer defaults to os.Stderr.
func NewLogEmitter(writer io.Writer, format Format) *LogEmitter {
	if writer == nil {
		writer = os.Stderr
	}
	return &LogEmitter{writer: writer, format: format}
}

func (l *LogEmitter) Emit(event Event) {
	switch l.format {
	case FormatJSONL:
		l.writeJSON(event)
	default:
		l.writeText(event)
	}
}

func (l *LogEmitter) writeJSON(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		fmt.Fprintf(l.writer, `{"error":"marshal event: %s"}`+"\n", err)
		return
	}
	fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) writeText(event Event) {
	fmt.Fprintf(l.writer, "[%s] workflow=%s run=%s step=%d node=%s",
		event.Msg, event.WorkflowID, event.RunID, event.Step, event.NodeID)
	if len(event.Meta) > 0 {
		if metaJSON, err := json.Marshal(event.Meta); err == nil {
			fmt.Fprintf(l.writer, " meta=%s", metaJSON)
		}
	}
	fmt.Fprint(l.writer, "\n")
}

// EmitBatch writes events in order. Always succeeds unless the writer
// itself is nil, which cannot happen via NewLogEmitter.
func (l *LogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		l.Emit(e)
	}
	return nil
}

// Flush is a no-op: LogEmitter writes synchronously with no internal
// buffer. Wrap writer in a bufio.Writer and flush that directly if
// buffering is needed.
func (l *LogEmitter) Flush(_ context.Context) error {
	return nil
}
