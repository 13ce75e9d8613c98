package emit

import "context"

// Emitter receives observability events from the execution engine.
// Implementations must not block execution for long and must not panic;
// a failing backend should log internally and drop the event rather than
// propagate an error up through the engine.
type Emitter interface {
	// Emit sends a single event.
	Emit(event Event)

	// EmitBatch sends events in order. Returns an error only for
	// configuration-level failures, not per-event delivery problems.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until buffered events are sent, or ctx is done.
	Flush(ctx context.Context) error
}
