// Package emit provides observability event emission for the execution
// engine.
package emit

// Event is one observability record emitted during a run (spec.md §9).
// Step is zero for workflow-level events (run started, run completed) and
// the journal step index for node-level events.
type Event struct {
	WorkflowID string
	RunID      string
	Step       int
	NodeID     string
	Msg        string
	Meta       map[string]any
}
