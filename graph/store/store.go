// Package store defines the persistence port the execution engine resumes
// and inspects runs through (C8, spec.md §4.8). It deliberately has no
// dependency on the graph package: a Store only ever sees the serialized
// shape of a run's history, never node instances or live SharedState.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by LoadState when no run matches the given
// workflow/run id pair.
var ErrNotFound = errors.New("store: run not found")

// StoredInputRequest mirrors graph.InputRequest for serialization without
// creating an import cycle back into the graph package.
type StoredInputRequest struct {
	NodeID    string   `json:"node_id"`
	RequestID string   `json:"request_id"`
	Prompt    string   `json:"prompt,omitempty"`
	Options   []string `json:"options,omitempty"`
	InputType string   `json:"input_type,omitempty"`
}

// StoredStep mirrors one graph.StepSnapshot. Fields are plain
// JSON-serializable values so any Store backend can persist it verbatim.
type StoredStep struct {
	Step           int                 `json:"step"`
	NodeID         string              `json:"node_id"`
	NextNodeID     string              `json:"next_node_id,omitempty"`
	NodeStatus     string              `json:"node_status"`
	NodeStatuses   map[string]string   `json:"node_statuses,omitempty"`
	WorkflowStatus string              `json:"workflow_status"`
	SharedState    map[string]any      `json:"shared_state"`
	PendingInput   *StoredInputRequest `json:"pending_input,omitempty"`
	Error          string              `json:"error,omitempty"`
	Metadata       map[string]any      `json:"metadata,omitempty"`
	Timestamp      time.Time           `json:"timestamp"`
}

// RunInfo is a summary row returned by ListRuns.
type RunInfo struct {
	WorkflowID string    `json:"workflow_id"`
	RunID      string    `json:"run_id"`
	Status     string    `json:"status"`
	StepCount  int       `json:"step_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store is the persistence port the Execution Engine resumes and inspects
// runs through (spec.md §4.8, §6). Implementations own durability; the
// engine never retains state beyond what it passes to SaveState.
type Store interface {
	// SaveState persists the full step history of one run, replacing
	// whatever was previously stored for (workflowID, runID). Callers
	// pass the complete history on every call; Store implementations do
	// not need to support incremental appends.
	SaveState(ctx context.Context, workflowID, runID string, steps []StoredStep) error

	// LoadState retrieves the step history for (workflowID, runID), or
	// ErrNotFound if no run matches.
	LoadState(ctx context.Context, workflowID, runID string) ([]StoredStep, error)

	// ListRuns returns a summary of every run recorded under workflowID.
	ListRuns(ctx context.Context, workflowID string) ([]RunInfo, error)

	// ListWorkflows returns every distinct workflow id with at least one
	// stored run.
	ListWorkflows(ctx context.Context) ([]string, error)
}
