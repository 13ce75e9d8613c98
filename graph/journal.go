package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// WorkflowStatus is the coarse-grained state of a run, recorded on every
// StepSnapshot (spec.md §3).
type WorkflowStatus string

const (
	WorkflowStatusRunning   WorkflowStatus = "running"
	WorkflowStatusSuspended WorkflowStatus = "suspended"
	WorkflowStatusCompleted WorkflowStatus = "completed"
	WorkflowStatusFailed    WorkflowStatus = "failed"
)

// NodeStatus is a node's lifecycle state, tracked per node id across a run
// (spec.md §3: `Pending | Queued | Running | Completed | Failed | WaitingForInput`).
type NodeStatus string

const (
	NodeStatusPending         NodeStatus = "pending"
	NodeStatusQueued          NodeStatus = "queued"
	NodeStatusRunning         NodeStatus = "running"
	NodeStatusCompleted       NodeStatus = "completed"
	NodeStatusFailed          NodeStatus = "failed"
	NodeStatusWaitingForInput NodeStatus = "waiting_for_input"
)

// ForkInfo links a run back to the run and step it was forked from
// (spec.md §4.7).
type ForkInfo struct {
	ParentRunID  string `json:"parent_run_id"`
	ForkedAtStep int    `json:"forked_at_step"`
}

// StepMetadata carries per-step bookkeeping that is not itself part of the
// workflow's observable state.
type StepMetadata struct {
	IdempotencyKey string `json:"idempotency_key"`
	Attempt        int    `json:"attempt"`
	DurationMS     int64  `json:"duration_ms"`
}

// TrackingData identifies which workflow and run a StepSnapshot belongs to,
// and records its fork lineage if any.
type TrackingData struct {
	WorkflowID string    `json:"workflow_id"`
	RunID      string    `json:"run_id"`
	Fork       *ForkInfo `json:"fork,omitempty"`
}

// StepSnapshot is one immutable entry in a run's journal (spec.md §3, §4.6):
// the shared state as of the end of step Step, the node that ran, and
// enough status to resume or inspect the run without replaying history.
// Step 0 is special: the post-init, pre-execution snapshot recorded before
// any node has run (NodeID is empty, SharedState is the graph's
// initial_shared, NextNodeID is the start node, and every graph node is
// Pending in NodeStatuses). Node executions are recorded at steps 1..N.
type StepSnapshot struct {
	Step           int                   `json:"step"`
	NodeID         string                `json:"node_id"`
	NextNodeID     string                `json:"next_node_id,omitempty"`
	NodeStatus     NodeStatus            `json:"node_status"`
	NodeStatuses   map[string]NodeStatus `json:"node_statuses"`
	WorkflowStatus WorkflowStatus        `json:"workflow_status"`
	SharedState    map[string]any        `json:"shared_state"`
	PendingInput   *InputRequest         `json:"pending_input,omitempty"`
	Error          string                `json:"error,omitempty"`
	Metadata       StepMetadata          `json:"metadata"`
	Tracking       TrackingData          `json:"tracking"`
	Timestamp      time.Time             `json:"timestamp"`
}

// Journal is the append-only, step-indexed history of one run (C7,
// spec.md §4.6). It is the unit the Execution Engine persists through a
// Store, and the structure Resume/Fork operate on.
type Journal struct {
	mu    sync.Mutex
	steps []StepSnapshot
}

// NewJournal returns an empty Journal.
func NewJournal() *Journal {
	return &Journal{}
}

// JournalFromSteps rehydrates a Journal from previously persisted steps,
// e.g. after Store.LoadState. Steps must already be in step order;
// JournalFromSteps does not check that they are.
func JournalFromSteps(steps []StepSnapshot) *Journal {
	j := &Journal{steps: append([]StepSnapshot(nil), steps...)}
	return j
}

// Append adds s to the journal. s.Step must equal the journal's current
// length; any other value is ErrStepOutOfOrder, guarding against a caller
// double-appending or skipping a step after a crash.
func (j *Journal) Append(s StepSnapshot) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if s.Step != len(j.steps) {
		return &EngineError{
			Message: fmt.Sprintf("expected step %d, got %d", len(j.steps), s.Step),
			Code:    "STEP_OUT_OF_ORDER",
			NodeID:  s.NodeID,
			Cause:   ErrStepOutOfOrder,
		}
	}
	j.steps = append(j.steps, s)
	return nil
}

// Truncate drops every step at or after fromStep, for replacing a suspended
// tail with a fresh resumption (spec.md §4.6).
func (j *Journal) Truncate(fromStep int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if fromStep < 0 {
		fromStep = 0
	}
	if fromStep < len(j.steps) {
		j.steps = j.steps[:fromStep]
	}
}

// Len returns the number of steps recorded.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.steps)
}

// Read returns the step at index, if present.
func (j *Journal) Read(step int) (StepSnapshot, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if step < 0 || step >= len(j.steps) {
		return StepSnapshot{}, false
	}
	return j.steps[step], true
}

// Latest returns the most recently appended step, if any.
func (j *Journal) Latest() (StepSnapshot, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.steps) == 0 {
		return StepSnapshot{}, false
	}
	return j.steps[len(j.steps)-1], true
}

// ReadAll returns a copy of the full step history.
func (j *Journal) ReadAll() []StepSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]StepSnapshot(nil), j.steps...)
}

// Fork copies the steps up to and including atStep into a new Journal, for
// branching a new run off an existing one's history (spec.md §4.7). The
// caller is responsible for stamping the new run's TrackingData.Fork on
// subsequent appends; Fork itself only slices history.
func (j *Journal) Fork(atStep int) (*Journal, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if atStep < 0 || atStep >= len(j.steps) {
		return nil, &EngineError{Message: fmt.Sprintf("cannot fork at step %d: journal has %d steps", atStep, len(j.steps)), Code: "FORK_OUT_OF_RANGE"}
	}
	forked := append([]StepSnapshot(nil), j.steps[:atStep+1]...)
	return &Journal{steps: forked}, nil
}

// ComputeIdempotencyKey derives a stable key for a (workflow, run, step,
// shared-state) tuple so a resumed engine can detect whether it is about to
// re-execute a step it already recorded, rather than silently double-run a
// side-effecting node. Shared state is marshaled with sorted keys so the
// hash is independent of map iteration order.
func ComputeIdempotencyKey(workflowID, runID string, step int, nodeID string, shared map[string]any) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%s|", workflowID, runID, step, nodeID)
	for _, k := range sortedKeys(shared) {
		b, err := json.Marshal(shared[k])
		if err != nil {
			b = []byte(fmt.Sprintf("%v", shared[k]))
		}
		fmt.Fprintf(h, "%s=%s;", k, b)
	}
	return hex.EncodeToString(h.Sum(nil))
}
