package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stepgraph/stepgraph/graph/emit"
	"github.com/stepgraph/stepgraph/graph/store"
)

// Engine drives one Graph through the single-threaded, cooperative
// execution model of spec.md §5: at most one node in flight at a time, no
// internal goroutine fan-out. Concurrency across runs is the caller's
// responsibility — create one Engine per Graph and call Run/Resume from as
// many goroutines as needed; an Engine holds no per-run mutable state.
type Engine struct {
	graph *Graph
	cfg   *engineConfig
}

// New builds an Engine for g. The zero-value option set records no
// history (no Store) and discards observability events (NullEmitter).
func New(g *Graph, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, &EngineError{Message: "graph must not be nil", Code: "INVALID_ARGUMENT"}
	}
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.workflowID == "" {
		cfg.workflowID = uuid.NewString()
	}
	return &Engine{graph: g, cfg: cfg}, nil
}

// WorkflowID returns the identifier this Engine stamps onto every run it
// drives.
func (e *Engine) WorkflowID() string { return e.cfg.workflowID }

// RunResult is what Run, Step, Resume, and Fork return: the state of one
// run as of the last step applied to it.
type RunResult struct {
	RunID          string
	WorkflowStatus WorkflowStatus
	Shared         map[string]any
	PendingInput   *InputRequest
	Journal        *Journal
	Err            error
}

// Run starts a fresh run from the graph's start node, using inputPool to
// satisfy any request_input calls it can (spec.md §4.4, §4.9). The first
// snapshot it records is step 0, the post-init snapshot before any node has
// run (spec.md §3, Scenario S1); node executions follow at steps 1..N. If
// the run suspends waiting for input not present in inputPool, Run returns
// a RunResult with WorkflowStatusSuspended and a nil error — suspension is
// not a failure. An empty runID generates a UUID.
func (e *Engine) Run(ctx context.Context, runID string, inputPool map[string]any) (*RunResult, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	shared := NewSharedState(e.graph.InitialShared())
	return e.runLoop(ctx, runID, NewJournal(), shared, "", 0, inputPool)
}

// Step advances runID by exactly one recorded snapshot (spec.md §4.6's step
// operation, the primitive Run loops over) — including the step 0 init
// snapshot itself, which the first Step call on a brand-new runID records
// without running any node. Called again on a run whose last recorded step
// left it WorkflowStatusRunning or WorkflowStatusSuspended, it reconstructs
// state from the configured Store and continues from exactly where that
// step left off — including after a crash that dropped the engine mid-run
// without ever reaching a cooperative suspension (spec.md's
// resume-after-crash scenario): the caller need only retain (workflowID,
// runID) and a new Engine picks the latest step back up. Step requires a
// configured Store whenever runID already has history; stepping a
// brand-new runID works without one, same as Run.
//
// resumeFrom, if given, truncates the run's persisted journal to that step
// before continuing (spec.md §4.6's constructor form, §4.7's truncate), so
// the next Step proceeds as if every step after resumeFrom had never
// happened. At most one value is used; passing more than one is a
// programmer error and only the first is honored.
func (e *Engine) Step(ctx context.Context, runID string, inputPool map[string]any, resumeFrom ...int) (*RunResult, error) {
	if len(resumeFrom) > 0 {
		if err := e.truncateTo(ctx, runID, resumeFrom[0]); err != nil {
			return nil, err
		}
	}
	journal, shared, current, step, err := e.loadOrInitStep(ctx, runID)
	if err != nil {
		return nil, err
	}
	result, _, _, stepErr := e.stepOnce(ctx, runID, journal, shared, current, step, newInputBroker(inputPool))
	return result, stepErr
}

// loadOrInitStep resolves the (journal, shared, current node, step index)
// a call to Step should resume from: freshly, if runID has no persisted
// history, or from the latest persisted StepSnapshot otherwise. current=""
// with step 0 signals a fresh run: stepOnce records the init snapshot
// before ever naming a node.
func (e *Engine) loadOrInitStep(ctx context.Context, runID string) (*Journal, *SharedState, string, int, error) {
	if e.cfg.store != nil {
		storedSteps, err := e.cfg.store.LoadState(ctx, e.cfg.workflowID, runID)
		if err != nil && err != store.ErrNotFound {
			return nil, nil, "", 0, &EngineError{Message: "loading run state", Code: "STORE_ERROR", Cause: err}
		}
		if len(storedSteps) > 0 {
			steps := fromStoredSteps(storedSteps)
			last := steps[len(steps)-1]
			switch last.WorkflowStatus {
			case WorkflowStatusCompleted, WorkflowStatusFailed:
				return nil, nil, "", 0, &EngineError{Message: fmt.Sprintf("run %q already reached a terminal state %q", runID, last.WorkflowStatus), Code: "RUN_ALREADY_TERMINAL"}
			case WorkflowStatusSuspended:
				return JournalFromSteps(steps[:len(steps)-1]), NewSharedState(cloneMap(last.SharedState)), last.NodeID, last.Step, nil
			default: // Running: the last step recorded a next_node_id to continue from.
				return JournalFromSteps(steps), NewSharedState(cloneMap(last.SharedState)), last.NextNodeID, last.Step + 1, nil
			}
		}
	}
	return NewJournal(), NewSharedState(e.graph.InitialShared()), "", 0, nil
}

// truncateTo drops runID's persisted history after step at, keeping at itself (spec.md
// §4.6's resume_from, §4.7's truncate), so a subsequent Step/Resume call
// continues as though the run had never progressed past at. Requires a
// configured Store; it is a no-op only in the sense that a Step/Resume call
// immediately following it observes the run exactly as of step at.
func (e *Engine) truncateTo(ctx context.Context, runID string, at int) error {
	if e.cfg.store == nil {
		return &EngineError{Message: "resume_from requires a configured Store", Code: "NO_STORE"}
	}
	storedSteps, err := e.cfg.store.LoadState(ctx, e.cfg.workflowID, runID)
	if err != nil {
		if err == store.ErrNotFound {
			return &EngineError{Message: fmt.Sprintf("no such run %q", runID), Code: "NO_SUCH_RUN", Cause: ErrNoSuchRun}
		}
		return &EngineError{Message: "loading run state", Code: "STORE_ERROR", Cause: err}
	}
	if at < 0 || at >= len(storedSteps) {
		return &EngineError{Message: fmt.Sprintf("cannot resume from step %d: run has %d steps", at, len(storedSteps)), Code: "RESUME_FROM_OUT_OF_RANGE"}
	}
	journal := JournalFromSteps(fromStoredSteps(storedSteps))
	journal.Truncate(at + 1)
	if err := e.cfg.store.SaveState(ctx, e.cfg.workflowID, runID, toStoredSteps(journal.ReadAll())); err != nil {
		return &EngineError{Message: "persisting truncated history", Code: "STORE_ERROR", Cause: err}
	}
	return nil
}

// Resume continues a run previously suspended on request_input. It loads
// the run's history from the configured Store, re-enters the suspended
// node's Prepare phase from the top (spec.md's decision: no partial-Prepare
// memoization across a suspension), and proceeds with the given inputPool
// to satisfy the pending request and any further ones. Resume is a
// convenience entry point for the cooperative-suspension case specifically;
// Step is the more general primitive and also handles resuming a run that
// was merely interrupted (e.g. by a crash) without ever suspending.
//
// resumeFrom, if given, truncates the run's history to that step first
// (spec.md §4.6, §4.7) — the step named must itself be a suspended step,
// since Resume only ever continues from a suspension.
func (e *Engine) Resume(ctx context.Context, runID string, inputPool map[string]any, resumeFrom ...int) (*RunResult, error) {
	if e.cfg.store == nil {
		return nil, &EngineError{Message: "resume requires a configured Store", Code: "NO_STORE"}
	}
	if len(resumeFrom) > 0 {
		if err := e.truncateTo(ctx, runID, resumeFrom[0]); err != nil {
			return nil, err
		}
	}
	storedSteps, err := e.cfg.store.LoadState(ctx, e.cfg.workflowID, runID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, &EngineError{Message: fmt.Sprintf("no such run %q", runID), Code: "NO_SUCH_RUN", Cause: ErrNoSuchRun}
		}
		return nil, &EngineError{Message: "loading run state", Code: "STORE_ERROR", Cause: err}
	}
	if len(storedSteps) == 0 {
		return nil, &EngineError{Message: fmt.Sprintf("no such run %q", runID), Code: "NO_SUCH_RUN", Cause: ErrNoSuchRun}
	}

	steps := fromStoredSteps(storedSteps)
	last := steps[len(steps)-1]
	if last.WorkflowStatus != WorkflowStatusSuspended {
		return nil, &EngineError{Message: fmt.Sprintf("run %q is not suspended (status %q)", runID, last.WorkflowStatus), Code: "NOT_SUSPENDED"}
	}

	journal := JournalFromSteps(steps[:len(steps)-1])
	shared := NewSharedState(cloneMap(last.SharedState))
	return e.runLoop(ctx, runID, journal, shared, last.NodeID, last.Step, cloneMap(inputPool))
}

// Fork branches a new run off an existing run's history at atStep
// (spec.md §4.7). The new run's journal is seeded with a copy of the
// source run's steps through atStep, stamped with ForkInfo, and persisted
// under newRunID; it is not automatically continued. Call Resume(newRunID,
// ...) afterward if the forked-at step was suspended, or inspect it
// read-only otherwise.
func (e *Engine) Fork(ctx context.Context, sourceRunID string, atStep int, newRunID string) (*RunResult, error) {
	if e.cfg.store == nil {
		return nil, &EngineError{Message: "fork requires a configured Store", Code: "NO_STORE"}
	}
	if newRunID == "" {
		newRunID = uuid.NewString()
	}
	storedSteps, err := e.cfg.store.LoadState(ctx, e.cfg.workflowID, sourceRunID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, &EngineError{Message: fmt.Sprintf("no such run %q", sourceRunID), Code: "NO_SUCH_RUN", Cause: ErrNoSuchRun}
		}
		return nil, &EngineError{Message: "loading source run state", Code: "STORE_ERROR", Cause: err}
	}
	steps := fromStoredSteps(storedSteps)
	if atStep < 0 || atStep >= len(steps) {
		return nil, &EngineError{Message: fmt.Sprintf("cannot fork at step %d: run has %d steps", atStep, len(steps)), Code: "FORK_OUT_OF_RANGE"}
	}

	forked := make([]StepSnapshot, atStep+1)
	copy(forked, steps[:atStep+1])
	forked[atStep].Tracking.Fork = &ForkInfo{ParentRunID: sourceRunID, ForkedAtStep: atStep}

	if err := e.cfg.store.SaveState(ctx, e.cfg.workflowID, newRunID, toStoredSteps(forked)); err != nil {
		return nil, &EngineError{Message: "persisting forked run", Code: "STORE_ERROR", Cause: err}
	}

	last := forked[len(forked)-1]
	return &RunResult{
		RunID:          newRunID,
		WorkflowStatus: last.WorkflowStatus,
		Shared:         cloneMap(last.SharedState),
		PendingInput:   last.PendingInput,
		Journal:        JournalFromSteps(forked),
	}, nil
}

// runLoop is the single-threaded step driver shared by Run and Resume
// (spec.md §4.6, §5): it is run(input_pool?) as spec.md defines it, a loop
// over stepOnce until the workflow completes, fails, suspends, or MaxSteps
// is exceeded.
func (e *Engine) runLoop(ctx context.Context, runID string, journal *Journal, shared *SharedState, current string, step int, inputPool map[string]any) (*RunResult, error) {
	broker := newInputBroker(inputPool)

	for {
		result, next, done, err := e.stepOnce(ctx, runID, journal, shared, current, step, broker)
		if err != nil {
			return result, err
		}
		if done {
			return result, nil
		}
		current = next
		step++
	}
}

// stepOnce executes exactly one step against (journal, shared, current,
// step), persists the resulting snapshot, and reports whether the run has
// reached a terminal or suspended state. It is the shared core behind both
// the public Step method and the Run/Resume loop. current=="" means the
// step 0 init snapshot has not yet been recorded; stepOnce records it and
// hands back the start node as the next step, without running anything.
func (e *Engine) stepOnce(ctx context.Context, runID string, journal *Journal, shared *SharedState, current string, step int, broker *inputBroker) (result *RunResult, nextNode string, done bool, err error) {
	if e.cfg.maxSteps > 0 && step >= e.cfg.maxSteps {
		stepErr := &EngineError{Message: fmt.Sprintf("run %q exceeded %d steps", runID, e.cfg.maxSteps), Code: "MAX_STEPS_EXCEEDED", Cause: ErrMaxStepsExceeded}
		return nil, "", true, stepErr
	}

	if current == "" {
		return e.stepInit(ctx, runID, journal, shared, step)
	}

	node, ok := e.graph.Node(current)
	if !ok {
		stepErr := &EngineError{Message: fmt.Sprintf("node %q not present in graph", current), Code: "INCOMPATIBLE_GRAPH", NodeID: current, Cause: ErrIncompatibleGraph}
		return nil, "", true, stepErr
	}
	def, _ := e.graph.NodeDef(current)
	statuses := e.nodeStatusesAsOf(journal)

	started := time.Now()
	snapshot, next, runErr := e.executeStep(ctx, runID, shared, def, node, current, step, broker, statuses)
	latency := time.Since(started)

	e.cfg.metrics.RecordStep(e.cfg.workflowID, snapshot.NodeStatus, latency, current)
	e.emit(snapshot, "step_complete")

	if appendErr := journal.Append(snapshot); appendErr != nil {
		return nil, "", true, appendErr
	}
	if e.cfg.store != nil {
		if err := e.cfg.store.SaveState(ctx, e.cfg.workflowID, runID, toStoredSteps(journal.ReadAll())); err != nil {
			slog.Error("persist step failed", "workflow_id", e.cfg.workflowID, "run_id", runID, "step", step, "node_id", current, "error", err)
			return nil, "", true, &EngineError{Message: "persisting step", Code: "STORE_ERROR", NodeID: current, Cause: err}
		}
	}

	if runErr != nil {
		return &RunResult{RunID: runID, WorkflowStatus: snapshot.WorkflowStatus, Shared: shared.Snapshot(), Journal: journal, Err: runErr}, "", true, runErr
	}
	if snapshot.WorkflowStatus == WorkflowStatusSuspended {
		return &RunResult{RunID: runID, WorkflowStatus: snapshot.WorkflowStatus, Shared: shared.Snapshot(), PendingInput: snapshot.PendingInput, Journal: journal}, "", true, nil
	}
	if next == "" {
		return &RunResult{RunID: runID, WorkflowStatus: WorkflowStatusCompleted, Shared: shared.Snapshot(), Journal: journal}, "", true, nil
	}
	return &RunResult{RunID: runID, WorkflowStatus: WorkflowStatusRunning, Shared: shared.Snapshot(), Journal: journal}, next, false, nil
}

// stepInit records the post-init, pre-execution step 0 snapshot (spec.md
// §3, Scenario S1): shared as of initial_shared, no node yet run, every
// graph node Pending, and next_node_id pointing at the start node. It is
// itself one step() call rather than folded into the first node's
// execution, so Run's loop over stepOnce naturally produces the "step 0
// init" entry before any node runs.
func (e *Engine) stepInit(ctx context.Context, runID string, journal *Journal, shared *SharedState, step int) (*RunResult, string, bool, error) {
	sharedSnap := shared.Snapshot()
	statuses := e.nodeStatusesAsOf(journal)
	snap := StepSnapshot{
		Step: step, NextNodeID: e.graph.StartID(), NodeStatuses: statuses, WorkflowStatus: WorkflowStatusRunning,
		SharedState: sharedSnap, Tracking: TrackingData{WorkflowID: e.cfg.workflowID, RunID: runID}, Timestamp: time.Now(),
		Metadata: StepMetadata{IdempotencyKey: ComputeIdempotencyKey(e.cfg.workflowID, runID, step, "", sharedSnap)},
	}
	e.emit(snap, "run_initialized")
	if appendErr := journal.Append(snap); appendErr != nil {
		return nil, "", true, appendErr
	}
	if e.cfg.store != nil {
		if err := e.cfg.store.SaveState(ctx, e.cfg.workflowID, runID, toStoredSteps(journal.ReadAll())); err != nil {
			slog.Error("persist init step failed", "workflow_id", e.cfg.workflowID, "run_id", runID, "error", err)
			return nil, "", true, &EngineError{Message: "persisting init step", Code: "STORE_ERROR", Cause: err}
		}
	}
	return &RunResult{RunID: runID, WorkflowStatus: WorkflowStatusRunning, Shared: shared.Snapshot(), Journal: journal}, e.graph.StartID(), false, nil
}

// nodeStatusesAsOf returns the cumulative per-node status map a new step
// should start from: a clone of the latest snapshot's NodeStatuses, or
// every graph node Pending when journal is still empty.
func (e *Engine) nodeStatusesAsOf(journal *Journal) map[string]NodeStatus {
	if last, ok := journal.Latest(); ok && last.NodeStatuses != nil {
		return cloneNodeStatuses(last.NodeStatuses)
	}
	ids := e.graph.NodeIDs()
	out := make(map[string]NodeStatus, len(ids))
	for _, id := range ids {
		out[id] = NodeStatusPending
	}
	return out
}

func cloneNodeStatuses(in map[string]NodeStatus) map[string]NodeStatus {
	out := make(map[string]NodeStatus, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// executeStep runs one node's Prepare/Execute/Cleanup cycle and decides the
// next node to visit (spec.md §4.3, §4.5). statuses is this step's
// cumulative node_statuses map (spec.md §3, §8): executeStep updates
// nodeID's entry in place and the same map is stamped onto the returned
// snapshot. Callers must check runErr and snapshot.WorkflowStatus before
// trusting nextNode.
func (e *Engine) executeStep(ctx context.Context, runID string, shared *SharedState, def *NodeDef, node Node, nodeID string, step int, broker *inputBroker, statuses map[string]NodeStatus) (StepSnapshot, string, error) {
	tracking := TrackingData{WorkflowID: e.cfg.workflowID, RunID: runID}

	prepared, err := node.Prepare(ctx, shared, broker.forNode(nodeID))
	if err != nil {
		if waitErr, ok := asWaitingForInput(err); ok {
			e.cfg.metrics.IncrementWaitingForInput(e.cfg.workflowID, nodeID)
			statuses[nodeID] = NodeStatusWaitingForInput
			sharedSnap := shared.Snapshot()
			snap := StepSnapshot{
				Step: step, NodeID: nodeID, NodeStatus: NodeStatusWaitingForInput, NodeStatuses: statuses, WorkflowStatus: WorkflowStatusSuspended,
				SharedState: sharedSnap, PendingInput: &waitErr.Request, Tracking: tracking, Timestamp: time.Now(),
				Metadata: StepMetadata{IdempotencyKey: ComputeIdempotencyKey(e.cfg.workflowID, runID, step, nodeID, sharedSnap)},
			}
			return snap, "", nil
		}
		return e.failedSnapshot(runID, shared, tracking, nodeID, step, statuses, fmt.Errorf("prepare: %w", err)), "", &NodeExecutionError{NodeID: nodeID, Cause: err}
	}

	result, execErr := e.executeWithRetry(ctx, node, def, nodeID, prepared)
	if execErr != nil {
		e.cfg.metrics.IncrementNodeFailures(e.cfg.workflowID, nodeID)
		return e.failedSnapshot(runID, shared, tracking, nodeID, step, statuses, execErr), "", &NodeExecutionError{NodeID: nodeID, Cause: execErr}
	}

	if err := node.Cleanup(ctx, shared, prepared, result); err != nil {
		return e.failedSnapshot(runID, shared, tracking, nodeID, step, statuses, fmt.Errorf("cleanup: %w", err)), "", &NodeExecutionError{NodeID: nodeID, Cause: err}
	}

	sharedSnap := shared.Snapshot()
	nextNode, condErr := SelectNextEdge(e.graph.OutEdges(nodeID), sharedSnap)
	if condErr != nil {
		return e.failedSnapshot(runID, shared, tracking, nodeID, step, statuses, condErr), "", condErr
	}

	statuses[nodeID] = NodeStatusCompleted
	status := WorkflowStatusRunning
	if nextNode == "" {
		status = WorkflowStatusCompleted
	}
	snap := StepSnapshot{
		Step: step, NodeID: nodeID, NextNodeID: nextNode, NodeStatus: NodeStatusCompleted, NodeStatuses: statuses, WorkflowStatus: status,
		SharedState: sharedSnap, Tracking: tracking, Timestamp: time.Now(),
		Metadata: StepMetadata{IdempotencyKey: ComputeIdempotencyKey(e.cfg.workflowID, runID, step, nodeID, sharedSnap)},
	}
	return snap, nextNode, nil
}

// executeWithRetry runs Execute up to def.MaxRetries times, falling back to
// node's ExecFallback (if implemented) once retries are exhausted
// (spec.md §4.3).
func (e *Engine) executeWithRetry(ctx context.Context, node Node, def *NodeDef, nodeID string, prepared any) (any, error) {
	maxRetries := 1
	if def != nil && def.MaxRetries > 0 {
		maxRetries = def.MaxRetries
	}
	retryWait := e.cfg.retryWait
	if def != nil && def.RetryWait > 0 {
		retryWait = def.RetryWait
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := node.Execute(ctx, prepared)
		if err == nil {
			return result, nil
		}
		lastErr = err
		e.cfg.metrics.IncrementRetries(e.cfg.workflowID, nodeID)
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryWait):
			}
		}
	}

	if fb, ok := node.(Fallback); ok {
		result, err := fb.ExecFallback(ctx, prepared, lastErr)
		if err == nil {
			return result, nil
		}
		return nil, fmt.Errorf("exec failed (%w), fallback failed: %v", lastErr, err)
	}
	return nil, lastErr
}

func (e *Engine) failedSnapshot(runID string, shared *SharedState, tracking TrackingData, nodeID string, step int, statuses map[string]NodeStatus, cause error) StepSnapshot {
	statuses[nodeID] = NodeStatusFailed
	sharedSnap := shared.Snapshot()
	return StepSnapshot{
		Step: step, NodeID: nodeID, NodeStatus: NodeStatusFailed, NodeStatuses: statuses, WorkflowStatus: WorkflowStatusFailed,
		SharedState: sharedSnap, Error: cause.Error(), Tracking: tracking, Timestamp: time.Now(),
		Metadata: StepMetadata{IdempotencyKey: ComputeIdempotencyKey(e.cfg.workflowID, runID, step, nodeID, sharedSnap)},
	}
}

func (e *Engine) emit(snap StepSnapshot, msg string) {
	e.cfg.emitter.Emit(emit.Event{
		WorkflowID: snap.Tracking.WorkflowID,
		RunID:      snap.Tracking.RunID,
		Step:       snap.Step,
		NodeID:     snap.NodeID,
		Msg:        msg,
		Meta: map[string]any{
			"node_status":     string(snap.NodeStatus),
			"workflow_status": string(snap.WorkflowStatus),
		},
	})
}

func asWaitingForInput(err error) (*WaitingForInputError, bool) {
	for err != nil {
		if w, ok := err.(*WaitingForInputError); ok {
			return w, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

func toStoredSteps(steps []StepSnapshot) []store.StoredStep {
	out := make([]store.StoredStep, len(steps))
	for i, s := range steps {
		out[i] = store.StoredStep{
			Step: s.Step, NodeID: s.NodeID, NextNodeID: s.NextNodeID, NodeStatus: string(s.NodeStatus), WorkflowStatus: string(s.WorkflowStatus),
			SharedState: s.SharedState, Error: s.Error, Timestamp: s.Timestamp,
			Metadata: map[string]any{"idempotency_key": s.Metadata.IdempotencyKey, "attempt": s.Metadata.Attempt, "duration_ms": s.Metadata.DurationMS},
		}
		if s.NodeStatuses != nil {
			statuses := make(map[string]string, len(s.NodeStatuses))
			for id, st := range s.NodeStatuses {
				statuses[id] = string(st)
			}
			out[i].NodeStatuses = statuses
		}
		if s.PendingInput != nil {
			out[i].PendingInput = &store.StoredInputRequest{
				NodeID: s.PendingInput.NodeID, RequestID: s.PendingInput.RequestID, Prompt: s.PendingInput.Prompt,
				Options: s.PendingInput.Options, InputType: s.PendingInput.InputType,
			}
		}
	}
	return out
}

func fromStoredSteps(steps []store.StoredStep) []StepSnapshot {
	out := make([]StepSnapshot, len(steps))
	for i, s := range steps {
		meta := StepMetadata{}
		if s.Metadata != nil {
			if v, ok := s.Metadata["idempotency_key"].(string); ok {
				meta.IdempotencyKey = v
			}
			if v, ok := s.Metadata["attempt"].(int); ok {
				meta.Attempt = v
			}
			if v, ok := s.Metadata["duration_ms"].(int64); ok {
				meta.DurationMS = v
			}
		}
		out[i] = StepSnapshot{
			Step: s.Step, NodeID: s.NodeID, NextNodeID: s.NextNodeID, NodeStatus: NodeStatus(s.NodeStatus), WorkflowStatus: WorkflowStatus(s.WorkflowStatus),
			SharedState: s.SharedState, Error: s.Error, Timestamp: s.Timestamp, Metadata: meta,
		}
		if s.NodeStatuses != nil {
			statuses := make(map[string]NodeStatus, len(s.NodeStatuses))
			for id, st := range s.NodeStatuses {
				statuses[id] = NodeStatus(st)
			}
			out[i].NodeStatuses = statuses
		}
		if s.PendingInput != nil {
			out[i].PendingInput = &InputRequest{
				NodeID: s.PendingInput.NodeID, RequestID: s.PendingInput.RequestID, Prompt: s.PendingInput.Prompt,
				Options: s.PendingInput.Options, InputType: s.PendingInput.InputType,
			}
		}
	}
	return out
}
