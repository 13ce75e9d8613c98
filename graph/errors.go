// Package graph provides the core graph execution engine for the workflow engine.
package graph

import "errors"

// ErrGraphValidation indicates a graph definition failed construction-time
// validation: a missing or unresolvable start node, or a dangling edge
// endpoint. A duplicate node id does not cause it: GraphBuilder.AddNode keeps
// the last definition given for an id.
var ErrGraphValidation = errors.New("graph validation failed")

// ErrNodeClassNotRegistered indicates a NodeDef's ClassName has no matching
// factory in the Registry. Raised during graph construction; resuming a run
// builds no nodes and so never raises it.
var ErrNodeClassNotRegistered = errors.New("node class not registered")

// ErrIncompatibleGraph indicates a resume was attempted against a graph that
// is missing a node referenced by the journal's history.
var ErrIncompatibleGraph = errors.New("graph incompatible with journal history")

// ErrConditionError indicates an edge condition failed to evaluate. The
// workflow transitions to Failed when this occurs mid-run.
var ErrConditionError = errors.New("condition evaluation failed")

// ErrInputUnavailable is returned by the standalone node runner (C9) when a
// node calls RequestInput; standalone runs have no input broker.
var ErrInputUnavailable = errors.New("request_input unavailable outside engine-driven execution")

// ErrStoreError names the State Store failure kind. The engine does not
// return it: a store failure surfaces as an *EngineError with Code
// "STORE_ERROR" whose Cause is the store's own error, so errors.Is(err,
// ErrStoreError) is false for those errors.
var ErrStoreError = errors.New("state store operation failed")

// ErrStepOutOfOrder is an internal invariant failure: the journal was asked
// to append a snapshot whose Step does not equal the next expected index.
var ErrStepOutOfOrder = errors.New("step appended out of order")

// ErrMaxStepsExceeded indicates execution reached the caller-configured step
// ceiling without completing. Guards against unconditional loops.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// ErrNoSuchRun indicates a resume was requested for a (workflow_id, run_id)
// the configured Store has no record of.
var ErrNoSuchRun = errors.New("no such run")

// EngineError is a structured error carrying a machine-readable Code in
// addition to a human-readable Message, mirroring the taxonomy nodes use to
// report execution failures (spec.md §7).
type EngineError struct {
	// Message is the human-readable description.
	Message string

	// Code is a machine-readable error code, e.g. "MAX_STEPS_EXCEEDED".
	Code string

	// NodeID identifies the node that produced this error, if any.
	NodeID string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying cause for error-chain inspection.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// NodeExecutionError represents a node's terminal failure after retries and
// an optional fallback have both been exhausted (spec.md §4.3, §7).
type NodeExecutionError struct {
	NodeID string
	Cause  error
}

// Error implements the error interface.
func (e *NodeExecutionError) Error() string {
	return "node " + e.NodeID + " execution failed: " + e.Cause.Error()
}

// Unwrap returns the underlying cause for error-chain inspection.
func (e *NodeExecutionError) Unwrap() error {
	return e.Cause
}
