package graph

import "context"

// Node is the three-phase execution contract every workflow vertex
// implements (spec.md §3, §4.3).
//
// The engine invokes the phases in order for every step: Prepare reads
// shared state and may cooperatively suspend via the RequestInput it is
// given; Execute does the work in isolation from shared state and is
// wrapped in the node's retry policy; Cleanup writes results back into
// shared state. A node must not mutate shared state outside Cleanup —
// the engine does not police this, but Execute writes to shared state are
// undefined behavior per spec.
type Node interface {
	// Prepare reads shared state and produces the value Execute will
	// consume. It may call RequestInput any number of times; if an input
	// it asks for is not present in the current step's input pool,
	// Prepare must return the *WaitingForInputError RequestInput gave it
	// (or an error wrapping it) so the engine can suspend the workflow; a
	// bare ErrWaitingForInput fails the step instead. Prepare may be re-entered from
	// the top on resume — it must tolerate being called again after a
	// partial, suspended invocation.
	Prepare(ctx context.Context, shared *SharedState, requestInput RequestInputFunc) (prepared any, err error)

	// Execute performs the node's work against the value Prepare
	// produced. It must not read or write shared state. The engine
	// retries Execute up to the node's MaxRetries, waiting RetryWait
	// between attempts.
	Execute(ctx context.Context, prepared any) (result any, err error)

	// Cleanup writes Execute's result back into shared state. It is
	// called once, after Execute succeeds (directly or via fallback).
	Cleanup(ctx context.Context, shared *SharedState, prepared any, result any) error
}

// RequestInputFunc is the capability a node's Prepare phase uses to
// cooperatively request external input (spec.md §4.4). requestID defaults
// to the node's own id when empty.
type RequestInputFunc func(requestID, prompt, inputType string, options []string) (value any, err error)

// Fallback is an optional capability a Node implements to substitute a
// value for Execute's result after all retry attempts have failed
// (spec.md §4.3). If a node does not implement Fallback, exhausting
// retries fails the step.
type Fallback interface {
	// ExecFallback is invoked with the last retry's error and must return
	// a substitute result, or an error to fail the step.
	ExecFallback(ctx context.Context, prepared any, cause error) (result any, err error)
}

// NodeFunc adapts three plain functions into a Node, for nodes simple
// enough not to warrant a named type.
type NodeFunc struct {
	PrepareFunc func(ctx context.Context, shared *SharedState, requestInput RequestInputFunc) (any, error)
	ExecuteFunc func(ctx context.Context, prepared any) (any, error)
	CleanupFunc func(ctx context.Context, shared *SharedState, prepared any, result any) error
}

// Prepare implements Node.
func (f NodeFunc) Prepare(ctx context.Context, shared *SharedState, requestInput RequestInputFunc) (any, error) {
	if f.PrepareFunc == nil {
		return nil, nil
	}
	return f.PrepareFunc(ctx, shared, requestInput)
}

// Execute implements Node.
func (f NodeFunc) Execute(ctx context.Context, prepared any) (any, error) {
	if f.ExecuteFunc == nil {
		return prepared, nil
	}
	return f.ExecuteFunc(ctx, prepared)
}

// Cleanup implements Node.
func (f NodeFunc) Cleanup(ctx context.Context, shared *SharedState, prepared any, result any) error {
	if f.CleanupFunc == nil {
		return nil
	}
	return f.CleanupFunc(ctx, shared, prepared, result)
}
