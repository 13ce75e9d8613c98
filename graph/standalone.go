package graph

import (
	"context"
	"fmt"
	"time"
)

// StandaloneTrace records what happened when a single Node was exercised
// outside an Engine-driven run (C9, spec.md §4.9) — useful for unit-testing
// one node's Prepare/Execute/Cleanup without standing up a Graph.
type StandaloneTrace struct {
	NodeID     string
	Prepared   any
	Result     any
	Retries    int
	UsedFallback bool
	Duration   time.Duration
}

// RunStandalone exercises node in isolation: Prepare, then Execute with
// retry (and Fallback, if node implements it), then Cleanup against shared.
// request_input is unavailable in this context — any call to it fails
// immediately with ErrInputUnavailable (spec.md §4.9), since there is no
// engine-managed input pool to satisfy it from.
func RunStandalone(ctx context.Context, nodeID string, node Node, shared *SharedState, maxRetries int, retryWait time.Duration) (*StandaloneTrace, error) {
	if shared == nil {
		shared = NewSharedState(nil)
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}

	started := time.Now()
	trace := &StandaloneTrace{NodeID: nodeID}

	prepared, err := node.Prepare(ctx, shared, unavailableInput(nodeID))
	if err != nil {
		return trace, fmt.Errorf("prepare: %w", err)
	}
	trace.Prepared = prepared

	var lastErr error
	var result any
	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, lastErr = node.Execute(ctx, prepared)
		if lastErr == nil {
			break
		}
		trace.Retries++
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return trace, ctx.Err()
			case <-time.After(retryWait):
			}
		}
	}
	if lastErr != nil {
		if fb, ok := node.(Fallback); ok {
			result, lastErr = fb.ExecFallback(ctx, prepared, lastErr)
			trace.UsedFallback = lastErr == nil
		}
		if lastErr != nil {
			trace.Duration = time.Since(started)
			return trace, fmt.Errorf("execute: %w", lastErr)
		}
	}
	trace.Result = result

	if err := node.Cleanup(ctx, shared, prepared, result); err != nil {
		trace.Duration = time.Since(started)
		return trace, fmt.Errorf("cleanup: %w", err)
	}

	trace.Duration = time.Since(started)
	return trace, nil
}
