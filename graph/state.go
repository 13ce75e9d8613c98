package graph

import (
	"errors"
	"sync"
)

// SharedState is the workflow-local mutable map nodes communicate through
// (spec.md §3). It is owned exclusively by the Execution Engine during a
// step: nodes read it in Prepare and write it in Cleanup only.
type SharedState struct {
	mu   sync.Mutex
	data map[string]any
}

// NewSharedState creates a SharedState seeded from initial. initial is
// shallow-copied; the caller's map is never retained.
func NewSharedState(initial map[string]any) *SharedState {
	return &SharedState{data: cloneMap(initial)}
}

// Get returns the value stored under key and whether it was present.
func (s *SharedState) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores value under key.
func (s *SharedState) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string]any)
	}
	s.data[key] = value
}

// Delete removes key, if present.
func (s *SharedState) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Snapshot returns a shallow copy of the current map, suitable for
// embedding in a StepSnapshot. Values themselves are not deep-copied;
// nodes should treat values as immutable once written.
func (s *SharedState) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMap(s.data)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// InputRequest describes an unsatisfied request_input call (spec.md §3).
// RequestID defaults to NodeID when the node issues a single request;
// multiple requests from one node must use distinct RequestIDs.
type InputRequest struct {
	NodeID    string   `json:"node_id"`
	RequestID string   `json:"request_id"`
	Prompt    string   `json:"prompt,omitempty"`
	Options   []string `json:"options,omitempty"`
	InputType string   `json:"input_type,omitempty"`
}

// ErrWaitingForInput is the sentinel a node's Prepare phase should wrap
// (via WaitingForInputError) to signal a cooperative suspension.
var ErrWaitingForInput = errors.New("waiting for input")

// WaitingForInputError carries the InputRequest describing what is needed
// to resume the suspended node. Prepare returns this (or wraps it) instead
// of a prepared value when RequestInput cannot be satisfied from the
// current step's input pool.
type WaitingForInputError struct {
	Request InputRequest
}

// Error implements the error interface.
func (e *WaitingForInputError) Error() string {
	return "node " + e.Request.NodeID + ": waiting for input " + e.Request.RequestID
}

// Unwrap enables errors.Is(err, ErrWaitingForInput).
func (e *WaitingForInputError) Unwrap() error {
	return ErrWaitingForInput
}

// inputBroker implements the request_input capability (spec.md §4.4) for
// one Step, Run or Resume call. It is backed by an input pool supplied by
// the caller, consumes entries on match, and records the first unsatisfied
// request it sees so the engine can persist a WaitingForInput snapshot. Run
// and Resume share one broker across every step they drive, so a pool entry
// that one step leaves unused stays available to later steps of the same
// call.
type inputBroker struct {
	mu      sync.Mutex
	pool    map[string]any
	pending *InputRequest
}

func newInputBroker(pool map[string]any) *inputBroker {
	return &inputBroker{pool: cloneMap(pool)}
}

// forNode binds a RequestInputFunc to nodeID, defaulting RequestID to
// nodeID when the caller passes an empty string.
func (b *inputBroker) forNode(nodeID string) RequestInputFunc {
	return func(requestID, prompt, inputType string, options []string) (any, error) {
		if requestID == "" {
			requestID = nodeID
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if v, ok := b.pool[requestID]; ok {
			delete(b.pool, requestID)
			return v, nil
		}
		req := InputRequest{NodeID: nodeID, RequestID: requestID, Prompt: prompt, Options: options, InputType: inputType}
		if b.pending == nil {
			b.pending = &req
		}
		return nil, &WaitingForInputError{Request: req}
	}
}

// unavailableInput implements RequestInputFunc for contexts with no input
// broker (the standalone node runner, spec.md §4.9): any request_input
// call fails immediately with ErrInputUnavailable.
func unavailableInput(nodeID string) RequestInputFunc {
	return func(requestID, prompt, inputType string, options []string) (any, error) {
		return nil, &EngineError{Message: "request_input called outside engine-driven execution", Code: "INPUT_UNAVAILABLE", NodeID: nodeID, Cause: ErrInputUnavailable}
	}
}
