package graph

import (
	"fmt"
	"sync"
)

// NodeFactory builds a Node instance from its NodeDef's id and config.
// Factories are registered once per ClassName at program init and invoked
// whenever a graph definition referencing that class is constructed
// (spec.md §4.1); resuming a run reuses the Graph's nodes and invokes none.
type NodeFactory func(id string, config map[string]any) (Node, error)

// Registry is a process-wide mapping from a NodeDef's ClassName to the
// factory that constructs it, so graphs can be reconstituted from a
// serialized definition without the caller wiring up node instances by
// hand.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]NodeFactory
}

// NewRegistry creates an empty Registry. Most programs use the package-level
// DefaultRegistry instead of managing their own.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]NodeFactory)}
}

// Register associates className with factory. Registering the same
// className twice overwrites the previous factory — callers that want to
// guard against accidental re-registration should check Lookup first.
func (r *Registry) Register(className string, factory NodeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[className] = factory
}

// Lookup returns the factory registered for className, or
// ErrNodeClassNotRegistered wrapped in an EngineError if none exists.
func (r *Registry) Lookup(className string) (NodeFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[className]
	if !ok {
		return nil, &EngineError{
			Message: fmt.Sprintf("class %q is not registered", className),
			Code:    "NODE_CLASS_NOT_REGISTERED",
			Cause:   ErrNodeClassNotRegistered,
		}
	}
	return f, nil
}

// Build constructs a Node for def by looking up its ClassName and invoking
// the factory with def's id and config.
func (r *Registry) Build(def *NodeDef) (Node, error) {
	factory, err := r.Lookup(def.ClassName)
	if err != nil {
		return nil, err
	}
	n, err := factory(def.ID, def.Config)
	if err != nil {
		return nil, &EngineError{
			Message: fmt.Sprintf("constructing node %q of class %q: %v", def.ID, def.ClassName, err),
			Code:    "NODE_CONSTRUCTION_FAILED",
			NodeID:  def.ID,
			Cause:   err,
		}
	}
	return n, nil
}

// DefaultRegistry is the process-wide registry used by Graph construction
// helpers that do not take an explicit *Registry.
var DefaultRegistry = NewRegistry()

// Register adds factory under className to DefaultRegistry.
func Register(className string, factory NodeFactory) {
	DefaultRegistry.Register(className, factory)
}
