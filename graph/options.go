package graph

import (
	"time"

	"github.com/stepgraph/stepgraph/graph/emit"
	"github.com/stepgraph/stepgraph/graph/store"
)

// Option is a functional option for configuring an Engine.
//
// Example:
//
//	engine, err := graph.New(g,
//	    graph.WithStore(store.NewMemStore()),
//	    graph.WithEmitter(emit.NewLogEmitter(os.Stderr, emit.FormatJSONL)),
//	    graph.WithMaxSteps(200),
//	)
type Option func(*engineConfig) error

// engineConfig accumulates Option values before New validates and applies
// them to an Engine.
type engineConfig struct {
	registry   *Registry
	store      store.Store
	emitter    emit.Emitter
	metrics    *PrometheusMetrics
	maxSteps   int
	retryWait  time.Duration
	workflowID string
}

func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		registry:  DefaultRegistry,
		emitter:   emit.NullEmitter{},
		maxSteps:  0,
		retryWait: 0,
	}
}

// WithRegistry sets the Registry kept in the engine configuration. Default:
// DefaultRegistry. The Engine does not consult it: Run, Step, Resume and Fork
// use the node instances already built into the Graph passed to New.
func WithRegistry(r *Registry) Option {
	return func(cfg *engineConfig) error {
		if r == nil {
			return &EngineError{Message: "registry must not be nil", Code: "INVALID_OPTION"}
		}
		cfg.registry = r
		return nil
	}
}

// WithStore sets the State Store (C8) the engine persists step snapshots
// to. Default: none, meaning Run does not persist and Resume is
// unavailable.
func WithStore(s store.Store) Option {
	return func(cfg *engineConfig) error {
		cfg.store = s
		return nil
	}
}

// WithEmitter sets the observability sink the engine reports lifecycle
// events to. Default: emit.NullEmitter{}.
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *engineConfig) error {
		if e == nil {
			return &EngineError{Message: "emitter must not be nil", Code: "INVALID_OPTION"}
		}
		cfg.emitter = e
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection.
func WithMetrics(metrics *PrometheusMetrics) Option {
	return func(cfg *engineConfig) error {
		cfg.metrics = metrics
		return nil
	}
}

// WithMaxSteps limits execution to prevent an unconditional loop from
// running forever. Default: 0 (no limit, use with caution).
//
// Workflow loops (A -> B -> A) are fully supported via edge conditions;
// MaxSteps only guards against a conditional exit that never fires. When
// exceeded, Run returns an EngineError wrapping ErrMaxStepsExceeded.
func WithMaxSteps(n int) Option {
	return func(cfg *engineConfig) error {
		if n < 0 {
			return &EngineError{Message: "max steps must be >= 0", Code: "INVALID_OPTION"}
		}
		cfg.maxSteps = n
		return nil
	}
}

// WithDefaultRetryWait sets the delay between Execute attempts for nodes
// whose NodeDef does not specify its own RetryWait. Default: 0.
func WithDefaultRetryWait(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		cfg.retryWait = d
		return nil
	}
}

// WithWorkflowID sets the identifier recorded in every StepSnapshot's
// TrackingData and used as the metrics/emitter label. Default: a generated
// UUID.
func WithWorkflowID(id string) Option {
	return func(cfg *engineConfig) error {
		cfg.workflowID = id
		return nil
	}
}
