package graph

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics collects step-oriented execution metrics, namespaced
// "stepgraph". Unlike a concurrent scheduler's queue/inflight gauges, a
// single-threaded engine only has one node in flight at a time, so the
// metric set tracks step throughput, retries, failures, and suspensions
// instead.
//
//   - steps_total (counter): steps completed, labeled by workflow_id and
//     node_status.
//   - step_latency_ms (histogram): wall time of one Prepare+Execute+Cleanup
//     cycle, labeled by workflow_id and node_id.
//   - retries_total (counter): Execute retry attempts, labeled by
//     workflow_id and node_id.
//   - node_failures_total (counter): nodes that exhausted retries and had
//     no (or a failing) fallback, labeled by workflow_id and node_id.
//   - waiting_for_input_total (counter): cooperative suspensions, labeled
//     by workflow_id and node_id.
type PrometheusMetrics struct {
	steps           *prometheus.CounterVec
	stepLatency     *prometheus.HistogramVec
	retries         *prometheus.CounterVec
	nodeFailures    *prometheus.CounterVec
	waitingForInput *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics registers the stepgraph metric set with registry. A
// nil registry uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		enabled: true,
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepgraph",
			Name:      "steps_total",
			Help:      "Steps completed by the execution engine",
		}, []string{"workflow_id", "node_status"}),
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stepgraph",
			Name:      "step_latency_ms",
			Help:      "Duration of one node lifecycle cycle in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"workflow_id", "node_id"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepgraph",
			Name:      "retries_total",
			Help:      "Node Execute retry attempts",
		}, []string{"workflow_id", "node_id"}),
		nodeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepgraph",
			Name:      "node_failures_total",
			Help:      "Nodes that exhausted retries without a successful fallback",
		}, []string{"workflow_id", "node_id"}),
		waitingForInput: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepgraph",
			Name:      "waiting_for_input_total",
			Help:      "Cooperative suspensions via request_input",
		}, []string{"workflow_id", "node_id"}),
	}
}

func (pm *PrometheusMetrics) RecordStep(workflowID string, status NodeStatus, latency time.Duration, nodeID string) {
	if pm == nil || !pm.enabled {
		return
	}
	pm.steps.WithLabelValues(workflowID, string(status)).Inc()
	pm.stepLatency.WithLabelValues(workflowID, nodeID).Observe(float64(latency.Milliseconds()))
}

func (pm *PrometheusMetrics) IncrementRetries(workflowID, nodeID string) {
	if pm == nil || !pm.enabled {
		return
	}
	pm.retries.WithLabelValues(workflowID, nodeID).Inc()
}

func (pm *PrometheusMetrics) IncrementNodeFailures(workflowID, nodeID string) {
	if pm == nil || !pm.enabled {
		return
	}
	pm.nodeFailures.WithLabelValues(workflowID, nodeID).Inc()
}

func (pm *PrometheusMetrics) IncrementWaitingForInput(workflowID, nodeID string) {
	if pm == nil || !pm.enabled {
		return
	}
	pm.waitingForInput.WithLabelValues(workflowID, nodeID).Inc()
}

// Disable stops metric recording without unregistering collectors, useful
// in tests that construct an engine but do not want Prometheus state
// leaking between cases.
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable.
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}
