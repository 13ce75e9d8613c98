package graph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// NodeDef is a vertex of the graph (spec.md §3). Config is treated as
// immutable once the owning Graph is built; the engine never mutates it.
type NodeDef struct {
	// ID must be unique within one Graph.
	ID string `json:"id"`

	// ClassName resolves to a Node factory via a Registry.
	ClassName string `json:"class"`

	// Config is passed verbatim to the node factory.
	Config map[string]any `json:"config,omitempty"`

	// MaxRetries is the number of Execute attempts (>= 1). Zero is
	// normalized to 1 by GraphBuilder.AddNode.
	MaxRetries int `json:"max_retries,omitempty"`

	// RetryWait is the delay between Execute attempts.
	RetryWait time.Duration `json:"retry_wait,omitempty"`
}

// edgeJSON is the wire shape of an EdgeDef (spec.md §6).
type edgeJSON struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Condition string `json:"condition,omitempty"`
}

// GraphDefinition is the JSON-equivalent declarative workflow definition
// format (spec.md §6).
type GraphDefinition struct {
	Start        string         `json:"start"`
	InitialState map[string]any `json:"initial_state,omitempty"`
	Nodes        []NodeDef      `json:"nodes"`
	Edges        []edgeJSON     `json:"edges"`
}

// Graph is the validated, immutable workflow definition (spec.md §3). It is
// safe for concurrent reads by multiple Engines and carries no per-run
// mutable state.
type Graph struct {
	nodeOrder     []string
	nodeDefs      map[string]*NodeDef
	nodes         map[string]Node
	edges         []*EdgeDef
	outEdges      map[string][]*EdgeDef
	startID       string
	initialShared map[string]any
}

// StartID returns the graph's designated entry node id.
func (g *Graph) StartID() string { return g.startID }

// InitialShared returns a copy of the graph's initial shared state.
func (g *Graph) InitialShared() map[string]any { return cloneMap(g.initialShared) }

// Node returns the built Node instance for id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeDef returns the NodeDef for id.
func (g *Graph) NodeDef(id string) (*NodeDef, bool) {
	d, ok := g.nodeDefs[id]
	return d, ok
}

// NodeIDs returns node ids in declaration order.
func (g *Graph) NodeIDs() []string {
	out := make([]string, len(g.nodeOrder))
	copy(out, g.nodeOrder)
	return out
}

// OutEdges returns the edges declared with From == nodeID, in declaration
// order — the order the Transition Evaluator relies on for tie-breaks
// (spec.md §4.5).
func (g *Graph) OutEdges(nodeID string) []*EdgeDef {
	return g.outEdges[nodeID]
}

// DOT renders the graph as Graphviz DOT text, for consumption by the
// (out-of-scope) visual editor or ad-hoc debugging.
func (g *Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph workflow {\n")
	for _, id := range g.nodeOrder {
		shape := "box"
		if id == g.startID {
			shape = "box,style=bold"
		}
		fmt.Fprintf(&b, "  %q [shape=%s];\n", id, shape)
	}
	for _, e := range g.edges {
		label := e.Condition
		if label == "" {
			label = "default"
		}
		fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", e.From, e.To, label)
	}
	b.WriteString("}\n")
	return b.String()
}

// GraphBuilder assembles a Graph programmatically before validating and
// constructing node instances via a Registry (spec.md §4.2).
type GraphBuilder struct {
	nodeOrder []string
	nodeDefs  map[string]*NodeDef
	edges     []*EdgeDef
	startID   string
	initial   map[string]any
}

// NewGraphBuilder returns an empty GraphBuilder.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{nodeDefs: make(map[string]*NodeDef)}
}

// AddNode registers def as a vertex. MaxRetries is normalized to 1 if left
// at zero.
func (b *GraphBuilder) AddNode(def NodeDef) *GraphBuilder {
	if def.MaxRetries <= 0 {
		def.MaxRetries = 1
	}
	d := def
	if _, exists := b.nodeDefs[d.ID]; !exists {
		b.nodeOrder = append(b.nodeOrder, d.ID)
	}
	b.nodeDefs[d.ID] = &d
	return b
}

// Connect adds a directed edge. condition == "" makes it a default edge.
func (b *GraphBuilder) Connect(from, to, condition string) *GraphBuilder {
	b.edges = append(b.edges, &EdgeDef{From: from, To: to, Condition: condition})
	return b
}

// Start designates the graph's entry node.
func (b *GraphBuilder) Start(id string) *GraphBuilder {
	b.startID = id
	return b
}

// WithInitialShared sets the shared state a run starts from.
func (b *GraphBuilder) WithInitialShared(m map[string]any) *GraphBuilder {
	b.initial = cloneMap(m)
	return b
}

// Build validates the accumulated definition and constructs node instances
// via registry, returning ErrGraphValidation or ErrNodeClassNotRegistered
// on failure.
func (b *GraphBuilder) Build(registry *Registry) (*Graph, error) {
	if registry == nil {
		registry = DefaultRegistry
	}
	if err := validateGraph(b.nodeOrder, b.nodeDefs, b.edges, b.startID); err != nil {
		return nil, err
	}

	nodes := make(map[string]Node, len(b.nodeDefs))
	for _, id := range b.nodeOrder {
		n, err := registry.Build(b.nodeDefs[id])
		if err != nil {
			return nil, err
		}
		nodes[id] = n
	}

	outEdges := make(map[string][]*EdgeDef)
	for _, e := range b.edges {
		outEdges[e.From] = append(outEdges[e.From], e)
	}

	return &Graph{
		nodeOrder:     append([]string(nil), b.nodeOrder...),
		nodeDefs:      copyDefs(b.nodeDefs),
		nodes:         nodes,
		edges:         append([]*EdgeDef(nil), b.edges...),
		outEdges:      outEdges,
		startID:       b.startID,
		initialShared: cloneMap(b.initial),
	}, nil
}

func copyDefs(m map[string]*NodeDef) map[string]*NodeDef {
	out := make(map[string]*NodeDef, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ParseGraphDefinition decodes the JSON-equivalent declarative format
// (spec.md §6) and builds a validated Graph against registry (nil uses
// DefaultRegistry).
func ParseGraphDefinition(data []byte, registry *Registry) (*Graph, error) {
	var def GraphDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, &EngineError{Message: "invalid graph definition JSON", Code: "GRAPH_DECODE_FAILED", Cause: err}
	}

	b := NewGraphBuilder().Start(def.Start).WithInitialShared(def.InitialState)
	for _, n := range def.Nodes {
		b.AddNode(n)
	}
	for _, e := range def.Edges {
		b.Connect(e.From, e.To, e.Condition)
	}
	return b.Build(registry)
}

// validateGraph enforces the invariants of spec.md §3: edge endpoint
// resolvability and a resolvable start node. Node ids are unique by
// construction because AddNode replaces an earlier definition with the same
// id; a duplicate id is not reported as an error.
func validateGraph(order []string, defs map[string]*NodeDef, edges []*EdgeDef, startID string) error {
	if len(order) != len(defs) {
		// AddNode overwrites on duplicate id but keeps a single order
		// entry, so this only trips on internal misuse.
		return &EngineError{Message: "node order/definition mismatch", Code: "GRAPH_VALIDATION", Cause: ErrGraphValidation}
	}
	if startID == "" {
		return &EngineError{Message: "graph has no start node", Code: "GRAPH_VALIDATION", Cause: ErrGraphValidation}
	}
	if _, ok := defs[startID]; !ok {
		return &EngineError{Message: fmt.Sprintf("start node %q does not exist", startID), Code: "GRAPH_VALIDATION", Cause: ErrGraphValidation}
	}
	for _, e := range edges {
		if _, ok := defs[e.From]; !ok {
			return &EngineError{Message: fmt.Sprintf("edge references unknown source node %q", e.From), Code: "GRAPH_VALIDATION", Cause: ErrGraphValidation}
		}
		if _, ok := defs[e.To]; !ok {
			return &EngineError{Message: fmt.Sprintf("edge references unknown target node %q", e.To), Code: "GRAPH_VALIDATION", Cause: ErrGraphValidation}
		}
	}
	return nil
}

// sortedKeys returns m's keys in sorted order; ComputeIdempotencyKey uses it
// to hash shared state independently of map iteration order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
