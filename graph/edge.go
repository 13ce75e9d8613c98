// Package graph provides the core graph execution engine for the workflow engine.
package graph

// EdgeDef is a directed transition between two nodes (spec.md §3).
//
// Condition is a boolean expression evaluated against shared state at
// transition time (see condition.go); the empty string marks a default
// edge, and the literal "True" is special-cased to mean "always taken"
// regardless of what else is declared on the source node (spec.md §4.5).
type EdgeDef struct {
	// From is the source node id.
	From string

	// To is the destination node id.
	To string

	// Condition is the transition's guard expression, or "" for a
	// default edge. Not parsed at construction time — see spec.md §4.2.
	Condition string
}

// isDefault reports whether e is a default (unconditional fallback) edge.
func (e EdgeDef) isDefault() bool {
	return e.Condition == ""
}

// isAlwaysTaken reports whether e carries the special-cased "True" literal.
func (e EdgeDef) isAlwaysTaken() bool {
	return e.Condition == "True"
}
