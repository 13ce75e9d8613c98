package graph

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ConditionEnv is the variable scope an edge's boolean expression is
// evaluated against: a snapshot of shared state at transition time
// (spec.md §4.5). Expressions reference shared-state keys directly, e.g.
// "attempts < 3" or "status == \"approved\"".
type ConditionEnv map[string]any

// BuildConditionEnv snapshots shared into a ConditionEnv. shared is not
// retained.
func BuildConditionEnv(shared map[string]any) ConditionEnv {
	return ConditionEnv(cloneMap(shared))
}

// ValidateConditionSyntax does a best-effort parse of expression without a
// concrete environment, so a malformed edge condition can be reported at
// graph-build time instead of surfacing mid-run. It intentionally does not
// reject references to shared-state keys unknown at build time (spec.md §4.2
// requires conditions be parsed lazily by the evaluator, not up front), so
// this only catches syntax errors.
func ValidateConditionSyntax(expression string) error {
	if expression == "" || expression == "True" {
		return nil
	}
	_, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return &EngineError{Message: fmt.Sprintf("invalid condition %q: %v", expression, err), Code: "CONDITION_SYNTAX", Cause: err}
	}
	return nil
}

// conditionCache avoids recompiling the same expression on every step of a
// long-running workflow. Keyed by expression text; safe for concurrent use
// because *vm.Program is immutable once compiled and access is mutex-guarded.
// All edges share a ConditionEnv shape (map[string]any), so a program
// compiled for one run's env is valid for every other run's env too.
type conditionCache struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

func newConditionCache() *conditionCache {
	return &conditionCache{programs: make(map[string]*vm.Program)}
}

func (c *conditionCache) compile(expression string, env ConditionEnv) (*vm.Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.programs[expression]; ok {
		return p, nil
	}
	p, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, err
	}
	c.programs[expression] = p
	return p, nil
}

// globalConditionCache backs EvaluateCondition. Expressions are graph
// definitions, not user-supplied strings at unbounded volume, so an
// unbounded process-lifetime cache is acceptable.
var globalConditionCache = newConditionCache()

// EvaluateCondition compiles (or reuses a cached compilation of) expression
// and runs it against env, coercing the result to bool. A compile or
// runtime failure is reported as ErrConditionError (spec.md §7).
func EvaluateCondition(expression string, env ConditionEnv) (bool, error) {
	program, err := globalConditionCache.compile(expression, env)
	if err != nil {
		return false, &EngineError{Message: fmt.Sprintf("compiling condition %q: %v", expression, err), Code: "CONDITION_ERROR", Cause: ErrConditionError}
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, &EngineError{Message: fmt.Sprintf("evaluating condition %q: %v", expression, err), Code: "CONDITION_ERROR", Cause: ErrConditionError}
	}
	b, ok := out.(bool)
	if !ok {
		return false, &EngineError{Message: fmt.Sprintf("condition %q did not evaluate to a boolean", expression), Code: "CONDITION_ERROR", Cause: ErrConditionError}
	}
	return b, nil
}

// SelectNextEdge is the Transition Evaluator (C5, spec.md §4.5): three
// passes over the edges leaving nodeID, each pass deciding outright if it
// finds a match.
//
//  1. Any edge with the literal condition "True" wins outright, first
//     declared among ties — regardless of where it sits among the other
//     edges, so a "True" edge after a falsy conditioned edge still wins.
//  2. Failing that, evaluate every non-"True", non-default condition in
//     declaration order; the first truthy one wins.
//  3. Failing that, the first declared default edge (condition == "") wins.
//
// No outgoing edges, or none whose condition holds and no default present,
// ends the workflow — SelectNextEdge returns ("", nil) in that case; only an
// expression failure returns an error.
func SelectNextEdge(edges []*EdgeDef, shared map[string]any) (string, error) {
	for _, e := range edges {
		if e.isAlwaysTaken() {
			return e.To, nil
		}
	}

	env := BuildConditionEnv(shared)
	for _, e := range edges {
		if e.isAlwaysTaken() || e.isDefault() {
			continue
		}
		ok, err := EvaluateCondition(e.Condition, env)
		if err != nil {
			return "", err
		}
		if ok {
			return e.To, nil
		}
	}

	for _, e := range edges {
		if e.isDefault() {
			return e.To, nil
		}
	}
	return "", nil
}
