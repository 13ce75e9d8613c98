package graph

import (
	"errors"
	"testing"
)

func TestValidateConditionSyntax(t *testing.T) {
	cases := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"empty is valid", "", false},
		{"True literal is valid", "True", false},
		{"well-formed boolean expression", "count > 3", false},
		{"undefined variable is allowed at build time", "unknown_key == 1", false},
		{"malformed syntax is rejected", "count >", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateConditionSyntax(c.expr)
			if c.wantErr && err == nil {
				t.Error("expected a syntax error")
			}
			if !c.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEvaluateCondition(t *testing.T) {
	t.Run("boolean expression over shared state", func(t *testing.T) {
		env := BuildConditionEnv(map[string]any{"count": 5})
		ok, err := EvaluateCondition("count > 3", env)
		if err != nil {
			t.Fatalf("EvaluateCondition: %v", err)
		}
		if !ok {
			t.Error("expected true")
		}
	})

	t.Run("string comparison", func(t *testing.T) {
		env := BuildConditionEnv(map[string]any{"status": "approved"})
		ok, err := EvaluateCondition(`status == "approved"`, env)
		if err != nil {
			t.Fatalf("EvaluateCondition: %v", err)
		}
		if !ok {
			t.Error("expected true")
		}
	})

	t.Run("non-boolean result is an error", func(t *testing.T) {
		env := BuildConditionEnv(map[string]any{"count": 5})
		_, err := EvaluateCondition("count", env)
		if !errors.Is(err, ErrConditionError) {
			t.Errorf("expected ErrConditionError, got %v", err)
		}
	})

	t.Run("compile failure is an error", func(t *testing.T) {
		env := BuildConditionEnv(nil)
		_, err := EvaluateCondition("count >", env)
		if !errors.Is(err, ErrConditionError) {
			t.Errorf("expected ErrConditionError, got %v", err)
		}
	})

	t.Run("compiled program is cached and reused across different envs", func(t *testing.T) {
		env1 := BuildConditionEnv(map[string]any{"count": 1})
		env2 := BuildConditionEnv(map[string]any{"count": 10})

		ok1, err := EvaluateCondition("count > 5", env1)
		if err != nil {
			t.Fatalf("EvaluateCondition(env1): %v", err)
		}
		ok2, err := EvaluateCondition("count > 5", env2)
		if err != nil {
			t.Fatalf("EvaluateCondition(env2): %v", err)
		}
		if ok1 {
			t.Error("expected false for count=1")
		}
		if !ok2 {
			t.Error("expected true for count=10")
		}
	})
}

func TestSelectNextEdge(t *testing.T) {
	t.Run("True literal always wins regardless of position", func(t *testing.T) {
		edges := []*EdgeDef{
			{From: "a", To: "x", Condition: "count > 100"},
			{From: "a", To: "y", Condition: "True"},
			{From: "a", To: "z", Condition: ""},
		}
		to, err := SelectNextEdge(edges, map[string]any{"count": 0})
		if err != nil {
			t.Fatalf("SelectNextEdge: %v", err)
		}
		if to != "y" {
			t.Errorf("to = %q, want %q", to, "y")
		}
	})

	t.Run("default edge is deferred until every conditioned edge is tried", func(t *testing.T) {
		edges := []*EdgeDef{
			{From: "a", To: "default-target", Condition: ""},
			{From: "a", To: "conditioned-target", Condition: "count > 3"},
		}
		to, err := SelectNextEdge(edges, map[string]any{"count": 5})
		if err != nil {
			t.Fatalf("SelectNextEdge: %v", err)
		}
		if to != "conditioned-target" {
			t.Errorf("to = %q, want conditioned-target even though default was declared first", to)
		}
	})

	t.Run("falls back to default when no condition holds", func(t *testing.T) {
		edges := []*EdgeDef{
			{From: "a", To: "conditioned-target", Condition: "count > 3"},
			{From: "a", To: "default-target", Condition: ""},
		}
		to, err := SelectNextEdge(edges, map[string]any{"count": 0})
		if err != nil {
			t.Fatalf("SelectNextEdge: %v", err)
		}
		if to != "default-target" {
			t.Errorf("to = %q, want default-target", to)
		}
	})

	t.Run("first-declared-wins among multiple True edges", func(t *testing.T) {
		edges := []*EdgeDef{
			{From: "a", To: "first", Condition: "True"},
			{From: "a", To: "second", Condition: "True"},
		}
		to, err := SelectNextEdge(edges, nil)
		if err != nil {
			t.Fatalf("SelectNextEdge: %v", err)
		}
		if to != "first" {
			t.Errorf("to = %q, want first", to)
		}
	})

	t.Run("first-declared-wins among multiple default edges", func(t *testing.T) {
		edges := []*EdgeDef{
			{From: "a", To: "first-default", Condition: ""},
			{From: "a", To: "second-default", Condition: ""},
		}
		to, err := SelectNextEdge(edges, nil)
		if err != nil {
			t.Fatalf("SelectNextEdge: %v", err)
		}
		if to != "first-default" {
			t.Errorf("to = %q, want first-default", to)
		}
	})

	t.Run("no edges ends the workflow", func(t *testing.T) {
		to, err := SelectNextEdge(nil, nil)
		if err != nil {
			t.Fatalf("SelectNextEdge: %v", err)
		}
		if to != "" {
			t.Errorf("to = %q, want empty string (terminal)", to)
		}
	})

	t.Run("no condition holds and no default present ends the workflow", func(t *testing.T) {
		edges := []*EdgeDef{{From: "a", To: "x", Condition: "count > 100"}}
		to, err := SelectNextEdge(edges, map[string]any{"count": 0})
		if err != nil {
			t.Fatalf("SelectNextEdge: %v", err)
		}
		if to != "" {
			t.Errorf("to = %q, want empty string (terminal)", to)
		}
	})

	t.Run("condition evaluation failure surfaces as an error, not a silent skip", func(t *testing.T) {
		edges := []*EdgeDef{{From: "a", To: "x", Condition: "count >"}}
		_, err := SelectNextEdge(edges, map[string]any{"count": 0})
		if !errors.Is(err, ErrConditionError) {
			t.Errorf("expected ErrConditionError, got %v", err)
		}
	})
}
