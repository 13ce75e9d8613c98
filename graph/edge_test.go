package graph

import "testing"

func TestEdgeDef_Predicates(t *testing.T) {
	t.Run("default edge", func(t *testing.T) {
		e := EdgeDef{From: "a", To: "b", Condition: ""}
		if !e.isDefault() {
			t.Error("expected isDefault true for empty condition")
		}
		if e.isAlwaysTaken() {
			t.Error("expected isAlwaysTaken false for empty condition")
		}
	})

	t.Run("always-taken edge", func(t *testing.T) {
		e := EdgeDef{From: "a", To: "b", Condition: "True"}
		if e.isDefault() {
			t.Error("expected isDefault false for True condition")
		}
		if !e.isAlwaysTaken() {
			t.Error("expected isAlwaysTaken true for True condition")
		}
	})

	t.Run("conditioned edge is neither", func(t *testing.T) {
		e := EdgeDef{From: "a", To: "b", Condition: "count > 3"}
		if e.isDefault() {
			t.Error("expected isDefault false for a boolean expression")
		}
		if e.isAlwaysTaken() {
			t.Error("expected isAlwaysTaken false for a boolean expression")
		}
	})

	t.Run("lowercase true is not special-cased", func(t *testing.T) {
		e := EdgeDef{From: "a", To: "b", Condition: "true"}
		if e.isAlwaysTaken() {
			t.Error("expected isAlwaysTaken false for lowercase true; only the literal \"True\" is special")
		}
	})
}
