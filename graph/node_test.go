package graph

import (
	"context"
	"errors"
	"testing"
)

func TestNodeFunc(t *testing.T) {
	ctx := context.Background()

	t.Run("nil funcs fall back to pass-through defaults", func(t *testing.T) {
		n := NodeFunc{}
		shared := NewSharedState(nil)

		prepared, err := n.Prepare(ctx, shared, nil)
		if err != nil || prepared != nil {
			t.Errorf("Prepare() = (%v, %v), want (nil, nil)", prepared, err)
		}

		result, err := n.Execute(ctx, "input")
		if err != nil || result != "input" {
			t.Errorf("Execute() = (%v, %v), want (\"input\", nil)", result, err)
		}

		if err := n.Cleanup(ctx, shared, "input", "input"); err != nil {
			t.Errorf("Cleanup() = %v, want nil", err)
		}
	})

	t.Run("wired funcs are invoked", func(t *testing.T) {
		var calls []string
		n := NodeFunc{
			PrepareFunc: func(_ context.Context, shared *SharedState, _ RequestInputFunc) (any, error) {
				calls = append(calls, "prepare")
				shared.Set("seen_prepare", true)
				return 2, nil
			},
			ExecuteFunc: func(_ context.Context, prepared any) (any, error) {
				calls = append(calls, "execute")
				return prepared.(int) * 10, nil
			},
			CleanupFunc: func(_ context.Context, shared *SharedState, _ any, result any) error {
				calls = append(calls, "cleanup")
				shared.Set("result", result)
				return nil
			},
		}

		shared := NewSharedState(nil)
		prepared, err := n.Prepare(ctx, shared, nil)
		if err != nil {
			t.Fatalf("Prepare: %v", err)
		}
		result, err := n.Execute(ctx, prepared)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if err := n.Cleanup(ctx, shared, prepared, result); err != nil {
			t.Fatalf("Cleanup: %v", err)
		}

		if result != 20 {
			t.Errorf("result = %v, want 20", result)
		}
		want := []string{"prepare", "execute", "cleanup"}
		if len(calls) != len(want) {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
		for i := range want {
			if calls[i] != want[i] {
				t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
			}
		}
		if v, _ := shared.Get("result"); v != 20 {
			t.Errorf("shared[result] = %v, want 20", v)
		}
	})
}

type fallbackNode struct {
	execErr error
}

func (f fallbackNode) Prepare(context.Context, *SharedState, RequestInputFunc) (any, error) {
	return nil, nil
}

func (f fallbackNode) Execute(context.Context, any) (any, error) {
	return nil, f.execErr
}

func (f fallbackNode) Cleanup(context.Context, *SharedState, any, any) error {
	return nil
}

func (f fallbackNode) ExecFallback(_ context.Context, _ any, cause error) (any, error) {
	return "fallback-value", nil
}

func TestNode_FallbackCapability(t *testing.T) {
	n := fallbackNode{execErr: errors.New("boom")}
	if _, ok := any(n).(Fallback); !ok {
		t.Fatal("fallbackNode must implement Fallback")
	}
	result, err := n.ExecFallback(context.Background(), nil, n.execErr)
	if err != nil {
		t.Fatalf("ExecFallback: %v", err)
	}
	if result != "fallback-value" {
		t.Errorf("result = %v, want fallback-value", result)
	}
}
