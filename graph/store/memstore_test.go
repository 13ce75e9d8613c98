package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	steps := []StoredStep{
		{Step: 0, NodeID: "a", WorkflowStatus: "running", Timestamp: time.Now()},
		{Step: 1, NodeID: "b", WorkflowStatus: "completed", Timestamp: time.Now()},
	}
	if err := m.SaveState(ctx, "wf1", "run1", steps); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	got, err := m.LoadState(ctx, "wf1", "run1")
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("LoadState len = %d, want 2", len(got))
	}
	if got[1].NodeID != "b" {
		t.Errorf("got[1].NodeID = %q, want b", got[1].NodeID)
	}
}

func TestMemStore_LoadMissing(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	if _, err := m.LoadState(ctx, "ghost-workflow", "ghost-run"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown workflow, got %v", err)
	}

	m.SaveState(ctx, "wf1", "run1", []StoredStep{{Step: 0}})
	if _, err := m.LoadState(ctx, "wf1", "ghost-run"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown run, got %v", err)
	}
}

func TestMemStore_SaveStateReplacesFullHistory(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	m.SaveState(ctx, "wf1", "run1", []StoredStep{{Step: 0}, {Step: 1}, {Step: 2}})
	m.SaveState(ctx, "wf1", "run1", []StoredStep{{Step: 0}})

	got, err := m.LoadState(ctx, "wf1", "run1")
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("LoadState len = %d, want 1 (SaveState replaces, not appends)", len(got))
	}
}

func TestMemStore_ListRunsAndWorkflows(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	m.SaveState(ctx, "wf1", "run1", []StoredStep{{Step: 0, WorkflowStatus: "completed", Timestamp: time.Unix(100, 0)}})
	m.SaveState(ctx, "wf1", "run2", []StoredStep{{Step: 0, WorkflowStatus: "suspended", Timestamp: time.Unix(200, 0)}})
	m.SaveState(ctx, "wf2", "run3", []StoredStep{{Step: 0, WorkflowStatus: "running", Timestamp: time.Unix(300, 0)}})

	runs, err := m.ListRuns(ctx, "wf1")
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns len = %d, want 2", len(runs))
	}

	workflows, err := m.ListWorkflows(ctx)
	if err != nil {
		t.Fatalf("ListWorkflows: %v", err)
	}
	if len(workflows) != 2 {
		t.Fatalf("ListWorkflows len = %d, want 2", len(workflows))
	}
}

func TestMemStore_ListRunsOfUnknownWorkflowIsEmptyNotError(t *testing.T) {
	m := NewMemStore()
	runs, err := m.ListRuns(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if runs != nil {
		t.Errorf("ListRuns = %v, want nil/empty", runs)
	}
}
