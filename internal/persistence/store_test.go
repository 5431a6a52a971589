package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/hummbl-dev/flowcore/internal/workflow"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewMemoryStore(context.Background())
	if err != nil {
		t.Fatalf("failed to create memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndGetWorkflow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	wf := &workflow.Workflow{
		ID:     "wf-1",
		Name:   "Research pipeline",
		Status: workflow.WorkflowDraft,
		Agents: []*workflow.Agent{
			{ID: "agent-1", Name: "Researcher", Role: workflow.RoleResearcher},
		},
		Tasks: []*workflow.Task{
			{ID: "task-1", Name: "Collect sources", AgentID: "agent-1", Status: workflow.TaskPending},
		},
	}

	if err := store.SaveWorkflow(ctx, wf); err != nil {
		t.Fatalf("SaveWorkflow failed: %v", err)
	}

	got, err := store.GetWorkflow(ctx, "wf-1")
	if err != nil {
		t.Fatalf("GetWorkflow failed: %v", err)
	}
	if got.Name != "Research pipeline" {
		t.Errorf("expected name 'Research pipeline', got '%s'", got.Name)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].ID != "task-1" {
		t.Errorf("expected one task 'task-1', got %v", got.Tasks)
	}
	if len(got.Agents) != 1 || got.Agents[0].Role != workflow.RoleResearcher {
		t.Errorf("expected one researcher agent, got %v", got.Agents)
	}
}

func TestSaveWorkflowUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	wf := &workflow.Workflow{ID: "wf-1", Name: "First", Status: workflow.WorkflowDraft}
	if err := store.SaveWorkflow(ctx, wf); err != nil {
		t.Fatalf("SaveWorkflow failed: %v", err)
	}

	wf.Name = "Second"
	wf.Status = workflow.WorkflowActive
	if err := store.SaveWorkflow(ctx, wf); err != nil {
		t.Fatalf("second SaveWorkflow failed: %v", err)
	}

	got, err := store.GetWorkflow(ctx, "wf-1")
	if err != nil {
		t.Fatalf("GetWorkflow failed: %v", err)
	}
	if got.Name != "Second" {
		t.Errorf("expected updated name 'Second', got '%s'", got.Name)
	}
	if got.Status != workflow.WorkflowActive {
		t.Errorf("expected status active, got '%s'", got.Status)
	}

	all, err := store.ListWorkflows(ctx)
	if err != nil {
		t.Fatalf("ListWorkflows failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 workflow after upsert, got %d", len(all))
	}
}

func TestGetWorkflowNotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetWorkflow(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing workflow")
	}
}

func TestDeleteWorkflow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	wf := &workflow.Workflow{ID: "wf-1", Name: "Doomed", Status: workflow.WorkflowDraft}
	if err := store.SaveWorkflow(ctx, wf); err != nil {
		t.Fatalf("SaveWorkflow failed: %v", err)
	}
	if err := store.DeleteWorkflow(ctx, "wf-1"); err != nil {
		t.Fatalf("DeleteWorkflow failed: %v", err)
	}
	if _, err := store.GetWorkflow(ctx, "wf-1"); err == nil {
		t.Error("expected error after delete")
	}
	if err := store.DeleteWorkflow(ctx, "wf-1"); err == nil {
		t.Error("expected error deleting missing workflow")
	}
}

func TestSaveAndGetExecution(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	started := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	completed := time.Now().UTC().Truncate(time.Second)

	snap := workflow.Snapshot{
		ID:         "exec-1",
		WorkflowID: "wf-1",
		Status:     workflow.ExecutionCompleted,
		TotalTasks: 2,
		Progress:   100,
		StartedAt:  started,
		CompletedAt: &completed,
		Results: map[string]*workflow.TaskResult{
			"task-1": {
				TaskID:      "task-1",
				Status:      workflow.TaskCompleted,
				Output:      map[string]any{"summary": "ok"},
				StartedAt:   started,
				CompletedAt: completed,
			},
			"task-2": {
				TaskID:      "task-2",
				Status:      workflow.TaskFailed,
				Error:       "model unavailable",
				RetryCount:  2,
				StartedAt:   started,
				CompletedAt: completed,
			},
		},
	}

	if err := store.SaveExecution(ctx, snap); err != nil {
		t.Fatalf("SaveExecution failed: %v", err)
	}

	got, err := store.GetExecution(ctx, "exec-1")
	if err != nil {
		t.Fatalf("GetExecution failed: %v", err)
	}
	if got.Status != workflow.ExecutionCompleted {
		t.Errorf("expected status completed, got '%s'", got.Status)
	}
	if got.Progress != 100 {
		t.Errorf("expected progress 100, got %f", got.Progress)
	}
	if got.CompletedAt == nil {
		t.Fatal("expected completed_at to round-trip")
	}
	if len(got.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got.Results))
	}
	if got.Results["task-1"].Output["summary"] != "ok" {
		t.Errorf("expected output to round-trip, got %v", got.Results["task-1"].Output)
	}
	if got.Results["task-2"].Error != "model unavailable" {
		t.Errorf("expected error to round-trip, got '%s'", got.Results["task-2"].Error)
	}
	if got.Results["task-2"].RetryCount != 2 {
		t.Errorf("expected retry count 2, got %d", got.Results["task-2"].RetryCount)
	}
}

func TestSaveExecutionIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snap := workflow.Snapshot{
		ID:         "exec-1",
		WorkflowID: "wf-1",
		Status:     workflow.ExecutionRunning,
		TotalTasks: 1,
		Progress:   0,
		StartedAt:  time.Now().UTC(),
		Results:    map[string]*workflow.TaskResult{},
	}
	if err := store.SaveExecution(ctx, snap); err != nil {
		t.Fatalf("first SaveExecution failed: %v", err)
	}

	// Archive again after the run finished.
	snap.Status = workflow.ExecutionCompleted
	snap.Progress = 100
	snap.Results["task-1"] = &workflow.TaskResult{
		TaskID:      "task-1",
		Status:      workflow.TaskCompleted,
		StartedAt:   time.Now().UTC(),
		CompletedAt: time.Now().UTC(),
	}
	if err := store.SaveExecution(ctx, snap); err != nil {
		t.Fatalf("second SaveExecution failed: %v", err)
	}

	got, err := store.GetExecution(ctx, "exec-1")
	if err != nil {
		t.Fatalf("GetExecution failed: %v", err)
	}
	if got.Status != workflow.ExecutionCompleted {
		t.Errorf("expected final status completed, got '%s'", got.Status)
	}
	if len(got.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(got.Results))
	}
}

func TestListExecutionsByWorkflow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"exec-1", "exec-2", "exec-3"} {
		wfID := "wf-1"
		if id == "exec-3" {
			wfID = "wf-2"
		}
		snap := workflow.Snapshot{
			ID:         id,
			WorkflowID: wfID,
			Status:     workflow.ExecutionCompleted,
			TotalTasks: 1,
			Progress:   100,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.SaveExecution(ctx, snap); err != nil {
			t.Fatalf("SaveExecution(%s) failed: %v", id, err)
		}
	}

	got, err := store.ListExecutions(ctx, "wf-1")
	if err != nil {
		t.Fatalf("ListExecutions failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 executions for wf-1, got %d", len(got))
	}
	// Newest first.
	if got[0].ID != "exec-2" || got[1].ID != "exec-1" {
		t.Errorf("expected [exec-2 exec-1], got [%s %s]", got[0].ID, got[1].ID)
	}

	all, err := store.ListExecutions(ctx, "")
	if err != nil {
		t.Fatalf("ListExecutions(all) failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 executions total, got %d", len(all))
	}
}
