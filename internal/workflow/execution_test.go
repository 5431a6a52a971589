package workflow

import (
	"testing"
	"time"
)

func TestExecutionProgress(t *testing.T) {
	ex := NewExecution("wf-1", 4)
	ex.Start()

	if ex.Status() != ExecutionRunning {
		t.Fatalf("expected running after Start, got '%s'", ex.Status())
	}

	ex.RecordResult(&TaskResult{TaskID: "A", Status: TaskCompleted})
	if got := ex.Snapshot().Progress; got != 25 {
		t.Errorf("expected progress 25 after 1/4 results, got %f", got)
	}

	ex.RecordResult(&TaskResult{TaskID: "B", Status: TaskFailed})
	ex.RecordResult(&TaskResult{TaskID: "C", Status: TaskCompleted})
	ex.RecordResult(&TaskResult{TaskID: "D", Status: TaskCompleted})
	if got := ex.Snapshot().Progress; got != 100 {
		t.Errorf("expected progress 100 after 4/4 results, got %f", got)
	}
}

func TestExecutionResultReplacement(t *testing.T) {
	ex := NewExecution("wf-1", 1)
	ex.Start()

	ex.RecordResult(&TaskResult{TaskID: "A", Status: TaskFailed, Error: "transient"})
	ex.RecordResult(&TaskResult{TaskID: "A", Status: TaskCompleted, RetryCount: 1})

	if ex.ResultCount() != 1 {
		t.Errorf("expected replacement, got %d results", ex.ResultCount())
	}
	res := ex.Result("A")
	if res.Status != TaskCompleted || res.RetryCount != 1 {
		t.Errorf("expected retry outcome to replace the slot, got %+v", res)
	}
	if ex.AnyFailed() {
		t.Error("expected no failures after replacement")
	}
}

func TestExecutionTerminalStamp(t *testing.T) {
	ex := NewExecution("wf-1", 1)
	ex.Start()

	if ex.Snapshot().CompletedAt != nil {
		t.Error("expected no completion time while running")
	}

	ex.SetStatus(ExecutionCompleted)
	snap := ex.Snapshot()
	if snap.CompletedAt == nil {
		t.Fatal("expected completion time on terminal transition")
	}

	// A second terminal transition keeps the original stamp.
	stamp := *snap.CompletedAt
	time.Sleep(5 * time.Millisecond)
	ex.SetStatus(ExecutionFailed)
	if !ex.Snapshot().CompletedAt.Equal(stamp) {
		t.Error("expected the first terminal stamp to be preserved")
	}
}

func TestDependencyOutputsOnlyCompleted(t *testing.T) {
	ex := NewExecution("wf-1", 3)
	ex.Start()

	ex.RecordResult(&TaskResult{TaskID: "A", Status: TaskCompleted, Output: map[string]any{"x": 1}})
	ex.RecordResult(&TaskResult{TaskID: "B", Status: TaskFailed, Error: "boom"})

	outputs := ex.DependencyOutputs([]string{"A", "B", "C"})
	if len(outputs) != 1 {
		t.Fatalf("expected only the completed dependency, got %d entries", len(outputs))
	}
	if outputs["A"]["x"] != 1 {
		t.Errorf("expected A's output, got %v", outputs["A"])
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	ex := NewExecution("wf-1", 1)
	ex.Start()
	ex.RecordResult(&TaskResult{TaskID: "A", Status: TaskCompleted, Output: map[string]any{"x": 1}})

	snap := ex.Snapshot()
	snap.Results["A"].Output["x"] = 99
	snap.Results["B"] = &TaskResult{TaskID: "B"}

	fresh := ex.Snapshot()
	if fresh.Results["A"].Output["x"] != 1 {
		t.Error("snapshot shares output map with execution")
	}
	if len(fresh.Results) != 1 {
		t.Error("snapshot shares results map with execution")
	}
}

func TestCompletedAndAnyFailed(t *testing.T) {
	ex := NewExecution("wf-1", 2)
	ex.Start()

	if ex.Completed("A") {
		t.Error("expected A not completed before any result")
	}
	ex.RecordResult(&TaskResult{TaskID: "A", Status: TaskCompleted})
	if !ex.Completed("A") {
		t.Error("expected A completed")
	}
	if ex.AnyFailed() {
		t.Error("expected no failures yet")
	}
	ex.RecordResult(&TaskResult{TaskID: "B", Status: TaskFailed})
	if ex.Completed("B") {
		t.Error("expected failed B to not count as completed")
	}
	if !ex.AnyFailed() {
		t.Error("expected AnyFailed after B's failure")
	}
}
