package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus represents the state of one workflow run.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionPaused    ExecutionStatus = "paused"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// Terminal reports whether the run has finished.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionCompleted || s == ExecutionFailed
}

// TaskResult is the per-task outcome record of a run attempt. Output and
// Error are mutually exclusive. Retries do not mutate a result in place; the
// retry produces a fresh result that replaces the task's slot.
type TaskResult struct {
	TaskID      string         `json:"task_id"`
	Status      TaskStatus     `json:"status"`
	Output      map[string]any `json:"output,omitempty"`
	Error       string         `json:"error,omitempty"`
	RetryCount  int            `json:"retry_count"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Execution is the run-scoped record of a workflow's progress, owned
// exclusively by the scheduler for the duration of one run. Each task's
// result slot is written once per wave by exactly one goroutine, so a single
// mutex around the map is all the synchronization the run needs.
type Execution struct {
	ID         string
	WorkflowID string

	mu          sync.RWMutex
	status      ExecutionStatus
	results     map[string]*TaskResult
	totalTasks  int
	progress    float64
	startedAt   time.Time
	completedAt *time.Time
}

// NewExecution creates a pending execution for a workflow with the given
// number of tasks.
func NewExecution(workflowID string, totalTasks int) *Execution {
	return &Execution{
		ID:         uuid.NewString(),
		WorkflowID: workflowID,
		status:     ExecutionPending,
		results:    make(map[string]*TaskResult),
		totalTasks: totalTasks,
	}
}

// Start marks the execution running and stamps the start time.
func (e *Execution) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = ExecutionRunning
	e.startedAt = time.Now()
}

// Status returns the current run status.
func (e *Execution) Status() ExecutionStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// SetStatus transitions the run to the given status. Terminal transitions
// stamp the completion time.
func (e *Execution) SetStatus(status ExecutionStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = status
	if status.Terminal() && e.completedAt == nil {
		now := time.Now()
		e.completedAt = &now
	}
}

// RecordResult stores a task's result and recomputes progress. A later
// result for the same task (a retry outcome) replaces the earlier slot.
func (e *Execution) RecordResult(res *TaskResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results[res.TaskID] = res
	if e.totalTasks > 0 {
		e.progress = float64(len(e.results)) / float64(e.totalTasks) * 100
	}
}

// Result returns the latest result for a task, or nil.
func (e *Execution) Result(taskID string) *TaskResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.results[taskID]
}

// ResultCount returns the number of tasks with a recorded result.
func (e *Execution) ResultCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.results)
}

// DependencyOutputs collects the outputs of the given dependency task IDs,
// keyed by task ID. Only completed dependencies contribute an entry.
func (e *Execution) DependencyOutputs(depIDs []string) map[string]map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()

	outputs := make(map[string]map[string]any, len(depIDs))
	for _, depID := range depIDs {
		if res, ok := e.results[depID]; ok && res.Status == TaskCompleted {
			outputs[depID] = res.Output
		}
	}
	return outputs
}

// Completed reports whether the given task has a completed result.
func (e *Execution) Completed(taskID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	res, ok := e.results[taskID]
	return ok && res.Status == TaskCompleted
}

// AnyFailed reports whether any recorded result is a failure.
func (e *Execution) AnyFailed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, res := range e.results {
		if res.Status == TaskFailed {
			return true
		}
	}
	return false
}

// Snapshot is an immutable copy of an execution's state, safe to hand to
// progress callbacks and the presentation layer.
type Snapshot struct {
	ID          string                 `json:"id"`
	WorkflowID  string                 `json:"workflow_id"`
	Status      ExecutionStatus        `json:"status"`
	Results     map[string]*TaskResult `json:"results"`
	TotalTasks  int                    `json:"total_tasks"`
	Progress    float64                `json:"progress"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// Snapshot returns a deep copy of the execution's current state.
func (e *Execution) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	results := make(map[string]*TaskResult, len(e.results))
	for id, res := range e.results {
		cp := *res
		cp.Output = cloneMap(res.Output)
		results[id] = &cp
	}

	snap := Snapshot{
		ID:         e.ID,
		WorkflowID: e.WorkflowID,
		Status:     e.status,
		Results:    results,
		TotalTasks: e.totalTasks,
		Progress:   e.progress,
		StartedAt:  e.startedAt,
	}
	if e.completedAt != nil {
		ts := *e.completedAt
		snap.CompletedAt = &ts
	}
	return snap
}
