package workflow

import "time"

// TaskStatus represents the current state of a task.
// Progression is one-way (pending -> running -> terminal) except for
// explicit retries, which move a failed task back through running.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskSkipped   TaskStatus = "skipped"
)

// Terminal reports whether the status is a final one.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskSkipped
}

// Task is a unit of work assigned to an agent. DependsOn is an ordered set:
// no duplicates, and a task may not list itself. Dependencies must reference
// task IDs within the same workflow; dangling references are caught by
// validation before a run starts.
type Task struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	AgentID     string         `json:"agent_id"`
	Status      TaskStatus     `json:"status"`
	DependsOn   []string       `json:"depends_on,omitempty"`
	Input       map[string]any `json:"input,omitempty"`
	Output      map[string]any `json:"output,omitempty"`
	Error       string         `json:"error,omitempty"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	RetryCount  int            `json:"retry_count"`
	MaxRetries  int            `json:"max_retries"`
}

// Clone returns a deep copy of the task. The scheduler clones every task at
// run start so retry counters and status changes never touch caller-owned
// objects.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}

	cp := *t
	if t.DependsOn != nil {
		cp.DependsOn = append([]string(nil), t.DependsOn...)
	}
	cp.Input = cloneMap(t.Input)
	cp.Output = cloneMap(t.Output)
	if t.StartedAt != nil {
		ts := *t.StartedAt
		cp.StartedAt = &ts
	}
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		cp.CompletedAt = &ts
	}
	return &cp
}

// cloneMap shallow-copies a payload map. Payload values are treated as
// opaque and immutable, so copying the top level is sufficient.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
