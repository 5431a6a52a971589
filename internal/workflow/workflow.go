package workflow

import "time"

// WorkflowStatus represents the life-cycle state of a workflow definition.
type WorkflowStatus string

const (
	WorkflowDraft     WorkflowStatus = "draft"
	WorkflowActive    WorkflowStatus = "active"
	WorkflowPaused    WorkflowStatus = "paused"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
)

// Workflow is the aggregate the scheduler runs: a task list, the agents the
// tasks are assigned to, and metadata. Every task's AgentID must reference an
// agent in Agents; graph.ValidateWorkflow checks this before a run starts.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      WorkflowStatus `json:"status"`
	Tasks       []*Task        `json:"tasks"`
	Agents      []*Agent       `json:"agents"`
	Tags        []string       `json:"tags,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TaskByID returns the task with the given ID, or nil.
func (w *Workflow) TaskByID(id string) *Task {
	for _, t := range w.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// AgentByID returns the agent with the given ID, or nil.
func (w *Workflow) AgentByID(id string) *Agent {
	for _, a := range w.Agents {
		if a.ID == id {
			return a
		}
	}
	return nil
}
