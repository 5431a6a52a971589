package events

import (
	"time"

	"github.com/hummbl-dev/flowcore/internal/workflow"
)

// Event is the base interface for all run and task events.
type Event interface {
	EventType() string
	TaskID() string
}

// Topic constants
const (
	TopicRun  = "run"
	TopicTask = "task"
)

// Event type constants
const (
	EventTypeRunStarted    = "run.started"
	EventTypeRunProgress   = "run.progress"
	EventTypeRunPaused     = "run.paused"
	EventTypeRunResumed    = "run.resumed"
	EventTypeRunFinished   = "run.finished"
	EventTypeTaskStarted   = "task.started"
	EventTypeTaskRetrying  = "task.retrying"
	EventTypeTaskCompleted = "task.completed"
	EventTypeTaskFailed    = "task.failed"
)

// RunStartedEvent is published when a workflow run begins.
type RunStartedEvent struct {
	ExecutionID string
	WorkflowID  string
	TotalTasks  int
	Timestamp   time.Time
}

func (e RunStartedEvent) EventType() string { return EventTypeRunStarted }
func (e RunStartedEvent) TaskID() string    { return "" }

// RunProgressEvent is published after every wave with aggregate counts.
type RunProgressEvent struct {
	ExecutionID string
	Total       int
	Completed   int
	Failed      int
	Progress    float64
	Timestamp   time.Time
}

func (e RunProgressEvent) EventType() string { return EventTypeRunProgress }
func (e RunProgressEvent) TaskID() string    { return "" }

// RunPausedEvent is published when a run is paused between waves.
type RunPausedEvent struct {
	ExecutionID string
	Timestamp   time.Time
}

func (e RunPausedEvent) EventType() string { return EventTypeRunPaused }
func (e RunPausedEvent) TaskID() string    { return "" }

// RunResumedEvent is published when a paused run re-enters the wave loop.
type RunResumedEvent struct {
	ExecutionID string
	Remaining   int
	Timestamp   time.Time
}

func (e RunResumedEvent) EventType() string { return EventTypeRunResumed }
func (e RunResumedEvent) TaskID() string    { return "" }

// RunFinishedEvent is published exactly once when a run reaches a terminal
// status.
type RunFinishedEvent struct {
	ExecutionID string
	Status      workflow.ExecutionStatus
	Progress    float64
	Timestamp   time.Time
}

func (e RunFinishedEvent) EventType() string { return EventTypeRunFinished }
func (e RunFinishedEvent) TaskID() string    { return "" }

// TaskStartedEvent is published when a task is dispatched in a wave.
type TaskStartedEvent struct {
	ID        string
	Name      string
	AgentID   string
	Timestamp time.Time
}

func (e TaskStartedEvent) EventType() string { return EventTypeTaskStarted }
func (e TaskStartedEvent) TaskID() string    { return e.ID }

// TaskRetryingEvent is published before a failed task is re-invoked.
type TaskRetryingEvent struct {
	ID        string
	Attempt   int
	Err       string
	Timestamp time.Time
}

func (e TaskRetryingEvent) EventType() string { return EventTypeTaskRetrying }
func (e TaskRetryingEvent) TaskID() string    { return e.ID }

// TaskCompletedEvent is published when a task records a completed result.
type TaskCompletedEvent struct {
	ID        string
	Output    map[string]any
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }
func (e TaskCompletedEvent) TaskID() string    { return e.ID }

// TaskFailedEvent is published when a task records a failed result.
type TaskFailedEvent struct {
	ID         string
	Err        string
	RetryCount int
	Duration   time.Duration
	Timestamp  time.Time
}

func (e TaskFailedEvent) EventType() string { return EventTypeTaskFailed }
func (e TaskFailedEvent) TaskID() string    { return e.ID }
