package scheduler

import "errors"

var (
	// ErrDeadlock is returned when no task is ready yet unresolved tasks
	// remain: either a cycle escaped edge-time validation or a dependency
	// failed permanently. Distinguishable from ordinary task failures.
	ErrDeadlock = errors.New("workflow deadlocked: no ready tasks but unresolved tasks remain")

	// ErrNotPaused is returned by Resume when the execution is not paused.
	ErrNotPaused = errors.New("execution is not paused")

	// ErrNotRunning is returned by Pause when the execution is not running.
	ErrNotRunning = errors.New("execution is not running")
)
