// Package scheduler drives a workflow to completion: it repeatedly computes
// the set of ready tasks, dispatches each wave concurrently through the task
// invoker and retry policy, and owns the run's execution record and status
// transitions.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hummbl-dev/flowcore/internal/events"
	"github.com/hummbl-dev/flowcore/internal/graph"
	"github.com/hummbl-dev/flowcore/internal/invoker"
	"github.com/hummbl-dev/flowcore/internal/workflow"
)

// ProgressFunc receives an execution snapshot on every state transition: run
// start, each wave completion, pause, resume, and the terminal state. It must
// be side-effect-free from the scheduler's point of view.
type ProgressFunc func(workflow.Snapshot)

// Config configures a Runner.
type Config struct {
	// ConcurrencyLimit bounds how many tasks of one wave run at once.
	// Defaults to 4.
	ConcurrencyLimit int

	// Bus receives run and task events. Optional.
	Bus *events.Bus

	// OnProgress is the progress callback. Optional.
	OnProgress ProgressFunc
}

// Runner executes workflows wave by wave. A wave is the current ready set
// dispatched concurrently; the next wave only starts once every task in the
// current one has a recorded result, so dependency outputs always exist
// before anything downstream needs them.
type Runner struct {
	inv      *invoker.TaskInvoker
	retry    *invoker.RetryPolicy
	cfg      Config
	mu       sync.Mutex
	active   map[string]bool // execution IDs with a live wave loop
	finished map[string]bool // execution IDs whose terminal state was emitted
	current  *workflow.Execution
}

// NewRunner creates a Runner over the given invoker and retry policy.
func NewRunner(inv *invoker.TaskInvoker, retry *invoker.RetryPolicy, cfg Config) *Runner {
	if cfg.ConcurrencyLimit <= 0 {
		cfg.ConcurrencyLimit = 4
	}
	return &Runner{
		inv:      inv,
		retry:    retry,
		cfg:      cfg,
		active:   make(map[string]bool),
		finished: make(map[string]bool),
	}
}

// Run executes the workflow once. Validation failures abort before anything
// starts. Per-task failures are contained in the execution's results; only
// graph-level impossibility (deadlock) is returned as an error, and even then
// the caller receives the terminal execution. A paused run returns the live
// execution with a nil error; hold on to it to resume.
//
// agents is the agent list tasks are resolved against at dispatch time; nil
// falls back to the workflow's own agent list. input is workflow-level input
// made available to every task's invocation payload.
func (r *Runner) Run(ctx context.Context, wf *workflow.Workflow, agents []*workflow.Agent, input map[string]any) (*workflow.Execution, error) {
	if err := graph.ValidateWorkflow(wf); err != nil {
		return nil, fmt.Errorf("workflow validation: %w", err)
	}

	if agents == nil {
		agents = wf.Agents
	}
	agentsByID := make(map[string]*workflow.Agent, len(agents))
	for _, a := range agents {
		agentsByID[a.ID] = a
	}

	// Per-run task copies: retry counters and status changes stay off the
	// caller's objects.
	tasks := make([]*workflow.Task, 0, len(wf.Tasks))
	for _, t := range wf.Tasks {
		tasks = append(tasks, t.Clone())
	}

	ex := workflow.NewExecution(wf.ID, len(tasks))
	ex.Start()

	r.mu.Lock()
	r.current = ex
	r.mu.Unlock()

	r.publishRun(events.RunStartedEvent{
		ExecutionID: ex.ID,
		WorkflowID:  wf.ID,
		TotalTasks:  len(tasks),
		Timestamp:   time.Now(),
	})
	r.notify(ex)

	err := r.runLoop(ctx, ex, tasks, agentsByID, input)
	return ex, err
}

// Resume re-enters the wave loop of a paused execution with the tasks that
// have no result yet. Dependency outputs are looked up from the original
// execution's results map, so work completed before the pause stays visible
// to resumed tasks.
func (r *Runner) Resume(ctx context.Context, ex *workflow.Execution, wf *workflow.Workflow, agents []*workflow.Agent, input map[string]any) error {
	if ex.Status() != workflow.ExecutionPaused {
		return ErrNotPaused
	}

	if agents == nil {
		agents = wf.Agents
	}
	agentsByID := make(map[string]*workflow.Agent, len(agents))
	for _, a := range agents {
		agentsByID[a.ID] = a
	}

	// The remaining sub-workflow: every task without a recorded result.
	var remaining []*workflow.Task
	for _, t := range wf.Tasks {
		if ex.Result(t.ID) == nil {
			remaining = append(remaining, t.Clone())
		}
	}

	ex.SetStatus(workflow.ExecutionRunning)
	r.publishRun(events.RunResumedEvent{
		ExecutionID: ex.ID,
		Remaining:   len(remaining),
		Timestamp:   time.Now(),
	})
	r.notify(ex)

	return r.runLoop(ctx, ex, remaining, agentsByID, input)
}

// Current returns the most recently started execution, or nil. Presentation
// layers use it to target pause, resume, and stop at the run in progress.
func (r *Runner) Current() *workflow.Execution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Pause requests that no new wave be started. In-flight tasks of the current
// wave still complete and record their results; the loop parks after the
// wave barrier.
func (r *Runner) Pause(ex *workflow.Execution) error {
	if ex.Status() != workflow.ExecutionRunning {
		return ErrNotRunning
	}
	ex.SetStatus(workflow.ExecutionPaused)
	return nil
}

// Stop finalizes the execution as completed regardless of individual task
// outcomes. Stop is a user-requested finalize, not a failure signal. If a
// wave is in flight its results are still recorded before the terminal emit.
func (r *Runner) Stop(ex *workflow.Execution) {
	if ex.Status().Terminal() {
		return
	}
	ex.SetStatus(workflow.ExecutionCompleted)

	// With no live loop (a paused run), the loop cannot emit the terminal
	// state for us.
	r.mu.Lock()
	live := r.active[ex.ID]
	r.mu.Unlock()
	if !live {
		r.finishEvents(ex)
	}
}

// runLoop is the scheduling loop shared by Run and Resume.
func (r *Runner) runLoop(ctx context.Context, ex *workflow.Execution, tasks []*workflow.Task, agents map[string]*workflow.Agent, input map[string]any) error {
	r.mu.Lock()
	r.active[ex.ID] = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.active, ex.ID)
		r.mu.Unlock()
	}()

	for {
		if err := ctx.Err(); err != nil {
			ex.SetStatus(workflow.ExecutionFailed)
			r.finishEvents(ex)
			return fmt.Errorf("run cancelled: %w", err)
		}

		// A pause or stop may land before the wave is dispatched (even
		// before the first one, from the run-start progress emit). Once the
		// run has left the running state, no new wave may start.
		switch status := ex.Status(); {
		case status == workflow.ExecutionPaused:
			r.publishRun(events.RunPausedEvent{ExecutionID: ex.ID, Timestamp: time.Now()})
			r.notify(ex)
			return nil
		case status.Terminal():
			r.finishEvents(ex)
			return nil
		}

		remaining := unresolved(ex, tasks)
		if len(remaining) == 0 {
			r.finalize(ex)
			return nil
		}

		ready := readySet(ex, remaining)
		if len(ready) == 0 {
			// Nothing can make progress: a cycle escaped validation or a
			// dependency failed for good. Never hang.
			ex.SetStatus(workflow.ExecutionFailed)
			r.finishEvents(ex)
			return fmt.Errorf("%w (%d unresolved)", ErrDeadlock, len(remaining))
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.cfg.ConcurrencyLimit)
		for _, task := range ready {
			t := task
			g.Go(func() error {
				r.executeTask(gctx, ex, t, agents, input)
				return nil
			})
		}
		// Wave barrier: the next ready set is only computed once every
		// branch of this wave has recorded its result.
		_ = g.Wait()

		r.notify(ex)
		r.publishProgress(ex)
	}
}

// executeTask runs one task to its final result for this wave: agent lookup,
// invocation, and retries until success or budget exhaustion. Exactly one
// result is recorded per call.
func (r *Runner) executeTask(ctx context.Context, ex *workflow.Execution, t *workflow.Task, agents map[string]*workflow.Agent, input map[string]any) {
	r.publishTask(events.TaskStartedEvent{
		ID:        t.ID,
		Name:      t.Name,
		AgentID:   t.AgentID,
		Timestamp: time.Now(),
	})

	agent, ok := agents[t.AgentID]
	if !ok {
		// Dispatch error: recorded for this task only, never retried.
		now := time.Now()
		res := &workflow.TaskResult{
			TaskID:      t.ID,
			Status:      workflow.TaskFailed,
			Error:       fmt.Sprintf("agent not found: %q", t.AgentID),
			RetryCount:  t.RetryCount,
			StartedAt:   now,
			CompletedAt: now,
		}
		ex.RecordResult(res)
		r.publishTask(events.TaskFailedEvent{ID: t.ID, Err: res.Error, Timestamp: now})
		return
	}

	now := time.Now()
	t.Status = workflow.TaskRunning
	t.StartedAt = &now

	depOutputs := ex.DependencyOutputs(t.DependsOn)
	res := r.inv.Invoke(ctx, t, agent, depOutputs, input)

	if res.Status == workflow.TaskFailed && t.MaxRetries > 0 {
		for res.Status == workflow.TaskFailed && t.RetryCount < t.MaxRetries {
			r.publishTask(events.TaskRetryingEvent{
				ID:        t.ID,
				Attempt:   t.RetryCount + 1,
				Err:       res.Error,
				Timestamp: time.Now(),
			})
			res = r.retry.MaybeRetry(ctx, t, agent, depOutputs, input, res)
		}
		if res.Status == workflow.TaskFailed {
			// One more pass stamps the distinct budget-exhausted error.
			res = r.retry.MaybeRetry(ctx, t, agent, depOutputs, input, res)
		}
	}

	t.Status = res.Status
	completed := res.CompletedAt
	t.CompletedAt = &completed

	ex.RecordResult(res)

	duration := res.CompletedAt.Sub(res.StartedAt)
	if res.Status == workflow.TaskCompleted {
		r.publishTask(events.TaskCompletedEvent{
			ID:        t.ID,
			Output:    res.Output,
			Duration:  duration,
			Timestamp: res.CompletedAt,
		})
	} else {
		r.publishTask(events.TaskFailedEvent{
			ID:         t.ID,
			Err:        res.Error,
			RetryCount: res.RetryCount,
			Duration:   duration,
			Timestamp:  res.CompletedAt,
		})
	}
}

// finalize stamps the terminal status once no unresolved tasks remain.
func (r *Runner) finalize(ex *workflow.Execution) {
	if ex.AnyFailed() {
		ex.SetStatus(workflow.ExecutionFailed)
	} else {
		ex.SetStatus(workflow.ExecutionCompleted)
	}
	r.finishEvents(ex)
}

// finishEvents emits the terminal snapshot to the callback and the bus,
// exactly once per execution: Stop and the wave loop can both reach a
// terminal state and must not double-emit.
func (r *Runner) finishEvents(ex *workflow.Execution) {
	r.mu.Lock()
	if r.finished[ex.ID] {
		r.mu.Unlock()
		return
	}
	r.finished[ex.ID] = true
	r.mu.Unlock()

	snap := ex.Snapshot()
	r.publishRun(events.RunFinishedEvent{
		ExecutionID: snap.ID,
		Status:      snap.Status,
		Progress:    snap.Progress,
		Timestamp:   time.Now(),
	})
	if r.cfg.OnProgress != nil {
		r.cfg.OnProgress(snap)
	}
}

// unresolved returns the tasks that have no recorded result yet.
func unresolved(ex *workflow.Execution, tasks []*workflow.Task) []*workflow.Task {
	var out []*workflow.Task
	for _, t := range tasks {
		if ex.Result(t.ID) == nil {
			out = append(out, t)
		}
	}
	return out
}

// readySet returns the unresolved tasks whose dependency set is entirely
// contained in the set of completed tasks.
func readySet(ex *workflow.Execution, remaining []*workflow.Task) []*workflow.Task {
	var ready []*workflow.Task
	for _, t := range remaining {
		ok := true
		for _, depID := range t.DependsOn {
			if !ex.Completed(depID) {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, t)
		}
	}
	return ready
}

// notify invokes the progress callback with a fresh snapshot.
func (r *Runner) notify(ex *workflow.Execution) {
	if r.cfg.OnProgress != nil {
		r.cfg.OnProgress(ex.Snapshot())
	}
}

// publishProgress publishes aggregate wave counts to the bus.
func (r *Runner) publishProgress(ex *workflow.Execution) {
	if r.cfg.Bus == nil {
		return
	}
	snap := ex.Snapshot()
	completed, failed := 0, 0
	for _, res := range snap.Results {
		switch res.Status {
		case workflow.TaskCompleted:
			completed++
		case workflow.TaskFailed:
			failed++
		}
	}
	r.cfg.Bus.Publish(events.TopicRun, events.RunProgressEvent{
		ExecutionID: snap.ID,
		Total:       snap.TotalTasks,
		Completed:   completed,
		Failed:      failed,
		Progress:    snap.Progress,
		Timestamp:   time.Now(),
	})
}

func (r *Runner) publishRun(e events.Event) {
	if r.cfg.Bus != nil {
		r.cfg.Bus.Publish(events.TopicRun, e)
	}
}

func (r *Runner) publishTask(e events.Event) {
	if r.cfg.Bus != nil {
		r.cfg.Bus.Publish(events.TopicTask, e)
	}
}
