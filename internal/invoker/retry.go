package invoker

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hummbl-dev/flowcore/internal/workflow"
)

// RetryConfig configures the delay between retry attempts. Correctness never
// depends on these values; zero intervals are valid and are what the tests
// use.
type RetryConfig struct {
	InitialInterval     time.Duration // first retry delay
	MaxInterval         time.Duration // delay cap
	Multiplier          float64       // growth factor per attempt
	RandomizationFactor float64       // jitter
}

// DefaultRetryConfig returns the default retry delay configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval:     100 * time.Millisecond,
		MaxInterval:         10 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
	}
}

// RetryPolicy decides whether a failed task attempt is re-invoked. Each
// MaybeRetry call re-invokes at most once; the scheduler loops while the
// result stays failed and budget remains.
type RetryPolicy struct {
	invoker *TaskInvoker
	cfg     RetryConfig
}

// NewRetryPolicy creates a RetryPolicy over the given invoker.
func NewRetryPolicy(inv *TaskInvoker, cfg RetryConfig) *RetryPolicy {
	return &RetryPolicy{invoker: inv, cfg: cfg}
}

// MaybeRetry inspects prev and either returns it unchanged (not a failure),
// returns a budget-exhausted failure (distinct message from the original
// error), or increments the task's retry counter, waits the backoff delay,
// and re-invokes exactly once.
func (p *RetryPolicy) MaybeRetry(ctx context.Context, task *workflow.Task, agent *workflow.Agent, depOutputs map[string]map[string]any, workflowInput map[string]any, prev *workflow.TaskResult) *workflow.TaskResult {
	if prev.Status != workflow.TaskFailed {
		return prev
	}

	if task.RetryCount >= task.MaxRetries {
		return &workflow.TaskResult{
			TaskID:      task.ID,
			Status:      workflow.TaskFailed,
			Error:       fmt.Sprintf("retry budget exhausted after %d attempts: %s", task.RetryCount+1, prev.Error),
			RetryCount:  task.RetryCount,
			StartedAt:   prev.StartedAt,
			CompletedAt: time.Now(),
		}
	}

	task.RetryCount++

	if d := p.delay(task.RetryCount); d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return &workflow.TaskResult{
				TaskID:      task.ID,
				Status:      workflow.TaskFailed,
				Error:       fmt.Sprintf("retry aborted: %v", ctx.Err()),
				RetryCount:  task.RetryCount,
				StartedAt:   prev.StartedAt,
				CompletedAt: time.Now(),
			}
		}
	}

	return p.invoker.Invoke(ctx, task, agent, depOutputs, workflowInput)
}

// delay computes the backoff delay before the given retry attempt (1-based)
// by stepping an exponential backoff policy.
func (p *RetryPolicy) delay(attempt int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.InitialInterval
	b.MaxInterval = p.cfg.MaxInterval
	b.Multiplier = p.cfg.Multiplier
	b.RandomizationFactor = p.cfg.RandomizationFactor
	b.MaxElapsedTime = 0 // budget is counted in attempts, not elapsed time

	var d time.Duration
	for i := 0; i < attempt; i++ {
		next := b.NextBackOff()
		if next == backoff.Stop {
			break
		}
		d = next
	}
	return d
}
