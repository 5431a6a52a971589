package invoker

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/hummbl-dev/flowcore/internal/workflow"
)

// TaskInvoker executes a single task against its assigned agent's
// capability. It is pure with respect to scheduling: it never looks at other
// tasks and never mutates the task or agent passed in.
type TaskInvoker struct {
	capability Capability
	timeout    time.Duration
}

// NewTaskInvoker creates a TaskInvoker. A timeout of zero disables the
// per-invocation deadline; anything else bounds each capability call so a
// hung provider cannot block the wave barrier forever.
func NewTaskInvoker(cap Capability, timeout time.Duration) *TaskInvoker {
	return &TaskInvoker{capability: cap, timeout: timeout}
}

// Invoke runs the task against the agent's model once and returns the
// result. The scheduler guarantees task.AgentID == agent.ID and that every
// dependency appears in depOutputs with a completed outcome; neither is
// re-checked here. Capability errors (including timeouts) come back as a
// failed TaskResult, not as an invoker error.
func (i *TaskInvoker) Invoke(ctx context.Context, task *workflow.Task, agent *workflow.Agent, depOutputs map[string]map[string]any, workflowInput map[string]any) *workflow.TaskResult {
	started := time.Now()

	payload := buildPayload(task, agent, depOutputs, workflowInput)
	prompt := buildPrompt(task, agent)

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	text, err := i.capability(ctx, agent.Model, prompt, payload)
	if err != nil {
		return &workflow.TaskResult{
			TaskID:      task.ID,
			Status:      workflow.TaskFailed,
			Error:       err.Error(),
			RetryCount:  task.RetryCount,
			StartedAt:   started,
			CompletedAt: time.Now(),
		}
	}

	return &workflow.TaskResult{
		TaskID:      task.ID,
		Status:      workflow.TaskCompleted,
		Output:      CoerceOutput(text),
		RetryCount:  task.RetryCount,
		StartedAt:   started,
		CompletedAt: time.Now(),
	}
}

// buildPayload combines the task's own input, the outputs of its direct
// dependencies (addressable by dependency task ID), and workflow-level
// input. Agent parameters ride along untouched; the invoker does not
// interpret them.
func buildPayload(task *workflow.Task, agent *workflow.Agent, depOutputs map[string]map[string]any, workflowInput map[string]any) map[string]any {
	payload := map[string]any{
		"task_id": task.ID,
	}
	if len(task.Input) > 0 {
		payload["input"] = task.Input
	}
	if len(depOutputs) > 0 {
		payload["dependencies"] = depOutputs
	}
	if len(workflowInput) > 0 {
		payload["workflow_input"] = workflowInput
	}
	if agent.Temperature != 0 {
		payload["temperature"] = agent.Temperature
	}
	return payload
}

// buildPrompt assembles the instruction text for the capability from the
// agent's system prompt and the task's name and description.
func buildPrompt(task *workflow.Task, agent *workflow.Agent) string {
	var b strings.Builder
	if agent.SystemPrompt != "" {
		b.WriteString(agent.SystemPrompt)
		b.WriteString("\n\n")
	}
	b.WriteString(task.Name)
	if task.Description != "" {
		b.WriteString("\n")
		b.WriteString(task.Description)
	}
	return b.String()
}

// CoerceOutput interprets raw capability text as structured data. Strictly
// valid JSON objects parse as-is; malformed-but-salvageable JSON is repaired
// and reparsed; everything else is wrapped as {"result": <text>}. Output
// shape can degrade but coercion never fails.
func CoerceOutput(text string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err == nil && out != nil {
		return out
	}

	if repaired, err := jsonrepair.JSONRepair(text); err == nil {
		out = nil
		if err := json.Unmarshal([]byte(repaired), &out); err == nil && out != nil {
			return out
		}
	}

	return map[string]any{"result": text}
}
