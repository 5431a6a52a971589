package workflow

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadFile reads a workflow definition from a JSON file. Tasks without a
// status default to pending; a workflow without a status defaults to draft.
func LoadFile(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow file: %w", err)
	}

	wf := &Workflow{}
	if err := json.Unmarshal(data, wf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if wf.Status == "" {
		wf.Status = WorkflowDraft
	}
	for _, t := range wf.Tasks {
		if t.Status == "" {
			t.Status = TaskPending
		}
	}
	return wf, nil
}
