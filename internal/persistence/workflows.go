package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hummbl-dev/flowcore/internal/workflow"
)

// SaveWorkflow saves or updates a workflow definition. The full definition is
// stored as JSON; name and status are duplicated into columns for listing.
func (s *SQLiteStore) SaveWorkflow(ctx context.Context, wf *workflow.Workflow) error {
	definition, err := json.Marshal(wf)
	if err != nil {
		return fmt.Errorf("failed to encode workflow: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflows (id, name, status, definition, created_at, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			definition = excluded.definition,
			updated_at = CURRENT_TIMESTAMP
	`, wf.ID, wf.Name, wf.Status, string(definition))
	if err != nil {
		return fmt.Errorf("failed to upsert workflow: %w", err)
	}
	return nil
}

// GetWorkflow retrieves a workflow definition by ID.
func (s *SQLiteStore) GetWorkflow(ctx context.Context, workflowID string) (*workflow.Workflow, error) {
	var definition string
	err := s.db.QueryRowContext(ctx, `
		SELECT definition FROM workflows WHERE id = ?
	`, workflowID).Scan(&definition)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("workflow not found: %s", workflowID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow: %w", err)
	}

	wf := &workflow.Workflow{}
	if err := json.Unmarshal([]byte(definition), wf); err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", workflowID, err)
	}
	return wf, nil
}

// ListWorkflows returns all stored workflow definitions.
func (s *SQLiteStore) ListWorkflows(ctx context.Context) ([]*workflow.Workflow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT definition FROM workflows ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*workflow.Workflow
	for rows.Next() {
		var definition string
		if err := rows.Scan(&definition); err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		wf := &workflow.Workflow{}
		if err := json.Unmarshal([]byte(definition), wf); err != nil {
			return nil, fmt.Errorf("failed to decode workflow: %w", err)
		}
		workflows = append(workflows, wf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}
	return workflows, nil
}

// DeleteWorkflow removes a workflow definition. Archived executions of the
// workflow are kept.
func (s *SQLiteStore) DeleteWorkflow(ctx context.Context, workflowID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("workflow not found: %s", workflowID)
	}
	return nil
}
