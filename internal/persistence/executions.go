package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hummbl-dev/flowcore/internal/workflow"
)

// SaveExecution archives an execution snapshot and its task results.
// Uses ON CONFLICT so re-archiving the same execution after later waves is
// idempotent.
func (s *SQLiteStore) SaveExecution(ctx context.Context, snap workflow.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var completedAt any
	if snap.CompletedAt != nil {
		completedAt = snap.CompletedAt.UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO executions (id, workflow_id, status, total_tasks, progress, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			total_tasks = excluded.total_tasks,
			progress = excluded.progress,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at
	`, snap.ID, snap.WorkflowID, snap.Status, snap.TotalTasks, snap.Progress, snap.StartedAt.UTC(), completedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert execution: %w", err)
	}

	for taskID, res := range snap.Results {
		var output any
		if res.Output != nil {
			raw, err := json.Marshal(res.Output)
			if err != nil {
				return fmt.Errorf("failed to encode output for task %s: %w", taskID, err)
			}
			output = string(raw)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO task_results (execution_id, task_id, status, output, error, retry_count, started_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(execution_id, task_id) DO UPDATE SET
				status = excluded.status,
				output = excluded.output,
				error = excluded.error,
				retry_count = excluded.retry_count,
				started_at = excluded.started_at,
				completed_at = excluded.completed_at
		`, snap.ID, taskID, res.Status, output, res.Error, res.RetryCount, res.StartedAt.UTC(), res.CompletedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to upsert result for task %s: %w", taskID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExecution retrieves an archived execution snapshot by ID, including its
// task results.
func (s *SQLiteStore) GetExecution(ctx context.Context, executionID string) (*workflow.Snapshot, error) {
	snap := &workflow.Snapshot{}
	var completedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, workflow_id, status, total_tasks, progress, started_at, completed_at
		FROM executions
		WHERE id = ?
	`, executionID).Scan(&snap.ID, &snap.WorkflowID, &snap.Status, &snap.TotalTasks, &snap.Progress, &snap.StartedAt, &completedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("execution not found: %s", executionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query execution: %w", err)
	}
	if completedAt.Valid {
		ts := completedAt.Time
		snap.CompletedAt = &ts
	}

	results, err := s.loadResults(ctx, executionID)
	if err != nil {
		return nil, err
	}
	snap.Results = results

	return snap, nil
}

// ListExecutions returns archived executions, newest first. An empty
// workflowID lists across all workflows.
func (s *SQLiteStore) ListExecutions(ctx context.Context, workflowID string) ([]*workflow.Snapshot, error) {
	query := `
		SELECT id, workflow_id, status, total_tasks, progress, started_at, completed_at
		FROM executions
	`
	var args []any
	if workflowID != "" {
		query += ` WHERE workflow_id = ?`
		args = append(args, workflowID)
	}
	query += ` ORDER BY started_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var snaps []*workflow.Snapshot
	for rows.Next() {
		snap := &workflow.Snapshot{}
		var completedAt sql.NullTime

		err := rows.Scan(&snap.ID, &snap.WorkflowID, &snap.Status, &snap.TotalTasks, &snap.Progress, &snap.StartedAt, &completedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		if completedAt.Valid {
			ts := completedAt.Time
			snap.CompletedAt = &ts
		}

		results, err := s.loadResults(ctx, snap.ID)
		if err != nil {
			return nil, err
		}
		snap.Results = results

		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}
	return snaps, nil
}

// loadResults loads the task results of one archived execution.
func (s *SQLiteStore) loadResults(ctx context.Context, executionID string) (map[string]*workflow.TaskResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, status, output, error, retry_count, started_at, completed_at
		FROM task_results
		WHERE execution_id = ?
	`, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task results: %w", err)
	}
	defer rows.Close()

	results := make(map[string]*workflow.TaskResult)
	for rows.Next() {
		res := &workflow.TaskResult{}
		var output sql.NullString
		var errStr sql.NullString
		var started, completed time.Time

		if err := rows.Scan(&res.TaskID, &res.Status, &output, &errStr, &res.RetryCount, &started, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan task result: %w", err)
		}
		res.StartedAt = started
		res.CompletedAt = completed
		res.Error = errStr.String

		if output.Valid && output.String != "" {
			if err := json.Unmarshal([]byte(output.String), &res.Output); err != nil {
				return nil, fmt.Errorf("failed to decode output for task %s: %w", res.TaskID, err)
			}
		}

		results[res.TaskID] = res
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task results: %w", err)
	}
	return results, nil
}
