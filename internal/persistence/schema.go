package persistence

import (
	"context"
)

// initSchema creates all required tables if they don't exist. Workflow
// definitions are stored as their JSON document; execution snapshots are
// normalized into an executions row plus one task_results row per task.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS workflows (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		definition TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS executions (
		id TEXT PRIMARY KEY,
		workflow_id TEXT NOT NULL,
		status TEXT NOT NULL,
		total_tasks INTEGER NOT NULL,
		progress REAL NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_executions_workflow_id ON executions(workflow_id);

	CREATE TABLE IF NOT EXISTS task_results (
		execution_id TEXT NOT NULL,
		task_id TEXT NOT NULL,
		status TEXT NOT NULL,
		output TEXT,
		error TEXT,
		retry_count INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME NOT NULL,
		PRIMARY KEY (execution_id, task_id),
		FOREIGN KEY (execution_id) REFERENCES executions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_task_results_execution_id ON task_results(execution_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
