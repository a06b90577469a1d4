package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pipelinealfa/crm/pkg/models"
)

// PostgresTaskStore persists follow-up tasks. There is no foreign key to
// leads: the lead reference is allowed to dangle when a lead disappears
// under a stale view.
type PostgresTaskStore struct {
	db *sql.DB
}

// ListByUser returns every task owned by the user, newest first.
func (s *PostgresTaskStore) ListByUser(ctx context.Context, userID string) ([]models.Task, error) {
	query := `
		SELECT id, user_id, lead_id, title, description, due_date, priority, completed, created_at
		FROM tasks WHERE user_id = $1 ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		err := rows.Scan(
			&task.ID, &task.UserID, &task.LeadID, &task.Title, &task.Description,
			&task.DueDate, &task.Priority, &task.Completed, &task.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Create inserts a new task row.
func (s *PostgresTaskStore) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, lead_id, title, description, due_date, priority, completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	return s.db.QueryRowContext(ctx, query,
		task.ID, task.UserID, task.LeadID, task.Title, task.Description,
		task.DueDate, task.Priority, task.Completed,
	).Scan(&task.CreatedAt)
}

// Update rewrites the editable fields of a task row.
func (s *PostgresTaskStore) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET lead_id = $3, title = $4, description = $5,
			due_date = $6, priority = $7
		WHERE id = $1 AND user_id = $2
	`

	result, err := s.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.LeadID, task.Title, task.Description,
		task.DueDate, task.Priority,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return requireRow(result)
}

// SetCompleted flips the completion flag.
func (s *PostgresTaskStore) SetCompleted(ctx context.Context, userID, taskID string, completed bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed = $3 WHERE id = $1 AND user_id = $2`,
		taskID, userID, completed,
	)
	if err != nil {
		return fmt.Errorf("failed to toggle task: %w", err)
	}
	return requireRow(result)
}

// Delete removes a single task row.
func (s *PostgresTaskStore) Delete(ctx context.Context, userID, taskID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireRow(result)
}
