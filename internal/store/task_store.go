package store

import (
	"context"
	"time"

	"tailorshop/internal/models"
)

type TaskStore struct {
	db DB
}

func NewTaskStore(db DB) *TaskStore {
	return &TaskStore{db: db}
}

func (s *TaskStore) Create(ctx context.Context, tx Execer, task models.Task) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO tasks (id, order_id, assigned_to, status, progress_notes)
		VALUES ($1, $2, $3, $4, $5)
	`, task.ID, task.OrderID, task.AssignedTo, task.Status, task.ProgressNotes)
	return err
}

func (s *TaskStore) ExistsForOrder(ctx context.Context, tx Getter, orderID string) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM tasks WHERE order_id = $1)`, orderID)
	return exists, err
}

func (s *TaskStore) GetForUpdate(ctx context.Context, tx Getter, taskID string) (models.Task, error) {
	var row models.Task
	err := tx.GetContext(ctx, &row, `
		SELECT id, order_id, assigned_to, status, progress_notes, completed_at, created_at
		FROM tasks
		WHERE id = $1
		FOR UPDATE
	`, taskID)
	return row, err
}

// List returns all tasks, or only those assigned to assignedTo when set.
func (s *TaskStore) List(ctx context.Context, assignedTo, status string) ([]models.Task, error) {
	var rows []models.Task
	err := s.db.SelectContext(ctx, &rows, `
		SELECT t.id, t.order_id, t.assigned_to, u.full_name AS assignee_name, t.status, t.progress_notes,
		       t.completed_at, t.created_at
		FROM tasks t
		JOIN users u ON u.id = t.assigned_to
		WHERE ($1::text = '' OR t.assigned_to = $1)
		  AND ($2::text = '' OR t.status = $2)
		ORDER BY t.created_at DESC
	`, assignedTo, status)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TaskStore) UpdateStatus(ctx context.Context, tx Execer, taskID, status string, notes *string, completedAt *time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, progress_notes = COALESCE($2, progress_notes), completed_at = $3
		WHERE id = $4
	`, status, notes, completedAt, taskID)
	return err
}
