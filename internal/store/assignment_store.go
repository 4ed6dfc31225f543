package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/task-reminders/internal/model"
)

// CreateAssignment attaches a user to a task. An existing (task, user)
// pair yields ErrConflict.
func (s *SQLiteStore) CreateAssignment(ctx context.Context, a model.Assignment) error {
	return insertAssignment(ctx, s.db, a)
}

func insertAssignment(ctx context.Context, db sqlx.ExecerContext, a model.Assignment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO task_assignees (id, task_id, user_id, created_at)
		VALUES (?, ?, ?, ?)`,
		a.ID, a.TaskID, a.UserID, a.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("assigning user %s to task %s: %w", a.UserID, a.TaskID, ErrConflict)
		}
		return fmt.Errorf("assigning user %s to task %s: %w", a.UserID, a.TaskID, err)
	}
	return nil
}

// GetAssignment retrieves the assignment for a (task, user) pair.
func (s *SQLiteStore) GetAssignment(ctx context.Context, taskID, userID string) (*model.Assignment, error) {
	var a model.Assignment
	err := s.db.GetContext(ctx, &a, `
		SELECT id, task_id, user_id, created_at FROM task_assignees
		WHERE task_id = ? AND user_id = ?`, taskID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("getting assignment %s/%s: %w", taskID, userID, ErrNotFound)
		}
		return nil, fmt.Errorf("getting assignment %s/%s: %w", taskID, userID, err)
	}
	return &a, nil
}

// AssignmentExists reports whether the user is assigned to the task.
func (s *SQLiteStore) AssignmentExists(ctx context.Context, taskID, userID string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM task_assignees WHERE task_id = ? AND user_id = ?",
		taskID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("checking assignment %s/%s: %w", taskID, userID, err)
	}
	return n > 0, nil
}

// GetAssignmentsForTask retrieves a task's assignments in assignment order.
func (s *SQLiteStore) GetAssignmentsForTask(ctx context.Context, taskID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := s.db.SelectContext(ctx, &assignments, `
		SELECT id, task_id, user_id, created_at FROM task_assignees
		WHERE task_id = ?
		ORDER BY created_at, id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("querying assignments for task %s: %w", taskID, err)
	}
	return assignments, nil
}

// GetAssignmentsForUser retrieves every assignment held by a user.
func (s *SQLiteStore) GetAssignmentsForUser(ctx context.Context, userID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := s.db.SelectContext(ctx, &assignments, `
		SELECT id, task_id, user_id, created_at FROM task_assignees
		WHERE user_id = ?
		ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying assignments for user %s: %w", userID, err)
	}
	return assignments, nil
}

// GetAssigneesForTask retrieves the users assigned to a task.
func (s *SQLiteStore) GetAssigneesForTask(ctx context.Context, taskID string) ([]model.User, error) {
	var users []model.User
	err := s.db.SelectContext(ctx, &users, `
		SELECT u.id, u.name, u.email, u.password_hash, u.role, u.created_at
		FROM task_assignees a
		JOIN users u ON u.id = a.user_id
		WHERE a.task_id = ?
		ORDER BY a.created_at, a.id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("querying assignees for task %s: %w", taskID, err)
	}
	return users, nil
}
