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

const taskColumns = "id, title, description, status, due_date, created_by, created_at, version"

// taskViewQuery joins the creator's name onto each task row.
const taskViewQuery = `
	SELECT t.id, t.title, t.description, t.status, t.due_date,
		t.created_by, t.created_at, t.version,
		COALESCE(u.name, '') AS created_by_name
	FROM tasks t
	LEFT JOIN users u ON u.id = t.created_by`

// CreateTask inserts a new task. Status defaults to TODO and Version to 1.
func (s *SQLiteStore) CreateTask(ctx context.Context, t model.Task) error {
	return insertTask(ctx, s.db, t)
}

// CreateTaskWithAssignee inserts a task and its first assignment in one
// transaction. Neither row is stored if either insert fails.
func (s *SQLiteStore) CreateTaskWithAssignee(ctx context.Context, t model.Task, a model.Assignment) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning task %s transaction: %w", t.ID, err)
	}
	defer tx.Rollback()

	if err := insertTask(ctx, tx, t); err != nil {
		return err
	}
	if err := insertAssignment(ctx, tx, a); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing task %s: %w", t.ID, err)
	}
	return nil
}

func insertTask(ctx context.Context, db sqlx.ExecerContext, t model.Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = model.StatusTodo
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Version == 0 {
		t.Version = 1
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, due_date, created_by, created_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, string(t.Status), t.DueDate,
		t.CreatedBy, t.CreatedAt.UTC(), t.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("creating task %s: %w", t.ID, ErrConflict)
		}
		return fmt.Errorf("creating task %s: %w", t.ID, err)
	}
	return nil
}

// GetTaskByID retrieves a single task by its ID.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	var t model.Task
	err := s.db.GetContext(ctx, &t, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("getting task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return &t, nil
}

// GetTaskViewByID retrieves a task with its creator's name.
func (s *SQLiteStore) GetTaskViewByID(ctx context.Context, id string) (*model.TaskView, error) {
	var v model.TaskView
	err := s.db.GetContext(ctx, &v, taskViewQuery+" WHERE t.id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("getting task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return &v, nil
}

// UpdateTaskStatus sets the status of a task if its stored version matches.
// The version is incremented on success.
func (s *SQLiteStore) UpdateTaskStatus(
	ctx context.Context,
	id string,
	status model.TaskStatus,
	version int,
) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		string(status), id, version,
	)
	if err != nil {
		return fmt.Errorf("updating task %s status: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating task %s status: %w", id, err)
	}
	if rows > 0 {
		return nil
	}

	var exists int
	if err := s.db.GetContext(ctx, &exists, "SELECT COUNT(*) FROM tasks WHERE id = ?", id); err != nil {
		return fmt.Errorf("updating task %s status: %w", id, err)
	}
	if exists == 0 {
		return fmt.Errorf("updating task %s status: %w", id, ErrNotFound)
	}
	return fmt.Errorf("updating task %s status at version %d: %w", id, version, ErrConflict)
}

// GetTasks retrieves every task, soonest due first.
func (s *SQLiteStore) GetTasks(ctx context.Context) ([]model.TaskView, error) {
	var tasks []model.TaskView
	err := s.db.SelectContext(ctx, &tasks, taskViewQuery+" ORDER BY t.due_date, t.created_at")
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	return tasks, nil
}

// GetTasksByStatus retrieves all tasks in the given status.
func (s *SQLiteStore) GetTasksByStatus(
	ctx context.Context,
	status model.TaskStatus,
) ([]model.Task, error) {
	return s.selectTasks(ctx, "status = ?", string(status))
}

// GetTasksDueBefore retrieves tasks due strictly before date whose status
// is not excluded.
func (s *SQLiteStore) GetTasksDueBefore(
	ctx context.Context,
	date model.Date,
	excluded model.TaskStatus,
) ([]model.Task, error) {
	return s.selectTasks(ctx, "due_date < ? AND status != ?", date, string(excluded))
}

// GetTasksDueBetween retrieves tasks due within [from, to] inclusive whose
// status is not excluded.
func (s *SQLiteStore) GetTasksDueBetween(
	ctx context.Context,
	from, to model.Date,
	excluded model.TaskStatus,
) ([]model.Task, error) {
	return s.selectTasks(ctx, "due_date >= ? AND due_date <= ? AND status != ?", from, to, string(excluded))
}

// GetTasksForUser retrieves the tasks a user is assigned to.
func (s *SQLiteStore) GetTasksForUser(ctx context.Context, userID string) ([]model.TaskView, error) {
	var tasks []model.TaskView
	err := s.db.SelectContext(ctx, &tasks, taskViewQuery+`
		JOIN task_assignees a ON a.task_id = t.id
		WHERE a.user_id = ?
		ORDER BY t.due_date, t.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying tasks for user %s: %w", userID, err)
	}
	return tasks, nil
}

func (s *SQLiteStore) selectTasks(ctx context.Context, where string, args ...any) ([]model.Task, error) {
	var tasks []model.Task
	query := "SELECT " + taskColumns + " FROM tasks WHERE " + where + " ORDER BY due_date, created_at"
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	return tasks, nil
}
