package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/task-reminders/internal/model"
)

var (
	// ErrNotFound is returned by single-row lookups that match nothing.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write violates a uniqueness constraint
	// or an optimistic version check.
	ErrConflict = errors.New("record conflict")
)

// Store defines the persistence interface for users, tasks, assignments,
// and notifications.
type Store interface {
	// === Users ===

	CreateUser(ctx context.Context, u model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUsers(ctx context.Context) ([]model.User, error)

	// === Tasks ===

	CreateTask(ctx context.Context, t model.Task) error
	// CreateTaskWithAssignee stores a task and its first assignment
	// atomically.
	CreateTaskWithAssignee(ctx context.Context, t model.Task, a model.Assignment) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetTaskViewByID(ctx context.Context, id string) (*model.TaskView, error)
	// UpdateTaskStatus writes status if the stored version still equals
	// version, returning ErrConflict otherwise.
	UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus, version int) error
	GetTasks(ctx context.Context) ([]model.TaskView, error)
	GetTasksByStatus(ctx context.Context, status model.TaskStatus) ([]model.Task, error)
	GetTasksDueBefore(ctx context.Context, date model.Date, excluded model.TaskStatus) ([]model.Task, error)
	GetTasksDueBetween(ctx context.Context, from, to model.Date, excluded model.TaskStatus) ([]model.Task, error)
	GetTasksForUser(ctx context.Context, userID string) ([]model.TaskView, error)

	// === Assignments ===

	CreateAssignment(ctx context.Context, a model.Assignment) error
	GetAssignment(ctx context.Context, taskID, userID string) (*model.Assignment, error)
	AssignmentExists(ctx context.Context, taskID, userID string) (bool, error)
	GetAssignmentsForTask(ctx context.Context, taskID string) ([]model.Assignment, error)
	GetAssignmentsForUser(ctx context.Context, userID string) ([]model.Assignment, error)
	GetAssigneesForTask(ctx context.Context, taskID string) ([]model.User, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetNotification(ctx context.Context, taskID, userID, category string) (*model.Notification, error)
	NotificationExists(ctx context.Context, taskID, userID, category string) (bool, error)
	MarkNotificationDelivered(ctx context.Context, id string, at time.Time) error
	GetNotificationsForUser(ctx context.Context, userID string) ([]model.Notification, error)
}
