package testutil

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/store"
)

// NewTestStore creates a SQLiteStore in a temporary file with all
// migrations applied. It automatically closes the store when the test
// completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// MustCreateUser inserts a user with a generated ID and an email derived
// from name.
func MustCreateUser(t *testing.T, s store.Store, name string, role model.Role) model.User {
	t.Helper()

	u := model.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     strings.ToLower(name) + "@example.com",
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("creating user %s: %v", name, err)
	}
	return u
}

// MustCreateTask inserts a TODO task created by creatorID and due on due.
func MustCreateTask(t *testing.T, s store.Store, title string, due model.Date, creatorID string) model.Task {
	t.Helper()

	task := model.Task{
		ID:        uuid.New().String(),
		Title:     title,
		Status:    model.StatusTodo,
		DueDate:   due,
		CreatedBy: creatorID,
		CreatedAt: time.Now().UTC(),
		Version:   1,
	}
	if err := s.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("creating task %s: %v", title, err)
	}
	return task
}

// MustAssign attaches userID to taskID.
func MustAssign(t *testing.T, s store.Store, taskID, userID string) {
	t.Helper()

	err := s.CreateAssignment(context.Background(), model.Assignment{TaskID: taskID, UserID: userID})
	if err != nil {
		t.Fatalf("assigning %s to %s: %v", userID, taskID, err)
	}
}

// MustSetStatus forces a task's status regardless of authorization.
func MustSetStatus(t *testing.T, s store.Store, taskID string, status model.TaskStatus) {
	t.Helper()

	ctx := context.Background()
	task, err := s.GetTaskByID(ctx, taskID)
	if err != nil {
		t.Fatalf("getting task %s: %v", taskID, err)
	}
	if err := s.UpdateTaskStatus(ctx, taskID, status, task.Version); err != nil {
		t.Fatalf("setting task %s status: %v", taskID, err)
	}
}
