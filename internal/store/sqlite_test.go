package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/store"
	"github.com/nhle/task-reminders/tests/testutil"
)

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	testutil.MustCreateUser(t, s, "Alice", model.RoleMember)

	err := s.CreateUser(ctx, model.User{Name: "Other", Email: "alice@example.com", Role: model.RoleMember})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestGetUser_NotFound(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTaskRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	alice := testutil.MustCreateUser(t, s, "Alice", model.RoleMember)
	task := testutil.MustCreateTask(t, s, "Write report", date(t, "2025-03-10"), alice.ID)

	got, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write report", got.Title)
	assert.Equal(t, model.StatusTodo, got.Status)
	assert.Equal(t, "2025-03-10", got.DueDate.String())
	assert.Equal(t, 1, got.Version)

	view, err := s.GetTaskViewByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", view.CreatedByName)
	assert.Equal(t, task.ID, view.ID)
	assert.Equal(t, "2025-03-10", view.DueDate.String())

	all, err := s.GetTasks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Alice", all[0].CreatedByName)

	_, err = s.GetTaskViewByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateTaskStatus_Version(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	alice := testutil.MustCreateUser(t, s, "Alice", model.RoleMember)
	task := testutil.MustCreateTask(t, s, "t", date(t, "2025-03-10"), alice.ID)

	require.NoError(t, s.UpdateTaskStatus(ctx, task.ID, model.StatusInProgress, 1))

	err := s.UpdateTaskStatus(ctx, task.ID, model.StatusDone, 1)
	assert.ErrorIs(t, err, store.ErrConflict)

	err = s.UpdateTaskStatus(ctx, "missing", model.StatusDone, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)
	assert.Equal(t, 2, got.Version)
}

func TestTaskStatusCheckConstraint(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	alice := testutil.MustCreateUser(t, s, "Alice", model.RoleMember)
	task := testutil.MustCreateTask(t, s, "t", date(t, "2025-03-10"), alice.ID)

	err := s.UpdateTaskStatus(ctx, task.ID, model.TaskStatus("ARCHIVED"), 1)
	assert.Error(t, err)
}

func TestDueDateQueries(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	alice := testutil.MustCreateUser(t, s, "Alice", model.RoleMember)
	early := testutil.MustCreateTask(t, s, "early", date(t, "2025-03-01"), alice.ID)
	done := testutil.MustCreateTask(t, s, "done", date(t, "2025-03-02"), alice.ID)
	today := testutil.MustCreateTask(t, s, "today", date(t, "2025-03-10"), alice.ID)
	edge := testutil.MustCreateTask(t, s, "edge", date(t, "2025-03-17"), alice.ID)
	testutil.MustCreateTask(t, s, "later", date(t, "2025-03-18"), alice.ID)
	testutil.MustSetStatus(t, s, done.ID, model.StatusDone)

	before, err := s.GetTasksDueBefore(ctx, date(t, "2025-03-10"), model.StatusDone)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, early.ID, before[0].ID)

	between, err := s.GetTasksDueBetween(ctx, date(t, "2025-03-10"), date(t, "2025-03-17"), model.StatusDone)
	require.NoError(t, err)
	require.Len(t, between, 2)
	assert.Equal(t, today.ID, between[0].ID)
	assert.Equal(t, edge.ID, between[1].ID)
}

func TestAssignmentUnique(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	alice := testutil.MustCreateUser(t, s, "Alice", model.RoleMember)
	bob := testutil.MustCreateUser(t, s, "Bob", model.RoleMember)
	task := testutil.MustCreateTask(t, s, "t", date(t, "2025-03-10"), alice.ID)

	testutil.MustAssign(t, s, task.ID, bob.ID)

	err := s.CreateAssignment(ctx, model.Assignment{TaskID: task.ID, UserID: bob.ID})
	assert.ErrorIs(t, err, store.ErrConflict)

	ok, err := s.AssignmentExists(ctx, task.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.AssignmentExists(ctx, task.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	assignees, err := s.GetAssigneesForTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, assignees, 1)
	assert.Equal(t, "bob@example.com", assignees[0].Email)

	mine, err := s.GetTasksForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, task.ID, mine[0].ID)
	assert.Equal(t, "Alice", mine[0].CreatedByName)
}

func TestCreateTaskWithAssignee(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	alice := testutil.MustCreateUser(t, s, "Alice", model.RoleAdmin)
	bob := testutil.MustCreateUser(t, s, "Bob", model.RoleMember)

	task := model.Task{ID: "t-1", Title: "Plan", DueDate: date(t, "2025-03-10"), CreatedBy: alice.ID}
	err := s.CreateTaskWithAssignee(ctx, task, model.Assignment{TaskID: task.ID, UserID: bob.ID})
	require.NoError(t, err)

	ok, err := s.AssignmentExists(ctx, task.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateTaskWithAssignee_RollsBack(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	alice := testutil.MustCreateUser(t, s, "Alice", model.RoleAdmin)

	task := model.Task{ID: "t-1", Title: "Plan", DueDate: date(t, "2025-03-10"), CreatedBy: alice.ID}
	err := s.CreateTaskWithAssignee(ctx, task, model.Assignment{TaskID: task.ID, UserID: "ghost"})
	require.Error(t, err)

	_, err = s.GetTaskByID(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	all, err := s.GetTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAssignmentForeignKey(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	alice := testutil.MustCreateUser(t, s, "Alice", model.RoleMember)

	err := s.CreateAssignment(ctx, model.Assignment{TaskID: "missing", UserID: alice.ID})
	assert.Error(t, err)
}

func TestNotificationUniqueAndDelivery(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	alice := testutil.MustCreateUser(t, s, "Alice", model.RoleMember)
	task := testutil.MustCreateTask(t, s, "t", date(t, "2025-03-10"), alice.ID)

	n := model.Notification{
		TaskID:   task.ID,
		UserID:   alice.ID,
		Category: model.CategoryOverdue,
		Message:  "late",
	}
	require.NoError(t, s.CreateNotification(ctx, n))
	assert.ErrorIs(t, s.CreateNotification(ctx, n), store.ErrConflict)

	// A different category for the same pair is a separate record.
	n.Category = model.CategoryUpcoming
	require.NoError(t, s.CreateNotification(ctx, n))

	got, err := s.GetNotification(ctx, task.ID, alice.ID, model.CategoryOverdue)
	require.NoError(t, err)
	assert.False(t, got.Delivered)
	assert.Nil(t, got.DeliveredAt)

	at := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkNotificationDelivered(ctx, got.ID, at))

	got, err = s.GetNotification(ctx, task.ID, alice.ID, model.CategoryOverdue)
	require.NoError(t, err)
	assert.True(t, got.Delivered)
	require.NotNil(t, got.DeliveredAt)
	assert.True(t, at.Equal(*got.DeliveredAt))

	assert.ErrorIs(t, s.MarkNotificationDelivered(ctx, "missing", at), store.ErrNotFound)

	list, err := s.GetNotificationsForUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = s.GetNotification(ctx, task.ID, alice.ID, "OTHER")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReopenKeepsData(t *testing.T) {
	path := t.TempDir() + "/tasks.db"

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	alice := testutil.MustCreateUser(t, s, "Alice", model.RoleAdmin)
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetUserByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
}
