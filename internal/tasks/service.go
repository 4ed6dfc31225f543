// Package tasks implements task creation, assignment, and status
// transitions together with the authorization rules that guard them.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/store"
)

// Service is the task lifecycle engine. It is safe for concurrent use;
// per-task write ordering is delegated to the store's version check.
type Service struct {
	store store.Store
	log   *slog.Logger
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for diagnostic output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service backed by st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "tasks")
	return s
}

// GetTask returns a task with its creator's name.
func (s *Service) GetTask(ctx context.Context, id string) (*model.TaskView, error) {
	v, err := s.store.GetTaskViewByID(ctx, id)
	if err != nil {
		return nil, translate(err, "task", id)
	}
	return v, nil
}

// TasksForUser lists the tasks visible to the user with the given email:
// every task for an admin, the assigned tasks for a member.
func (s *Service) TasksForUser(ctx context.Context, email string) ([]model.TaskView, error) {
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u.IsAdmin() {
		return s.store.GetTasks(ctx)
	}
	return s.store.GetTasksForUser(ctx, u.ID)
}

// Assignees lists the users assigned to a task.
func (s *Service) Assignees(ctx context.Context, taskID string) ([]model.Assignee, error) {
	if _, err := s.task(ctx, taskID); err != nil {
		return nil, err
	}
	users, err := s.store.GetAssigneesForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Assignee, 0, len(users))
	for _, u := range users {
		out = append(out, model.AssigneeOf(u))
	}
	return out, nil
}

func (s *Service) task(ctx context.Context, id string) (*model.Task, error) {
	t, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		return nil, translate(err, "task", id)
	}
	return t, nil
}

func (s *Service) userByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, translate(err, "user", email)
	}
	return u, nil
}

func (s *Service) userByID(ctx context.Context, id string) (*model.User, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, translate(err, "user", id)
	}
	return u, nil
}

// translate maps store sentinels onto the model error taxonomy.
func translate(err error, entity, key string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return model.NotFound(entity, key)
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%s %s: %w", entity, key, model.ErrConflict)
	}
	return err
}
