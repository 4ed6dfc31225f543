package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/store"
)

// ReasonAssignNotPermitted is returned when a non-owner member tries to
// add assignees.
const ReasonAssignNotPermitted = "only task owner or admin may assign users"

// NewTask describes a task to be created.
type NewTask struct {
	Title        string
	Description  string
	DueDate      model.Date
	CreatorEmail string
	AssigneeID   string
}

// CreateTask persists a TODO task owned by the creator together with its
// assignment to the initial assignee.
func (s *Service) CreateTask(ctx context.Context, in NewTask) (*model.TaskView, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title must be provided", model.ErrInvalidArgument)
	}
	if in.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due date must be provided", model.ErrInvalidArgument)
	}

	creator, err := s.userByEmail(ctx, in.CreatorEmail)
	if err != nil {
		return nil, err
	}
	assignee, err := s.userByID(ctx, in.AssigneeID)
	if err != nil {
		return nil, err
	}

	task := model.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      model.StatusTodo,
		DueDate:     in.DueDate,
		CreatedBy:   creator.ID,
		CreatedAt:   s.now().UTC(),
		Version:     1,
	}
	err = s.store.CreateTaskWithAssignee(ctx, task, model.Assignment{
		ID:        uuid.New().String(),
		TaskID:    task.ID,
		UserID:    assignee.ID,
		CreatedAt: task.CreatedAt,
	})
	if err != nil {
		return nil, translate(err, "task", task.ID)
	}

	s.log.Info("task created",
		"task", task.ID, "creator", creator.ID, "assignee", assignee.ID, "due", task.DueDate)

	return &model.TaskView{Task: task, CreatedByName: creator.Name}, nil
}

// AssignUsers attaches each user in userIDs to the task, in order. Users
// already assigned are reported but not stored twice. Each id is committed
// on its own, so when a later id fails to resolve the earlier ones stay
// assigned.
func (s *Service) AssignUsers(
	ctx context.Context,
	taskID string,
	userIDs []string,
	actorEmail string,
) ([]model.Assignee, error) {
	task, err := s.task(ctx, taskID)
	if err != nil {
		return nil, err
	}
	actor, err := s.userByEmail(ctx, actorEmail)
	if err != nil {
		return nil, err
	}

	if task.CreatedBy != actor.ID && !actor.IsAdmin() {
		return nil, model.Forbidden(ReasonAssignNotPermitted)
	}

	assigned := make([]model.Assignee, 0, len(userIDs))
	for _, id := range userIDs {
		u, err := s.userByID(ctx, id)
		if err != nil {
			return nil, err
		}

		exists, err := s.store.AssignmentExists(ctx, task.ID, u.ID)
		if err != nil {
			return nil, err
		}
		if !exists {
			if err := s.attach(ctx, task.ID, u.ID); err != nil {
				return nil, err
			}
			s.log.Info("user assigned", "task", task.ID, "user", u.ID, "by", actor.ID)
		}

		assigned = append(assigned, model.AssigneeOf(*u))
	}

	return assigned, nil
}

// attach stores an assignment, treating a concurrent duplicate as success.
func (s *Service) attach(ctx context.Context, taskID, userID string) error {
	err := s.store.CreateAssignment(ctx, model.Assignment{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	})
	if errors.Is(err, store.ErrConflict) {
		s.log.Debug("assignment already present", "task", taskID, "user", userID)
		return nil
	}
	return err
}
