package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/store"
)

// Forbidden reasons reported by SetStatus.
const (
	ReasonStatusNotPermitted = "only task owner, assignee, or admin may update status"
	ReasonDoneLocked         = "only admin may change status once task is done"
	ReasonDoneReopen         = "only admin may move a done task back to in-progress"
)

// maxStatusAttempts bounds the re-read/re-check loop when another writer
// bumps the task version between our read and our write.
const maxStatusAttempts = 3

// SetStatus moves a task to status on behalf of the user with actorEmail.
func (s *Service) SetStatus(
	ctx context.Context,
	taskID string,
	status model.TaskStatus,
	actorEmail string,
) (*model.TaskView, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrInvalidArgument, status)
	}

	task, err := s.task(ctx, taskID)
	if err != nil {
		return nil, err
	}
	actor, err := s.userByEmail(ctx, actorEmail)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		if err := s.authorizeStatusChange(ctx, *task, *actor, status); err != nil {
			return nil, err
		}

		err := s.store.UpdateTaskStatus(ctx, task.ID, status, task.Version)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrConflict) || attempt == maxStatusAttempts {
			return nil, translate(err, "task", taskID)
		}

		s.log.Debug("task changed concurrently, retrying status update",
			"task", taskID, "attempt", attempt)
		if task, err = s.task(ctx, taskID); err != nil {
			return nil, err
		}
	}

	s.log.Info("task status changed",
		"task", taskID, "from", task.Status, "to", status, "by", actor.ID)

	return s.GetTask(ctx, taskID)
}

// SetStatuses applies SetStatus to each task independently. It returns the
// tasks that were updated and, if any failed, an error joining each
// failure.
func (s *Service) SetStatuses(
	ctx context.Context,
	taskIDs []string,
	status model.TaskStatus,
	actorEmail string,
) ([]model.TaskView, error) {
	var (
		updated []model.TaskView
		errs    []error
	)
	for _, id := range taskIDs {
		v, err := s.SetStatus(ctx, id, status, actorEmail)
		if err != nil {
			errs = append(errs, fmt.Errorf("task %s: %w", id, err))
			continue
		}
		updated = append(updated, *v)
	}
	return updated, errors.Join(errs...)
}

// authorizeStatusChange decides whether actor may move task to status.
// The DONE guards run before the owner/assignee check so that a done task
// is locked even for its owner.
func (s *Service) authorizeStatusChange(
	ctx context.Context,
	task model.Task,
	actor model.User,
	to model.TaskStatus,
) error {
	if actor.IsAdmin() {
		return nil
	}

	if task.Status == model.StatusDone && to != model.StatusDone {
		if to == model.StatusInProgress {
			return model.Forbidden(ReasonDoneReopen)
		}
		return model.Forbidden(ReasonDoneLocked)
	}

	if task.CreatedBy == actor.ID {
		return nil
	}

	assigned, err := s.store.AssignmentExists(ctx, task.ID, actor.ID)
	if err != nil {
		return err
	}
	if !assigned {
		return model.Forbidden(ReasonStatusNotPermitted)
	}
	return nil
}
