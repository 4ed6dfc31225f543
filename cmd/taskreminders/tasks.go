package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/tasks"
)

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func (a *app) runTask(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: taskreminders task create|assign|status|list")
	}
	switch args[0] {
	case "create":
		return a.taskCreate(ctx, args[1:])
	case "assign":
		return a.taskAssign(ctx, args[1:])
	case "status":
		return a.taskStatus(ctx, args[1:])
	case "list":
		return a.taskList(ctx, args[1:])
	}
	return fmt.Errorf("unknown task command %q", args[0])
}

func (a *app) taskCreate(ctx context.Context, args []string) error {
	var in tasks.NewTask
	var due string
	fs := flag.NewFlagSet("task create", flag.ContinueOnError)
	fs.StringVar(&in.CreatorEmail, "as", "", "email of the acting user")
	fs.StringVar(&in.Title, "title", "", "task title")
	fs.StringVar(&in.Description, "description", "", "task description")
	fs.StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	fs.StringVar(&in.AssigneeID, "assignee", "", "ID of the initial assignee")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := model.ParseDate(due)
	if err != nil {
		return err
	}
	in.DueDate = d

	v, err := a.tasks.CreateTask(ctx, in)
	if err != nil {
		return err
	}
	fmt.Println(renderTasks([]model.TaskView{*v}, a.cfg.Reminder.UpcomingDays))
	return nil
}

func (a *app) taskAssign(ctx context.Context, args []string) error {
	var actor, taskID string
	fs := flag.NewFlagSet("task assign", flag.ContinueOnError)
	fs.StringVar(&actor, "as", "", "email of the acting user")
	fs.StringVar(&taskID, "task", "", "task ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("at least one user ID is required")
	}

	assigned, err := a.tasks.AssignUsers(ctx, taskID, fs.Args(), actor)
	if err != nil {
		return err
	}
	fmt.Println(renderAssignees(assigned))
	return nil
}

func (a *app) taskStatus(ctx context.Context, args []string) error {
	var actor string
	var ids stringList
	fs := flag.NewFlagSet("task status", flag.ContinueOnError)
	fs.StringVar(&actor, "as", "", "email of the acting user")
	fs.Var(&ids, "task", "task ID (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || len(ids) == 0 {
		return fmt.Errorf("usage: taskreminders task status -as EMAIL -task ID [-task ID...] STATUS")
	}

	status, err := model.ParseTaskStatus(fs.Arg(0))
	if err != nil {
		return err
	}

	if len(ids) == 1 {
		v, err := a.tasks.SetStatus(ctx, ids[0], status, actor)
		if err != nil {
			return explainForbidden(err)
		}
		fmt.Println(renderTasks([]model.TaskView{*v}, a.cfg.Reminder.UpcomingDays))
		return nil
	}

	updated, err := a.tasks.SetStatuses(ctx, ids, status, actor)
	if len(updated) > 0 {
		fmt.Println(renderTasks(updated, a.cfg.Reminder.UpcomingDays))
	}
	return err
}

func (a *app) taskList(ctx context.Context, args []string) error {
	var actor string
	fs := flag.NewFlagSet("task list", flag.ContinueOnError)
	fs.StringVar(&actor, "as", "", "email of the acting user")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := a.tasks.TasksForUser(ctx, actor)
	if err != nil {
		return err
	}
	fmt.Println(renderTasks(list, a.cfg.Reminder.UpcomingDays))
	return nil
}

func (a *app) runNotifications(ctx context.Context, args []string) error {
	var userID string
	fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
	fs.StringVar(&userID, "user", "", "user ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := a.notifier.ForUser(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Println(renderNotifications(list))
	return nil
}

// explainForbidden strips the wrapping so the reason reads as a sentence.
func explainForbidden(err error) error {
	var fe *model.ForbiddenError
	if errors.As(err, &fe) {
		return fmt.Errorf("%s", fe.Reason)
	}
	return err
}
