package model

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ParseTaskStatus accepts a status name case-insensitively, with either
// '-' or '_' as the separator ("in-progress", "IN_PROGRESS").
func ParseTaskStatus(s string) (TaskStatus, error) {
	st := TaskStatus(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, s)
	}
	return st, nil
}

// Task is a unit of work created by a user and acted on by its assignees.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id" db:"id"`

	// Title is the short human-readable summary.
	Title string `json:"title" db:"title"`

	// Description is the free-form body text.
	Description string `json:"description" db:"description"`

	// Status is the current lifecycle state (use Status* constants).
	Status TaskStatus `json:"status" db:"status"`

	// DueDate is a calendar date; see Date.
	DueDate Date `json:"due_date" db:"due_date"`

	// CreatedBy is the ID of the user who created the task. It never changes.
	CreatedBy string `json:"created_by" db:"created_by"`

	// CreatedAt is when the task was persisted.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Version is bumped on every status write and used for optimistic
	// concurrency control.
	Version int `json:"-" db:"version"`
}

// Assignment is the edge granting a user the right to act on a task.
// At most one exists per (task, user) pair.
type Assignment struct {
	ID        string    `json:"id" db:"id"`
	TaskID    string    `json:"task_id" db:"task_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Assignee is the view of an assigned user returned to callers.
type Assignee struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AssigneeOf builds the assignee view of u.
func AssigneeOf(u User) Assignee {
	return Assignee{ID: u.ID, Name: u.Name, Email: u.Email}
}

// TaskView is a task together with its creator's display name.
type TaskView struct {
	Task
	CreatedByName string `json:"created_by_name" db:"created_by_name"`
}
