// Package reminder scans for overdue and soon-due tasks and notifies their
// assignees, on a schedule.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/store"
)

// Notifier records and delivers a single notification.
type Notifier interface {
	Notify(
		ctx context.Context,
		task model.Task,
		user model.User,
		category, message string,
		sendEmail bool,
	) (*model.Notification, error)
}

// Report summarizes one sweep.
type Report struct {
	Today    model.Date
	Overdue  int // overdue tasks found
	Upcoming int // tasks found in the upcoming window
	Notified int // (task, assignee) units that completed
	Failed   int // queries or units that failed
	Started  time.Time
	Duration time.Duration
}

// Sweep is one overdue/upcoming scan. It holds no per-run state, so a
// single value can be run repeatedly.
type Sweep struct {
	store        store.Store
	notifier     Notifier
	upcomingDays int
	log          *slog.Logger
	now          func() time.Time
}

// SweepOption configures a Sweep.
type SweepOption func(*Sweep)

// WithUpcomingDays sets the look-ahead window length.
func WithUpcomingDays(days int) SweepOption {
	return func(s *Sweep) { s.upcomingDays = days }
}

// WithSweepLogger sets the logger.
func WithSweepLogger(l *slog.Logger) SweepOption {
	return func(s *Sweep) { s.log = l }
}

// WithSweepClock replaces time.Now; "today" is taken in the clock's
// location.
func WithSweepClock(now func() time.Time) SweepOption {
	return func(s *Sweep) { s.now = now }
}

// NewSweep creates a sweep over st that notifies through n.
func NewSweep(st store.Store, n Notifier, opts ...SweepOption) *Sweep {
	s := &Sweep{
		store:        st,
		notifier:     n,
		upcomingDays: model.DefaultUpcomingDays,
		log:          slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "reminder")
	return s
}

// OverdueMessage is the text of an OVERDUE notification.
func OverdueMessage(t model.Task) string {
	return fmt.Sprintf("Task '%s' was due on %s and is now OVERDUE.", t.Title, t.DueDate)
}

// UpcomingMessage is the text of an UPCOMING notification.
func UpcomingMessage(t model.Task) string {
	return fmt.Sprintf("Reminder: Task '%s' is due on %s.", t.Title, t.DueDate)
}

// Run performs the overdue pass then the upcoming pass. It never fails as a
// whole: every failing query or unit is logged, counted, and skipped.
func (s *Sweep) Run(ctx context.Context) Report {
	started := s.now()
	today := model.DateOf(started)
	r := Report{Today: today, Started: started}

	overdue, err := s.store.GetTasksDueBefore(ctx, today, model.StatusDone)
	if err != nil {
		s.log.Error("querying overdue tasks", "error", err)
		r.Failed++
	}
	r.Overdue = len(overdue)
	for _, t := range overdue {
		s.notifyAssignees(ctx, t, model.CategoryOverdue, OverdueMessage(t), true, &r)
	}

	until := today.AddDays(s.upcomingDays)
	upcoming, err := s.store.GetTasksDueBetween(ctx, today, until, model.StatusDone)
	if err != nil {
		s.log.Error("querying upcoming tasks", "error", err)
		r.Failed++
	}
	r.Upcoming = len(upcoming)
	for _, t := range upcoming {
		s.notifyAssignees(ctx, t, model.CategoryUpcoming, UpcomingMessage(t), false, &r)
	}

	r.Duration = s.now().Sub(started)
	s.log.Info("sweep finished",
		"today", today, "overdue", r.Overdue, "upcoming", r.Upcoming,
		"notified", r.Notified, "failed", r.Failed, "duration", r.Duration)
	return r
}

func (s *Sweep) notifyAssignees(
	ctx context.Context,
	t model.Task,
	category, message string,
	sendEmail bool,
	r *Report,
) {
	assignees, err := s.store.GetAssigneesForTask(ctx, t.ID)
	if err != nil {
		s.log.Error("resolving assignees", "task", t.ID, "category", category, "error", err)
		r.Failed++
		return
	}

	for _, u := range assignees {
		if err := s.notifyOne(ctx, t, u, category, message, sendEmail); err != nil {
			s.log.Error("notification failed",
				"task", t.ID, "user", u.ID, "category", category, "error", err)
			r.Failed++
			continue
		}
		r.Notified++
	}
}

// notifyOne isolates a single unit, including from panics.
func (s *Sweep) notifyOne(
	ctx context.Context,
	t model.Task,
	u model.User,
	category, message string,
	sendEmail bool,
) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	_, err = s.notifier.Notify(ctx, t, u, category, message, sendEmail)
	return err
}
