// Package notify records reminder notifications at most once per
// (task, user, category) and delivers them by email on a best-effort basis.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/store"
)

// SubjectPrefix starts the subject of every reminder email.
const SubjectPrefix = "Task Reminder: "

// Mailer delivers a plain-text message. Implementations own their timeout
// and retry policy.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Notifier is the notification deduplicator.
type Notifier struct {
	store  store.Store
	mailer Mailer
	log    *slog.Logger
	now    func() time.Time
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger used for delivery diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) { n.log = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// New creates a Notifier writing to st and delivering through m.
func New(st store.Store, m Mailer, opts ...Option) *Notifier {
	n := &Notifier{
		store:  st,
		mailer: m,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.log = n.log.With("component", "notify")
	return n
}

// Notify returns the notification for (task, user, category), creating it
// if none exists. Only the call that creates the record attempts delivery,
// and only when sendEmail is set and the user has an email address. A
// failed delivery, or a failure to record a successful one, is logged and
// leaves the record undelivered.
func (n *Notifier) Notify(
	ctx context.Context,
	task model.Task,
	user model.User,
	category, message string,
	sendEmail bool,
) (*model.Notification, error) {
	existing, err := n.store.GetNotification(ctx, task.ID, user.ID, category)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	rec := model.Notification{
		ID:        uuid.New().String(),
		TaskID:    task.ID,
		UserID:    user.ID,
		Category:  category,
		Message:   message,
		CreatedAt: n.now().UTC(),
	}
	if err := n.store.CreateNotification(ctx, rec); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Another caller won the insert; theirs is the record.
			return n.store.GetNotification(ctx, task.ID, user.ID, category)
		}
		return nil, err
	}

	if !sendEmail || strings.TrimSpace(user.Email) == "" {
		return &rec, nil
	}

	if err := n.deliver(ctx, task, user, message); err != nil {
		n.log.Warn("notification delivery failed",
			"task", task.ID, "user", user.ID, "category", category, "error", err)
		return &rec, nil
	}

	// The mail is out at this point; a failed mark only loses the flag.
	at := n.now().UTC()
	if err := n.store.MarkNotificationDelivered(ctx, rec.ID, at); err != nil {
		n.log.Error("recording notification delivery failed",
			"notification", rec.ID, "task", task.ID, "user", user.ID, "error", err)
		return &rec, nil
	}
	rec.Delivered = true
	rec.DeliveredAt = &at

	return &rec, nil
}

// deliver sends the reminder email. A panicking mailer is reported as a
// delivery failure.
func (n *Notifier) deliver(ctx context.Context, task model.Task, user model.User, message string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mailer panic: %v", r)
		}
	}()
	return n.mailer.Send(ctx, user.Email, SubjectPrefix+task.Title, message)
}

// ForUser lists a user's notifications, newest first.
func (n *Notifier) ForUser(ctx context.Context, userID string) ([]model.Notification, error) {
	if _, err := n.store.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, model.NotFound("user", userID)
		}
		return nil, err
	}
	return n.store.GetNotificationsForUser(ctx, userID)
}
