package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/notify"
	"github.com/nhle/task-reminders/internal/store"
	"github.com/nhle/task-reminders/tests/testutil"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []sentMail
	err   error
	panic bool
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if m.panic {
		panic("smtp exploded")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func setup(t *testing.T, m notify.Mailer) (*notify.Notifier, model.Task, model.User) {
	t.Helper()

	s := testutil.NewTestStore(t)
	u := testutil.MustCreateUser(t, s, "Bob", model.RoleMember)
	due, err := model.ParseDate("2025-03-01")
	require.NoError(t, err)
	task := testutil.MustCreateTask(t, s, "Write report", due, u.ID)

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	n := notify.New(s, m, notify.WithClock(func() time.Time { return now }))
	return n, task, u
}

func TestNotify_SendsOnceAndDedups(t *testing.T) {
	m := &fakeMailer{}
	n, task, u := setup(t, m)
	ctx := context.Background()

	first, err := n.Notify(ctx, task, u, model.CategoryOverdue, "late", true)
	require.NoError(t, err)
	assert.True(t, first.Delivered)
	require.NotNil(t, first.DeliveredAt)

	second, err := n.Notify(ctx, task, u, model.CategoryOverdue, "different text", true)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "late", second.Message)

	require.Equal(t, 1, m.count())
	assert.Equal(t, "bob@example.com", m.sent[0].to)
	assert.Equal(t, "Task Reminder: Write report", m.sent[0].subject)
	assert.Equal(t, "late", m.sent[0].body)
}

func TestNotify_CategoriesAreIndependent(t *testing.T) {
	m := &fakeMailer{}
	n, task, u := setup(t, m)
	ctx := context.Background()

	a, err := n.Notify(ctx, task, u, model.CategoryOverdue, "late", true)
	require.NoError(t, err)
	b, err := n.Notify(ctx, task, u, model.CategoryUpcoming, "soon", false)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, b.Delivered)
	assert.Equal(t, 1, m.count())
}

func TestNotify_DeliveryFailureKeepsRecord(t *testing.T) {
	m := &fakeMailer{err: errors.New("connection refused")}
	n, task, u := setup(t, m)
	ctx := context.Background()

	rec, err := n.Notify(ctx, task, u, model.CategoryOverdue, "late", true)
	require.NoError(t, err)
	assert.False(t, rec.Delivered)

	// The record exists, so a later call neither resends nor fails.
	m.err = nil
	again, err := n.Notify(ctx, task, u, model.CategoryOverdue, "late", true)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)
	assert.False(t, again.Delivered)
	assert.Zero(t, m.count())
}

// markFailingStore loses every delivery acknowledgement.
type markFailingStore struct {
	store.Store
}

func (markFailingStore) MarkNotificationDelivered(context.Context, string, time.Time) error {
	return errors.New("disk I/O error")
}

func TestNotify_DeliveryMarkFailureIsAbsorbed(t *testing.T) {
	s := testutil.NewTestStore(t)
	u := testutil.MustCreateUser(t, s, "Bob", model.RoleMember)
	due, err := model.ParseDate("2025-03-01")
	require.NoError(t, err)
	task := testutil.MustCreateTask(t, s, "Write report", due, u.ID)

	m := &fakeMailer{}
	n := notify.New(markFailingStore{Store: s}, m)
	ctx := context.Background()

	rec, err := n.Notify(ctx, task, u, model.CategoryOverdue, "late", true)
	require.NoError(t, err)
	assert.False(t, rec.Delivered)
	assert.Equal(t, 1, m.count())

	stored, err := s.GetNotification(ctx, task.ID, u.ID, model.CategoryOverdue)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, stored.ID)
	assert.False(t, stored.Delivered)

	// The record exists, so the mail is not sent a second time.
	_, err = n.Notify(ctx, task, u, model.CategoryOverdue, "late", true)
	require.NoError(t, err)
	assert.Equal(t, 1, m.count())
}

func TestNotify_MailerPanicIsContained(t *testing.T) {
	n, task, u := setup(t, &fakeMailer{panic: true})

	rec, err := n.Notify(context.Background(), task, u, model.CategoryOverdue, "late", true)
	require.NoError(t, err)
	assert.False(t, rec.Delivered)
}

func TestNotify_NoEmailAddress(t *testing.T) {
	m := &fakeMailer{}
	n, task, u := setup(t, m)
	u.Email = ""

	rec, err := n.Notify(context.Background(), task, u, model.CategoryOverdue, "late", true)
	require.NoError(t, err)
	assert.False(t, rec.Delivered)
	assert.Zero(t, m.count())
}

func TestNotify_ConcurrentCallersShareOneRecord(t *testing.T) {
	m := &fakeMailer{}
	n, task, u := setup(t, m)
	ctx := context.Background()

	const callers = 8
	ids := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := n.Notify(ctx, task, u, model.CategoryOverdue, "late", true)
			errs[i] = err
			if rec != nil {
				ids[i] = rec.ID
			}
		}()
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, m.count())
}

func TestForUser(t *testing.T) {
	n, task, u := setup(t, &fakeMailer{})
	ctx := context.Background()

	_, err := n.Notify(ctx, task, u, model.CategoryUpcoming, "soon", false)
	require.NoError(t, err)

	list, err := n.ForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "soon", list[0].Message)

	_, err = n.ForUser(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
