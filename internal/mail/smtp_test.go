package mail

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/task-reminders/internal/model"
)

// closedPort returns a local port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func smtpConfig(port int) model.MailConfig {
	return model.MailConfig{
		Backend: model.MailBackendSMTP,
		Sender:  "reminders@example.com",
		SMTP: model.SMTPConfig{
			Host:       "127.0.0.1",
			Port:       port,
			Username:   "bot",
			TimeoutSec: 2,
		},
	}
}

func TestNew_Backends(t *testing.T) {
	m, err := New(model.MailConfig{Backend: model.MailBackendOutbox, OutboxDir: t.TempDir(), Sender: "a@example.com"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &OutboxMailer{}, m)

	m, err = New(smtpConfig(587), nil)
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)

	_, err = New(model.MailConfig{Backend: "pigeon"}, nil)
	assert.Error(t, err)
}

func TestNew_SMTPDefersPasswordLookup(t *testing.T) {
	calls := 0
	m, err := New(smtpConfig(587), func(string) (string, error) {
		calls++
		return "", errors.New("no password stored")
	})
	require.NoError(t, err)
	assert.Zero(t, calls)
	assert.Equal(t, 2*time.Second, m.(*SMTPMailer).dialer.Timeout)
}

func TestSMTPMailer_LookupFailure(t *testing.T) {
	calls := 0
	m, err := New(smtpConfig(closedPort(t)), func(username string) (string, error) {
		calls++
		assert.Equal(t, "bot", username)
		return "", errors.New("no password stored")
	})
	require.NoError(t, err)

	err = m.Send(context.Background(), "bob@example.com", "s", "b")
	assert.ErrorContains(t, err, "loading smtp password for bot")

	// A failed lookup is attempted again on the next send.
	_ = m.Send(context.Background(), "bob@example.com", "s", "b")
	assert.Equal(t, 2, calls)
}

func TestSMTPMailer_DialFailure(t *testing.T) {
	calls := 0
	m, err := New(smtpConfig(closedPort(t)), func(string) (string, error) {
		calls++
		return "secret", nil
	})
	require.NoError(t, err)

	err = m.Send(context.Background(), "bob@example.com", "Task Reminder: Late", "late")
	assert.ErrorContains(t, err, "sending mail to bob@example.com via 127.0.0.1")

	smtp := m.(*SMTPMailer)
	assert.Equal(t, "secret", smtp.dialer.Password)

	_ = m.Send(context.Background(), "bob@example.com", "s", "b")
	assert.Equal(t, 1, calls)
}

func TestSMTPMailer_ConfiguredPasswordSkipsLookup(t *testing.T) {
	cfg := smtpConfig(closedPort(t))
	cfg.SMTP.Password = "inline"
	m, err := New(cfg, func(string) (string, error) {
		t.Fatal("lookup must not be called")
		return "", nil
	})
	require.NoError(t, err)

	assert.Error(t, m.Send(context.Background(), "bob@example.com", "s", "b"))
	assert.Equal(t, "inline", m.(*SMTPMailer).dialer.Password)
}

func TestSMTPMailer_CancelledContext(t *testing.T) {
	m := NewSMTPMailer("127.0.0.1", closedPort(t), "", "", "reminders@example.com", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, "bob@example.com", "s", "b"), context.Canceled)
}
