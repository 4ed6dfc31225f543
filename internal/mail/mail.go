// Package mail provides the outbound Mailer implementations.
package mail

import (
	"fmt"
	"time"

	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/notify"
)

// PasswordLookup resolves the SMTP password when the config leaves it empty.
type PasswordLookup func(username string) (string, error)

// New builds the mailer selected by cfg.Backend. For SMTP without a
// configured password, lookup is deferred until the first Send.
func New(cfg model.MailConfig, lookup PasswordLookup) (notify.Mailer, error) {
	switch cfg.Backend {
	case model.MailBackendOutbox:
		return NewOutboxMailer(cfg.OutboxDir, cfg.Sender)
	case model.MailBackendSMTP:
		timeout := time.Duration(cfg.SMTP.TimeoutSec) * time.Second
		m := NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.Sender, timeout)
		if cfg.SMTP.Password == "" && cfg.SMTP.Username != "" {
			m.lookup = lookup
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown mail backend %q", cfg.Backend)
}
