package mail

import (
	"context"
	"fmt"
	"sync"
	"time"

	gomail "github.com/go-mail/mail/v2"
)

// SMTPMailer sends plain-text messages through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	sender string

	mu     sync.Mutex
	lookup PasswordLookup // pending until the first successful resolve
}

// NewSMTPMailer creates a mailer for host:port authenticating as username.
// A zero timeout keeps the dialer's default.
func NewSMTPMailer(host string, port int, username, password, sender string, timeout time.Duration) *SMTPMailer {
	d := gomail.NewDialer(host, port, username, password)
	if timeout > 0 {
		d.Timeout = timeout
	}
	return &SMTPMailer{
		dialer: d,
		sender: sender,
	}
}

// Send delivers one message. The context is checked before dialing; the
// dialer's timeout bounds the exchange itself.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.resolvePassword(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending mail to %s via %s: %w", to, m.dialer.Host, err)
	}
	return nil
}

// resolvePassword runs the deferred password lookup once it succeeds.
// A failed lookup is retried on the next Send.
func (m *SMTPMailer) resolvePassword() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lookup == nil {
		return nil
	}
	p, err := m.lookup(m.dialer.Username)
	if err != nil {
		return fmt.Errorf("loading smtp password for %s: %w", m.dialer.Username, err)
	}
	m.dialer.Password = p
	m.lookup = nil
	return nil
}
