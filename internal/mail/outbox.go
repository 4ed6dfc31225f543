package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// OutboxMailer writes each message as an RFC 5322 .eml file into a
// directory instead of sending it. Useful for development and for
// environments where another process drains the spool.
type OutboxMailer struct {
	dir    string
	sender string
	now    func() time.Time
}

// NewOutboxMailer creates the outbox directory if needed.
func NewOutboxMailer(dir, sender string) (*OutboxMailer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating outbox %s: %w", dir, err)
	}
	return &OutboxMailer{dir: dir, sender: sender, now: time.Now}, nil
}

// Dir returns the spool directory.
func (m *OutboxMailer) Dir() string {
	return m.dir
}

// Send composes the message and writes it atomically to the outbox.
func (m *OutboxMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from, err := mail.ParseAddress(m.sender)
	if err != nil {
		return fmt.Errorf("parsing sender %q: %w", m.sender, err)
	}
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("parsing recipient %q: %w", to, err)
	}

	var h mail.Header
	h.SetDate(m.now())
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{rcpt})
	h.SetSubject(subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return fmt.Errorf("generating message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing message writer: %w", err)
	}

	name := fmt.Sprintf("%s-%s.eml", m.now().UTC().Format("20060102T150405"), uuid.New().String())
	tmp := filepath.Join(m.dir, "."+name+".tmp")
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing outbox message: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(m.dir, name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publishing outbox message: %w", err)
	}
	return nil
}
