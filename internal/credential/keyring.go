// Package credential keeps mail secrets in the operating system keyring so
// they never need to appear in the config file.
package credential

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
)

const serviceName = "taskreminders"

// smtpKeyPrefix namespaces SMTP passwords by account name.
const smtpKeyPrefix = "smtp-"

// ErrNotFound is returned when no secret is stored under a key.
var ErrNotFound = errors.New("credential not found")

// Vault reads and writes secrets for this application.
type Vault struct {
	ring keyring.Keyring
}

// Open returns a Vault over the first usable keyring backend. The
// encrypted-file fallback lives under dir.
func Open(dir string) (*Vault, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(dir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt(serviceName + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Vault{ring: ring}, nil
}

// NewVault wraps an already opened keyring, e.g. keyring.NewArrayKeyring
// in tests.
func NewVault(ring keyring.Keyring) *Vault {
	return &Vault{ring: ring}
}

// SMTPPassword returns the stored SMTP password for username.
func (v *Vault) SMTPPassword(username string) (string, error) {
	item, err := v.ring.Get(smtpKeyPrefix + username)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("smtp password for %q: %w", username, ErrNotFound)
		}
		return "", fmt.Errorf("getting smtp password for %q: %w", username, err)
	}
	return string(item.Data), nil
}

// SetSMTPPassword stores the SMTP password for username.
func (v *Vault) SetSMTPPassword(username, password string) error {
	err := v.ring.Set(keyring.Item{
		Key:         smtpKeyPrefix + username,
		Data:        []byte(password),
		Label:       "taskreminders SMTP " + username,
		Description: "SMTP password used to send task reminders",
	})
	if err != nil {
		return fmt.Errorf("setting smtp password for %q: %w", username, err)
	}
	return nil
}

// DeleteSMTPPassword removes the stored SMTP password for username.
func (v *Vault) DeleteSMTPPassword(username string) error {
	if err := v.ring.Remove(smtpKeyPrefix + username); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("smtp password for %q: %w", username, ErrNotFound)
		}
		return fmt.Errorf("deleting smtp password for %q: %w", username, err)
	}
	return nil
}
