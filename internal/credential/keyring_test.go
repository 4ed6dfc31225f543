package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultSMTPPasswordRoundTrip(t *testing.T) {
	v := NewVault(keyring.NewArrayKeyring(nil))

	_, err := v.SMTPPassword("ops")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, v.SetSMTPPassword("ops", "s3cret"))

	got, err := v.SMTPPassword("ops")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	require.NoError(t, v.DeleteSMTPPassword("ops"))
	_, err = v.SMTPPassword("ops")
	assert.ErrorIs(t, err, ErrNotFound)
}
