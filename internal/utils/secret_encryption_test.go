package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestSecretCipherRoundTrip(t *testing.T) {
	c, err := NewSecretCipher(testKey)
	require.NoError(t, err)

	enc, err := c.Encrypt("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", enc)

	again, err := c.Encrypt("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, enc, again, "nonce must differ between calls")

	dec, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", dec)
}

func TestSecretCipherEmpty(t *testing.T) {
	c, err := NewSecretCipher(testKey)
	require.NoError(t, err)

	enc, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, enc)

	dec, err := c.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, dec)
}

func TestSecretCipherFailures(t *testing.T) {
	_, err := NewSecretCipher("short")
	assert.Error(t, err)

	c, err := NewSecretCipher(testKey)
	require.NoError(t, err)

	_, err = c.Decrypt("%%%")
	assert.Error(t, err)

	_, err = c.Decrypt("AAAA")
	assert.ErrorIs(t, err, ErrCiphertextTooShort)

	other, err := NewSecretCipher("fedcba9876543210fedcba9876543210")
	require.NoError(t, err)
	enc, err := other.Encrypt("x")
	require.NoError(t, err)
	_, err = c.Decrypt(enc)
	assert.Error(t, err)
}
