package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptorRoundTrip(t *testing.T) {
	enc, err := NewEncryptor("test-encryption-key")
	require.NoError(t, err)

	plaintext := "sk_test_4eC39HqLyjWDarjtT1zdp7dc"
	ciphertext, err := enc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptorRandomNonce(t *testing.T) {
	enc, err := NewEncryptor("test-encryption-key")
	require.NoError(t, err)

	first, err := enc.Encrypt("same-value")
	require.NoError(t, err)
	second, err := enc.Encrypt("same-value")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "repeated encryption must not produce identical ciphertext")
}

func TestEncryptorRejectsTamperedCiphertext(t *testing.T) {
	enc, err := NewEncryptor("test-encryption-key")
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("secret-value")
	require.NoError(t, err)

	tampered := []byte(ciphertext)
	tampered[len(tampered)-1] ^= 1

	_, err = enc.Decrypt(string(tampered))
	assert.Error(t, err)
}

func TestEncryptorRejectsWrongKey(t *testing.T) {
	enc, err := NewEncryptor("key-one")
	require.NoError(t, err)
	other, err := NewEncryptor("key-two")
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("secret-value")
	require.NoError(t, err)

	_, err = other.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestNewEncryptorRequiresSecret(t *testing.T) {
	_, err := NewEncryptor("")
	assert.Error(t, err)
}
