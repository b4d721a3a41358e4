package provider

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomkit/gateway/infra/conn"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := conn.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newCredentialStore(t *testing.T) *CredentialStore {
	t.Helper()
	enc, err := NewEncryptor("test-encryption-key")
	require.NoError(t, err)
	store, err := NewCredentialStore(newTestDB(t), enc, NewRegistry())
	require.NoError(t, err)
	return store
}

func razorpayFields() map[string]string {
	return map[string]string{
		"keyId":         "rzp_test_abc123",
		"keySecret":     "secret_value_xyz",
		"webhookSecret": "whsec_value_123",
	}
}

func TestCredentialSaveAndResolve(t *testing.T) {
	store := newCredentialStore(t)
	ctx := context.Background()

	err := store.Save(ctx, CategoryPayment, "razorpay", EnvSandbox, razorpayFields())
	require.NoError(t, err)

	creds, err := store.Resolve(ctx, CategoryPayment, "razorpay", EnvSandbox)
	require.NoError(t, err)
	assert.Equal(t, "rzp_test_abc123", creds.Get("keyId"))
	assert.Equal(t, "secret_value_xyz", creds.Get("keySecret"))
	assert.Equal(t, "whsec_value_123", creds.Get("webhookSecret"))
}

func TestCredentialSecretsEncryptedAtRest(t *testing.T) {
	enc, err := NewEncryptor("test-encryption-key")
	require.NoError(t, err)
	db := newTestDB(t)
	store, err := NewCredentialStore(db, enc, NewRegistry())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, CategoryPayment, "razorpay", EnvSandbox, razorpayFields()))

	var payload string
	err = db.QueryRow(`SELECT fields FROM provider_credentials WHERE provider_key = 'razorpay'`).Scan(&payload)
	require.NoError(t, err)

	// non-secret key id is stored as-is, secrets never are
	assert.Contains(t, payload, "rzp_test_abc123")
	assert.NotContains(t, payload, "secret_value_xyz")
	assert.NotContains(t, payload, "whsec_value_123")
}

func TestCredentialMasked(t *testing.T) {
	store := newCredentialStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, CategoryPayment, "razorpay", EnvSandbox, razorpayFields()))

	masked, err := store.Masked(ctx, CategoryPayment, "razorpay", EnvSandbox)
	require.NoError(t, err)
	assert.Equal(t, "rzp_test_abc123", masked["keyId"])
	assert.Equal(t, "****_xyz", masked["keySecret"])
	assert.NotContains(t, masked["webhookSecret"], "whsec_value")
}

func TestCredentialSaveRejectsUnknownProvider(t *testing.T) {
	store := newCredentialStore(t)

	err := store.Save(context.Background(), CategoryPayment, "nonexistent", EnvSandbox, map[string]string{})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestCredentialSaveRejectsUnknownField(t *testing.T) {
	store := newCredentialStore(t)

	fields := razorpayFields()
	fields["mystery"] = "value"
	err := store.Save(context.Background(), CategoryPayment, "razorpay", EnvSandbox, fields)
	assert.Error(t, err)
}

func TestCredentialSaveRejectsMissingRequired(t *testing.T) {
	store := newCredentialStore(t)

	err := store.Save(context.Background(), CategoryPayment, "razorpay", EnvSandbox, map[string]string{
		"keyId": "rzp_test_abc123",
	})
	assert.Error(t, err)
}

func TestCredentialResolveNotConfigured(t *testing.T) {
	store := newCredentialStore(t)

	_, err := store.Resolve(context.Background(), CategoryPayment, "razorpay", EnvSandbox)
	assert.ErrorIs(t, err, ErrCredentialsNotConfigured)
}

func TestCredentialEnvironmentsAreIsolated(t *testing.T) {
	store := newCredentialStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, CategoryPayment, "razorpay", EnvSandbox, razorpayFields()))

	_, err := store.Resolve(ctx, CategoryPayment, "razorpay", EnvLive)
	assert.ErrorIs(t, err, ErrCredentialsNotConfigured)

	configured, err := store.IsConfigured(ctx, CategoryPayment, "razorpay", EnvSandbox)
	require.NoError(t, err)
	assert.True(t, configured)

	configured, err = store.IsConfigured(ctx, CategoryPayment, "razorpay", EnvLive)
	require.NoError(t, err)
	assert.False(t, configured)
}

func TestCredentialDelete(t *testing.T) {
	store := newCredentialStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, CategoryPayment, "razorpay", EnvSandbox, razorpayFields()))
	require.NoError(t, store.Delete(ctx, CategoryPayment, "razorpay", EnvSandbox))

	err := store.Delete(ctx, CategoryPayment, "razorpay", EnvSandbox)
	assert.ErrorIs(t, err, ErrCredentialsNotConfigured)
}
