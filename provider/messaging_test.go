package provider

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSMS struct {
	sent []string
	fail error
}

func (s *stubSMS) Initialize(creds CredentialSet, env Environment) error { return nil }

func (s *stubSMS) SendSMS(ctx context.Context, to, message string) (string, error) {
	if s.fail != nil {
		return "", s.fail
	}
	s.sent = append(s.sent, message)
	return "msg-1", nil
}

func newMessagingFixture(t *testing.T) (*Service, *stubSMS) {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)

	registry := NewRegistry()
	stub := &stubSMS{}
	require.NoError(t, registry.RegisterSMS("msg91", func() SMSProvider { return stub }))

	enc, err := NewEncryptor("test-encryption-key")
	require.NoError(t, err)
	credentials, err := NewCredentialStore(db, enc, registry)
	require.NoError(t, err)
	settings, err := NewSettingStore(db)
	require.NoError(t, err)
	orders, err := NewOrderStore(db)
	require.NoError(t, err)
	logs, err := NewPaymentLogStore(db)
	require.NoError(t, err)
	events, err := NewWebhookStore(db)
	require.NoError(t, err)
	otps, err := NewOTPStore(db, nil)
	require.NoError(t, err)

	require.NoError(t, credentials.Save(ctx, CategorySMS, "msg91", EnvSandbox, map[string]string{
		"authKey":  "auth-key-123",
		"senderId": "ECOMKT",
	}))
	require.NoError(t, settings.SetEnabled(ctx, CategorySMS, "msg91", true))

	return NewService(registry, credentials, settings, orders, logs, events, otps, nil), stub
}

func TestSendSMS(t *testing.T) {
	service, stub := newMessagingFixture(t)

	messageID, err := service.SendSMS(context.Background(), "+919876543210", "Your order shipped")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", messageID)
	require.Len(t, stub.sent, 1)
	assert.Equal(t, "Your order shipped", stub.sent[0])
}

func TestSendSMSNoProviderConfigured(t *testing.T) {
	service, _ := newMessagingFixture(t)
	ctx := context.Background()

	require.NoError(t, service.Settings().SetEnabled(ctx, CategorySMS, "msg91", false))

	_, err := service.SendSMS(ctx, "+919876543210", "hello")
	assert.ErrorIs(t, err, ErrCredentialsNotConfigured)
}

var otpCodePattern = regexp.MustCompile(`\d{6}`)

func TestSendOTPDeliversCodeOutOfBand(t *testing.T) {
	service, stub := newMessagingFixture(t)
	ctx := context.Background()

	referenceID, err := service.SendOTP(ctx, "+919876543210")
	require.NoError(t, err)
	require.NotEmpty(t, referenceID)

	// the code travels only inside the SMS text
	require.Len(t, stub.sent, 1)
	code := otpCodePattern.FindString(stub.sent[0])
	require.Len(t, code, 6)
	assert.NotContains(t, referenceID, code)

	assert.NoError(t, service.VerifyOTP(ctx, referenceID, code))
}

func TestSendOTPFailsWhenDeliveryFails(t *testing.T) {
	service, stub := newMessagingFixture(t)
	stub.fail = Unavailable("msg91", context.DeadlineExceeded)

	_, err := service.SendOTP(context.Background(), "+919876543210")
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	service, stub := newMessagingFixture(t)
	ctx := context.Background()

	referenceID, err := service.SendOTP(ctx, "+919876543210")
	require.NoError(t, err)

	code := otpCodePattern.FindString(stub.sent[0])
	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}

	err = service.VerifyOTP(ctx, referenceID, wrong)
	assert.ErrorIs(t, err, ErrOTPMismatch)
}
