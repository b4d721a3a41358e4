package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomkit/gateway/infra/conn"
	"github.com/ecomkit/gateway/infra/response"
	"github.com/ecomkit/gateway/provider"
)

// scriptedPayment is a payment adapter whose behavior the tests control.
type scriptedPayment struct {
	verifyOK   bool
	verifyData *provider.WebhookPaymentData
	session    *provider.PaymentIntentResult
}

func (p *scriptedPayment) Initialize(creds provider.CredentialSet, env provider.Environment) error {
	return nil
}

func (p *scriptedPayment) CreateOrder(ctx context.Context, order provider.Order) (*provider.PaymentIntentResult, error) {
	return p.session, nil
}

func (p *scriptedPayment) VerifyWebhook(ctx context.Context, body []byte, headers map[string]string) (bool, *provider.WebhookPaymentData, error) {
	return p.verifyOK, p.verifyData, nil
}

func (p *scriptedPayment) Capture(ctx context.Context, paymentID string, amount float64) (*provider.CaptureResult, error) {
	return &provider.CaptureResult{TransactionID: paymentID, Status: provider.IntentCaptured}, nil
}

func (p *scriptedPayment) Refund(ctx context.Context, req provider.RefundRequest) (*provider.RefundResult, error) {
	return &provider.RefundResult{RefundID: "rfnd_1", Status: "processed", Amount: req.Amount}, nil
}

func (p *scriptedPayment) FetchStatus(ctx context.Context, paymentID string) (*provider.StatusResult, error) {
	return &provider.StatusResult{Status: provider.StatusPaid, Amount: 100, Currency: "INR"}, nil
}

type handlerFixture struct {
	service *provider.Service
	adapter *scriptedPayment
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	ctx := context.Background()

	db, err := conn.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := provider.NewRegistry()
	adapter := &scriptedPayment{}
	require.NoError(t, registry.RegisterPayment("razorpay", func() provider.PaymentProvider { return adapter }))

	enc, err := provider.NewEncryptor("test-encryption-key")
	require.NoError(t, err)
	credentials, err := provider.NewCredentialStore(db, enc, registry)
	require.NoError(t, err)
	settings, err := provider.NewSettingStore(db)
	require.NoError(t, err)
	orders, err := provider.NewOrderStore(db)
	require.NoError(t, err)
	logs, err := provider.NewPaymentLogStore(db)
	require.NoError(t, err)
	events, err := provider.NewWebhookStore(db)
	require.NoError(t, err)
	otps, err := provider.NewOTPStore(db, nil)
	require.NoError(t, err)

	require.NoError(t, credentials.Save(ctx, provider.CategoryPayment, "razorpay", provider.EnvSandbox, map[string]string{
		"keyId":     "rzp_test_abc123",
		"keySecret": "secret_value_xyz",
	}))
	require.NoError(t, settings.SetEnabled(ctx, provider.CategoryPayment, "razorpay", true))

	return &handlerFixture{
		service: provider.NewService(registry, credentials, settings, orders, logs, events, otps, nil),
		adapter: adapter,
	}
}

func newWebhookRouter(service *provider.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/webhooks/{provider}", NewWebhookHandler(service).Receive)
	return r
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWebhookUnknownProvider(t *testing.T) {
	f := newHandlerFixture(t)
	router := newWebhookRouter(f.service)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/foo", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Unknown provider", resp.Message)

	// the delivery still left a failed event behind
	events, err := f.service.Webhooks().Recent(context.Background(), "foo", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, provider.ProcessingFailed, events[0].ProcessingStatus)
}

func TestWebhookRejectedSignature(t *testing.T) {
	f := newHandlerFixture(t)
	f.adapter.verifyOK = false
	router := newWebhookRouter(f.service)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("X-Razorpay-Signature", "bogus")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "Webhook signature invalid", resp.Message)
}

func TestWebhookProcessed(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.Orders().Upsert(ctx, provider.Order{
		OrderNumber: "ORD-1", Amount: 100, Currency: "INR", TransactionID: "pay_aaa",
	}))
	f.adapter.verifyOK = true
	f.adapter.verifyData = &provider.WebhookPaymentData{
		PaymentID: "pay_aaa", Status: provider.StatusPaid, Event: "payment.captured",
	}
	router := newWebhookRouter(f.service)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewReader([]byte(`{"event":"payment.captured"}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	order, err := f.service.Orders().Get(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, provider.StatusPaid, order.PaymentStatus)
}

func TestWebhookHeadersRecorded(t *testing.T) {
	f := newHandlerFixture(t)
	f.adapter.verifyOK = true
	f.adapter.verifyData = &provider.WebhookPaymentData{Event: "ping"}
	router := newWebhookRouter(f.service)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("X-Razorpay-Signature", "sig-value")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	events, err := f.service.Webhooks().Recent(context.Background(), "razorpay", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)

	event, err := f.service.Webhooks().Get(context.Background(), events[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "sig-value", event.Headers["X-Razorpay-Signature"])
}
