package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomkit/gateway/provider"
)

func newPaymentRouter(service *provider.Service) http.Handler {
	h := NewPaymentHandler(service)
	r := chi.NewRouter()
	r.Post("/v1/payments", h.CreatePayment)
	r.Post("/v1/payments/refund", h.Refund)
	r.Get("/v1/orders/{orderNumber}/payment", h.OrderStatus)
	return r
}

func TestCreatePaymentHandler(t *testing.T) {
	f := newHandlerFixture(t)
	f.adapter.session = &provider.PaymentIntentResult{
		PaymentID: "order_R123",
		Status:    provider.IntentCreated,
	}
	router := newPaymentRouter(f.service)

	payload := `{"orderNumber":"ORD-1","amount":499.5,"currency":"INR","customerEmail":"buyer@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/payments", bytes.NewReader([]byte(payload)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	session, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "razorpay", session["provider"])
	assert.Equal(t, "order_R123", session["paymentId"])
}

func TestCreatePaymentHandlerValidation(t *testing.T) {
	f := newHandlerFixture(t)
	router := newPaymentRouter(f.service)

	tests := []struct {
		name    string
		payload string
	}{
		{name: "malformed json", payload: `{"orderNumber":`},
		{name: "missing order number", payload: `{"amount":100,"currency":"INR"}`},
		{name: "zero amount", payload: `{"orderNumber":"ORD-1","amount":0,"currency":"INR"}`},
		{name: "bad currency length", payload: `{"orderNumber":"ORD-1","amount":100,"currency":"RUPEES"}`},
		{name: "bad email", payload: `{"orderNumber":"ORD-1","amount":100,"currency":"INR","customerEmail":"nope"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/payments", bytes.NewReader([]byte(tt.payload)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreatePaymentHandlerUnknownProvider(t *testing.T) {
	f := newHandlerFixture(t)
	router := newPaymentRouter(f.service)

	payload := `{"provider":"nonexistent","orderNumber":"ORD-1","amount":100,"currency":"INR"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/payments", bytes.NewReader([]byte(payload)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "Unknown provider", resp.Message)
}

func TestRefundHandlerOverAmount(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.Orders().Upsert(ctx, provider.Order{
		OrderNumber: "ORD-1", Amount: 100, Currency: "INR",
		PaymentStatus: provider.StatusPaid, TransactionID: "pay_aaa",
	}))
	router := newPaymentRouter(f.service)

	payload := `{"paymentId":"pay_aaa","amount":150}`
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/refund", bytes.NewReader([]byte(payload)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "Invalid order state", resp.Message)
}

func TestOrderStatusHandler(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.Orders().Upsert(ctx, provider.Order{
		OrderNumber: "ORD-1", Amount: 100, Currency: "INR",
		PaymentStatus: provider.StatusPaid, TransactionID: "pay_aaa",
	}))
	router := newPaymentRouter(f.service)

	req := httptest.NewRequest(http.MethodGet, "/v1/orders/ORD-1/payment", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	order, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "paid", order["paymentStatus"])

	req = httptest.NewRequest(http.MethodGet, "/v1/orders/ORD-404/payment", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
