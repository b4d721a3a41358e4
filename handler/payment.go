package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecomkit/gateway/infra/response"
	"github.com/ecomkit/gateway/provider"
)

// PaymentHandler serves the checkout-facing payment operations.
type PaymentHandler struct {
	service *provider.Service
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service *provider.Service) *PaymentHandler {
	return &PaymentHandler{service: service}
}

type createPaymentRequest struct {
	Provider      string  `json:"provider,omitempty"`
	OrderNumber   string  `json:"orderNumber" validate:"required"`
	Amount        float64 `json:"amount" validate:"gt=0"`
	Currency      string  `json:"currency" validate:"required,len=3"`
	CustomerEmail string  `json:"customerEmail,omitempty" validate:"omitempty,email"`
	CustomerPhone string  `json:"customerPhone,omitempty"`
}

// CreatePayment handles POST /v1/payments.
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := provider.ValidateStruct(req); err != nil {
		writeError(w, err)
		return
	}

	session, err := h.service.CreatePayment(r.Context(), req.Provider, provider.Order{
		OrderNumber:   req.OrderNumber,
		Amount:        req.Amount,
		Currency:      req.Currency,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, "Payment created", session)
}

type verifyPaymentRequest struct {
	Provider    string `json:"provider,omitempty"`
	PaymentID   string `json:"paymentId" validate:"required"`
	OrderNumber string `json:"orderNumber" validate:"required"`
}

// Verify handles POST /v1/payments/verify. The checkout client reports a
// completed payment; the order moves only on the vendor-confirmed status.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := provider.ValidateStruct(req); err != nil {
		writeError(w, err)
		return
	}

	order, err := h.service.VerifyPayment(r.Context(), req.Provider, req.PaymentID, req.OrderNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Payment verified", order)
}

// Refund handles POST /v1/payments/refund.
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req provider.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.service.Refund(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Refund initiated", result)
}

type captureRequest struct {
	Provider  string  `json:"provider,omitempty"`
	PaymentID string  `json:"paymentId" validate:"required"`
	Amount    float64 `json:"amount,omitempty" validate:"gte=0"`
}

// Capture handles POST /v1/payments/capture.
func (h *PaymentHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := provider.ValidateStruct(req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Capture(r.Context(), req.Provider, req.PaymentID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Payment captured", result)
}

// Status handles GET /v1/payments/{paymentId}/status.
func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentId")
	if paymentID == "" {
		response.Error(w, http.StatusBadRequest, "paymentId is required", nil)
		return
	}

	result, err := h.service.FetchPaymentStatus(r.Context(), r.URL.Query().Get("provider"), paymentID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Payment status", result)
}

// OrderStatus handles GET /v1/orders/{orderNumber}/payment.
func (h *PaymentHandler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")
	order, err := h.service.Orders().Get(r.Context(), orderNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Order payment state", order)
}

// OrderLogs handles GET /v1/orders/{orderNumber}/payment/logs.
func (h *PaymentHandler) OrderLogs(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")
	logs, err := h.service.PaymentLogs().ByOrder(r.Context(), orderNumber, 50)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Payment logs", logs)
}
