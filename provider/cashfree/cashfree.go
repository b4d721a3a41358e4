package cashfree

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ecomkit/gateway/provider"
)

const (
	apiSandboxURL = "https://sandbox.cashfree.com/pg"
	apiLiveURL    = "https://api.cashfree.com/pg"
	apiVersion    = "2023-08-01"

	endpointOrders = "/orders"
	endpointOrder  = "/orders/%s"
	endpointRefund = "/orders/%s/refunds"

	headerSignature = "X-Webhook-Signature"
	headerTimestamp = "X-Webhook-Timestamp"

	// Cashfree webhook types
	webhookPaymentSuccess = "PAYMENT_SUCCESS_WEBHOOK"
	webhookPaymentFailed  = "PAYMENT_FAILED_WEBHOOK"
	webhookRefundSuccess  = "REFUND_STATUS_WEBHOOK"

	// Cashfree order statuses
	statusActive     = "ACTIVE"
	statusPaid       = "PAID"
	statusExpired    = "EXPIRED"
	statusTerminated = "TERMINATED"
)

// CashfreeProvider implements provider.PaymentProvider for Cashfree PG.
type CashfreeProvider struct {
	appID         string
	secretKey     string
	webhookSecret string
	environment   provider.Environment
	client        *provider.HTTPClient
}

// NewProvider creates a new Cashfree payment provider.
func NewProvider() provider.PaymentProvider {
	return &CashfreeProvider{}
}

// Initialize sets up the provider with authentication credentials. Cashfree
// signs webhooks with the API secret unless a dedicated webhook secret is
// configured.
func (p *CashfreeProvider) Initialize(creds provider.CredentialSet, env provider.Environment) error {
	p.appID = creds.Get("appId")
	p.secretKey = creds.Get("secretKey")
	p.webhookSecret = creds.Get("webhookSecret")
	p.environment = env

	if p.appID == "" || p.secretKey == "" {
		return fmt.Errorf("cashfree: appId and secretKey are required: %w", provider.ErrCredentialsNotConfigured)
	}
	if p.webhookSecret == "" {
		p.webhookSecret = p.secretKey
	}

	baseURL := apiSandboxURL
	if env == provider.EnvLive {
		baseURL = apiLiveURL
	}
	p.client = provider.NewHTTPClient(&provider.HTTPClientConfig{
		BaseURL: baseURL,
		DefaultHeaders: map[string]string{
			"x-client-id":     p.appID,
			"x-client-secret": p.secretKey,
			"x-api-version":   apiVersion,
		},
	})
	return nil
}

type customerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone"`
}

type orderRequest struct {
	OrderID         string          `json:"order_id"`
	OrderAmount     float64         `json:"order_amount"`
	OrderCurrency   string          `json:"order_currency"`
	CustomerDetails customerDetails `json:"customer_details"`
}

type orderResponse struct {
	CFOrderID        string  `json:"cf_order_id"`
	OrderID          string  `json:"order_id"`
	OrderAmount      float64 `json:"order_amount"`
	OrderCurrency    string  `json:"order_currency"`
	OrderStatus      string  `json:"order_status"`
	PaymentSessionID string  `json:"payment_session_id"`
}

type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

// CreateOrder registers the order with Cashfree. The returned
// payment_session_id is what the checkout SDK consumes.
func (p *CashfreeProvider) CreateOrder(ctx context.Context, order provider.Order) (*provider.PaymentIntentResult, error) {
	resp, err := p.client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpointOrders,
		Body: orderRequest{
			OrderID:       order.OrderNumber,
			OrderAmount:   order.Amount,
			OrderCurrency: order.Currency,
			CustomerDetails: customerDetails{
				CustomerID:    order.OrderNumber,
				CustomerEmail: order.CustomerEmail,
				CustomerPhone: order.CustomerPhone,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, p.wireError(resp)
	}

	var created orderResponse
	if err := p.client.ParseJSONResponse(resp, &created); err != nil {
		return nil, fmt.Errorf("cashfree: failed to parse order response: %w", err)
	}

	return &provider.PaymentIntentResult{
		PaymentID: created.OrderID,
		Status:    mapIntentStatus(created.OrderStatus),
		Metadata:  map[string]string{"payment_session_id": created.PaymentSessionID},
	}, nil
}

type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID     string  `json:"order_id"`
			OrderAmount float64 `json:"order_amount"`
		} `json:"order"`
		Payment struct {
			CFPaymentID   json.Number `json:"cf_payment_id"`
			PaymentStatus string      `json:"payment_status"`
		} `json:"payment"`
	} `json:"data"`
}

// VerifyWebhook checks base64(HMAC-SHA256(timestamp + body)) against the
// X-Webhook-Signature header.
func (p *CashfreeProvider) VerifyWebhook(ctx context.Context, body []byte, headers map[string]string) (bool, *provider.WebhookPaymentData, error) {
	signature := headers[headerSignature]
	timestamp := headers[headerTimestamp]
	if signature == "" || timestamp == "" {
		return false, nil, nil
	}

	mac := hmac.New(sha256.New, []byte(p.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return false, nil, nil
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return false, nil, nil
	}
	if payload.Data.Order.OrderID == "" {
		return false, nil, nil
	}

	return true, &provider.WebhookPaymentData{
		PaymentID:   payload.Data.Order.OrderID,
		OrderNumber: payload.Data.Order.OrderID,
		Status:      mapWebhookStatus(payload.Type),
		Amount:      payload.Data.Order.OrderAmount,
		Event:       payload.Type,
	}, nil
}

// Capture is not applicable: Cashfree captures on payment success.
func (p *CashfreeProvider) Capture(ctx context.Context, paymentID string, amount float64) (*provider.CaptureResult, error) {
	return nil, fmt.Errorf("cashfree: capture is not supported, payments auto-capture on success")
}

type refundRequest struct {
	RefundAmount float64 `json:"refund_amount"`
	RefundID     string  `json:"refund_id"`
	RefundNote   string  `json:"refund_note,omitempty"`
}

type refundResponse struct {
	RefundID     string  `json:"refund_id"`
	RefundAmount float64 `json:"refund_amount"`
	RefundStatus string  `json:"refund_status"`
}

// Refund refunds a paid Cashfree order.
func (p *CashfreeProvider) Refund(ctx context.Context, req provider.RefundRequest) (*provider.RefundResult, error) {
	resp, err := p.client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: fmt.Sprintf(endpointRefund, req.PaymentID),
		Body: refundRequest{
			RefundAmount: req.Amount,
			RefundID:     fmt.Sprintf("rf_%s", req.PaymentID),
			RefundNote:   req.Reason,
		},
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, p.wireError(resp)
	}

	var refund refundResponse
	if err := p.client.ParseJSONResponse(resp, &refund); err != nil {
		return nil, fmt.Errorf("cashfree: failed to parse refund response: %w", err)
	}
	return &provider.RefundResult{
		RefundID: refund.RefundID,
		Status:   refund.RefundStatus,
		Amount:   refund.RefundAmount,
	}, nil
}

// FetchStatus retrieves the order status from Cashfree.
func (p *CashfreeProvider) FetchStatus(ctx context.Context, paymentID string) (*provider.StatusResult, error) {
	resp, err := p.client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodGet,
		Endpoint: fmt.Sprintf(endpointOrder, paymentID),
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, p.wireError(resp)
	}

	var order orderResponse
	if err := p.client.ParseJSONResponse(resp, &order); err != nil {
		return nil, fmt.Errorf("cashfree: failed to parse order response: %w", err)
	}
	return &provider.StatusResult{
		Status:   mapOrderStatus(order.OrderStatus),
		Amount:   order.OrderAmount,
		Currency: order.OrderCurrency,
	}, nil
}

func (p *CashfreeProvider) wireError(resp *provider.HTTPResponse) error {
	var apiErr errorResponse
	if err := json.Unmarshal(resp.Body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("cashfree: %s (%s)", apiErr.Message, apiErr.Code)
	}
	return fmt.Errorf("cashfree: unexpected HTTP %d", resp.StatusCode)
}

func mapIntentStatus(status string) provider.IntentStatus {
	switch status {
	case statusActive:
		return provider.IntentCreated
	case statusPaid:
		return provider.IntentCaptured
	case statusExpired, statusTerminated:
		return provider.IntentFailed
	default:
		return provider.IntentPending
	}
}

func mapOrderStatus(status string) provider.PaymentStatus {
	switch status {
	case statusPaid:
		return provider.StatusPaid
	case statusExpired, statusTerminated:
		return provider.StatusFailed
	default:
		return provider.StatusPending
	}
}

func mapWebhookStatus(webhookType string) provider.PaymentStatus {
	switch webhookType {
	case webhookPaymentSuccess:
		return provider.StatusPaid
	case webhookPaymentFailed:
		return provider.StatusFailed
	case webhookRefundSuccess:
		return provider.StatusRefunded
	default:
		return provider.StatusPending
	}
}
