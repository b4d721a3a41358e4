package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/ecomkit/gateway/provider"
)

const (
	apiBaseURL = "https://api.razorpay.com/v1"

	endpointOrders  = "/orders"
	endpointPayment = "/payments/%s"
	endpointCapture = "/payments/%s/capture"
	endpointRefund  = "/payments/%s/refund"

	headerSignature = "X-Razorpay-Signature"

	// Razorpay wire statuses
	statusCreated    = "created"
	statusAuthorized = "authorized"
	statusCaptured   = "captured"
	statusRefunded   = "refunded"
	statusFailed     = "failed"
)

// RazorpayProvider implements provider.PaymentProvider for Razorpay.
// Sandbox and live share one API host; test keys select test mode.
type RazorpayProvider struct {
	keyID         string
	keySecret     string
	webhookSecret string
	environment   provider.Environment
	client        *provider.HTTPClient
}

// NewProvider creates a new Razorpay payment provider.
func NewProvider() provider.PaymentProvider {
	return &RazorpayProvider{}
}

// Initialize sets up the provider with authentication credentials.
func (p *RazorpayProvider) Initialize(creds provider.CredentialSet, env provider.Environment) error {
	p.keyID = creds.Get("keyId")
	p.keySecret = creds.Get("keySecret")
	p.webhookSecret = creds.Get("webhookSecret")
	p.environment = env

	if p.keyID == "" || p.keySecret == "" {
		return fmt.Errorf("razorpay: keyId and keySecret are required: %w", provider.ErrCredentialsNotConfigured)
	}

	p.client = provider.NewHTTPClient(&provider.HTTPClientConfig{
		BaseURL: apiBaseURL,
		DefaultHeaders: map[string]string{
			"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(p.keyID+":"+p.keySecret)),
		},
	})
	return nil
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Receipt  string `json:"receipt"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder registers a Razorpay order. Amounts go over the wire in the
// currency's smallest unit.
func (p *RazorpayProvider) CreateOrder(ctx context.Context, order provider.Order) (*provider.PaymentIntentResult, error) {
	resp, err := p.client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpointOrders,
		Body: orderRequest{
			Amount:   toMinorUnits(order.Amount),
			Currency: order.Currency,
			Receipt:  order.OrderNumber,
			Notes:    map[string]string{"order_number": order.OrderNumber},
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
		return nil, fmt.Errorf("razorpay: failed to parse order response: %w", err)
	}

	return &provider.PaymentIntentResult{
		PaymentID: created.ID,
		Status:    mapIntentStatus(created.Status),
	}, nil
}

type webhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string            `json:"id"`
				OrderID string            `json:"order_id"`
				Amount  int64             `json:"amount"`
				Status  string            `json:"status"`
				Notes   map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// VerifyWebhook checks the HMAC-SHA256 signature Razorpay sends in
// X-Razorpay-Signature over the raw body.
func (p *RazorpayProvider) VerifyWebhook(ctx context.Context, body []byte, headers map[string]string) (bool, *provider.WebhookPaymentData, error) {
	if p.webhookSecret == "" {
		return false, nil, fmt.Errorf("razorpay: webhookSecret is required for webhook verification: %w", provider.ErrCredentialsNotConfigured)
	}

	signature := headers[headerSignature]
	if signature == "" {
		return false, nil, nil
	}

	mac := hmac.New(sha256.New, []byte(p.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return false, nil, nil
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return false, nil, nil
	}
	entity := payload.Payload.Payment.Entity
	if entity.ID == "" {
		return false, nil, nil
	}

	return true, &provider.WebhookPaymentData{
		PaymentID:   entity.OrderID,
		OrderNumber: entity.Notes["order_number"],
		Status:      mapPaymentStatus(entity.Status),
		Amount:      fromMinorUnits(entity.Amount),
		Event:       payload.Event,
	}, nil
}

type captureRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type paymentResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// Capture captures an authorized payment.
func (p *RazorpayProvider) Capture(ctx context.Context, paymentID string, amount float64) (*provider.CaptureResult, error) {
	resp, err := p.client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: fmt.Sprintf(endpointCapture, paymentID),
		Body:     captureRequest{Amount: toMinorUnits(amount), Currency: "INR"},
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, p.wireError(resp)
	}

	var payment paymentResponse
	if err := p.client.ParseJSONResponse(resp, &payment); err != nil {
		return nil, fmt.Errorf("razorpay: failed to parse capture response: %w", err)
	}
	return &provider.CaptureResult{
		Status:        mapIntentStatus(payment.Status),
		TransactionID: payment.ID,
	}, nil
}

type refundRequest struct {
	Amount int64             `json:"amount,omitempty"`
	Notes  map[string]string `json:"notes,omitempty"`
}

type refundResponse struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// Refund refunds a captured payment; a zero amount refunds in full.
func (p *RazorpayProvider) Refund(ctx context.Context, req provider.RefundRequest) (*provider.RefundResult, error) {
	body := refundRequest{}
	if req.Amount > 0 {
		body.Amount = toMinorUnits(req.Amount)
	}
	if req.Reason != "" {
		body.Notes = map[string]string{"reason": req.Reason}
	}

	resp, err := p.client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: fmt.Sprintf(endpointRefund, req.PaymentID),
		Body:     body,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, p.wireError(resp)
	}

	var refund refundResponse
	if err := p.client.ParseJSONResponse(resp, &refund); err != nil {
		return nil, fmt.Errorf("razorpay: failed to parse refund response: %w", err)
	}
	return &provider.RefundResult{
		RefundID: refund.ID,
		Status:   refund.Status,
		Amount:   fromMinorUnits(refund.Amount),
	}, nil
}

// FetchStatus retrieves the payment status from Razorpay.
func (p *RazorpayProvider) FetchStatus(ctx context.Context, paymentID string) (*provider.StatusResult, error) {
	resp, err := p.client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodGet,
		Endpoint: fmt.Sprintf(endpointPayment, paymentID),
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, p.wireError(resp)
	}

	var payment paymentResponse
	if err := p.client.ParseJSONResponse(resp, &payment); err != nil {
		return nil, fmt.Errorf("razorpay: failed to parse payment response: %w", err)
	}
	return &provider.StatusResult{
		Status:   mapPaymentStatus(payment.Status),
		Amount:   fromMinorUnits(payment.Amount),
		Currency: payment.Currency,
	}, nil
}

func (p *RazorpayProvider) wireError(resp *provider.HTTPResponse) error {
	var apiErr errorResponse
	if err := json.Unmarshal(resp.Body, &apiErr); err == nil && apiErr.Error.Code != "" {
		return fmt.Errorf("razorpay: %s (%s)", apiErr.Error.Description, apiErr.Error.Code)
	}
	return fmt.Errorf("razorpay: unexpected HTTP %d", resp.StatusCode)
}

func mapIntentStatus(status string) provider.IntentStatus {
	switch status {
	case statusCreated:
		return provider.IntentCreated
	case statusAuthorized:
		return provider.IntentAuthorized
	case statusCaptured:
		return provider.IntentCaptured
	case statusFailed:
		return provider.IntentFailed
	default:
		return provider.IntentPending
	}
}

func mapPaymentStatus(status string) provider.PaymentStatus {
	switch status {
	case statusCaptured:
		return provider.StatusPaid
	case statusRefunded:
		return provider.StatusRefunded
	case statusFailed:
		return provider.StatusFailed
	default:
		return provider.StatusPending
	}
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
