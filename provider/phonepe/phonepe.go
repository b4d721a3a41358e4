package phonepe

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/ecomkit/gateway/provider"
)

const (
	apiSandboxURL = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	apiLiveURL    = "https://api.phonepe.com/apis/hermes"

	endpointPay    = "/pg/v1/pay"
	endpointStatus = "/pg/v1/status/%s/%s"
	endpointRefund = "/pg/v1/refund"

	headerVerify = "X-Verify"

	// PhonePe transaction states
	stateCompleted = "COMPLETED"
	stateFailed    = "FAILED"
	statePending   = "PENDING"

	// PhonePe response codes
	codePaymentSuccess = "PAYMENT_SUCCESS"
	codePaymentError   = "PAYMENT_ERROR"
	codePaymentPending = "PAYMENT_PENDING"
)

// PhonePeProvider implements provider.PaymentProvider for PhonePe Standard
// Checkout. Every request body is base64-wrapped JSON signed with
// sha256(payload + path + saltKey) carried in X-Verify.
type PhonePeProvider struct {
	merchantID  string
	saltKey     string
	saltIndex   string
	environment provider.Environment
	client      *provider.HTTPClient
}

// NewProvider creates a new PhonePe payment provider.
func NewProvider() provider.PaymentProvider {
	return &PhonePeProvider{}
}

// Initialize sets up the provider with authentication credentials.
func (p *PhonePeProvider) Initialize(creds provider.CredentialSet, env provider.Environment) error {
	p.merchantID = creds.Get("merchantId")
	p.saltKey = creds.Get("saltKey")
	p.saltIndex = creds.Get("saltIndex")
	p.environment = env

	if p.merchantID == "" || p.saltKey == "" || p.saltIndex == "" {
		return fmt.Errorf("phonepe: merchantId, saltKey and saltIndex are required: %w", provider.ErrCredentialsNotConfigured)
	}

	baseURL := apiSandboxURL
	if env == provider.EnvLive {
		baseURL = apiLiveURL
	}
	p.client = provider.NewHTTPClient(&provider.HTTPClientConfig{BaseURL: baseURL})
	return nil
}

// checksum computes the X-Verify value for a base64 payload and API path.
func (p *PhonePeProvider) checksum(base64Payload, path string) string {
	sum := sha256.Sum256([]byte(base64Payload + path + p.saltKey))
	return hex.EncodeToString(sum[:]) + "###" + p.saltIndex
}

type payInstrument struct {
	Type string `json:"type"`
}

type payPayload struct {
	MerchantID            string        `json:"merchantId"`
	MerchantTransactionID string        `json:"merchantTransactionId"`
	Amount                int64         `json:"amount"`
	RedirectURL           string        `json:"redirectUrl,omitempty"`
	RedirectMode          string        `json:"redirectMode,omitempty"`
	MobileNumber          string        `json:"mobileNumber,omitempty"`
	PaymentInstrument     payInstrument `json:"paymentInstrument"`
}

type wrappedRequest struct {
	Request string `json:"request"`
}

type payResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		InstrumentResponse    struct {
			RedirectInfo struct {
				URL string `json:"url"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

// CreateOrder initiates a PAY_PAGE transaction and returns the redirect URL
// the shopper must be sent to.
func (p *PhonePeProvider) CreateOrder(ctx context.Context, order provider.Order) (*provider.PaymentIntentResult, error) {
	payload, err := json.Marshal(payPayload{
		MerchantID:            p.merchantID,
		MerchantTransactionID: order.OrderNumber,
		Amount:                toMinorUnits(order.Amount),
		MobileNumber:          order.CustomerPhone,
		RedirectMode:          "POST",
		PaymentInstrument:     payInstrument{Type: "PAY_PAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("phonepe: failed to marshal pay payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(payload)

	resp, err := p.client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpointPay,
		Headers:  map[string]string{headerVerify: p.checksum(encoded, endpointPay)},
		Body:     wrappedRequest{Request: encoded},
	})
	if err != nil {
		return nil, err
	}

	var pay payResponse
	if err := p.client.ParseJSONResponse(resp, &pay); err != nil {
		return nil, fmt.Errorf("phonepe: failed to parse pay response: %w", err)
	}
	if !pay.Success {
		return nil, fmt.Errorf("phonepe: %s (%s)", pay.Message, pay.Code)
	}

	return &provider.PaymentIntentResult{
		PaymentID:   order.OrderNumber,
		RedirectURL: pay.Data.InstrumentResponse.RedirectInfo.URL,
		Status:      provider.IntentCreated,
	}, nil
}

type callbackPayload struct {
	Code string `json:"code"`
	Data struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		Amount                int64  `json:"amount"`
		State                 string `json:"state"`
	} `json:"data"`
}

type wrappedCallback struct {
	Response string `json:"response"`
}

// VerifyWebhook validates the X-Verify checksum over the base64 response
// PhonePe posts to the callback URL.
func (p *PhonePeProvider) VerifyWebhook(ctx context.Context, body []byte, headers map[string]string) (bool, *provider.WebhookPaymentData, error) {
	verify := headers[headerVerify]
	if verify == "" {
		return false, nil, nil
	}

	var wrapped wrappedCallback
	if err := json.Unmarshal(body, &wrapped); err != nil || wrapped.Response == "" {
		return false, nil, nil
	}

	expected := p.checksum(wrapped.Response, "")
	if subtle.ConstantTimeCompare([]byte(expected), []byte(verify)) != 1 {
		return false, nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(wrapped.Response)
	if err != nil {
		return false, nil, nil
	}
	var callback callbackPayload
	if err := json.Unmarshal(decoded, &callback); err != nil {
		return false, nil, nil
	}
	if callback.Data.MerchantTransactionID == "" {
		return false, nil, nil
	}

	return true, &provider.WebhookPaymentData{
		PaymentID:   callback.Data.MerchantTransactionID,
		OrderNumber: callback.Data.MerchantTransactionID,
		Status:      mapState(callback.Data.State),
		Amount:      fromMinorUnits(callback.Data.Amount),
		Event:       callback.Code,
	}, nil
}

// Capture is not applicable: PhonePe captures on completion.
func (p *PhonePeProvider) Capture(ctx context.Context, paymentID string, amount float64) (*provider.CaptureResult, error) {
	return nil, fmt.Errorf("phonepe: capture is not supported, payments auto-capture on completion")
}

type refundPayload struct {
	MerchantID            string `json:"merchantId"`
	MerchantTransactionID string `json:"merchantTransactionId"`
	OriginalTransactionID string `json:"originalTransactionId"`
	Amount                int64  `json:"amount"`
}

type refundResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		Amount                int64  `json:"amount"`
		State                 string `json:"state"`
	} `json:"data"`
}

// Refund refunds a completed transaction.
func (p *PhonePeProvider) Refund(ctx context.Context, req provider.RefundRequest) (*provider.RefundResult, error) {
	payload, err := json.Marshal(refundPayload{
		MerchantID:            p.merchantID,
		MerchantTransactionID: "rf-" + req.PaymentID,
		OriginalTransactionID: req.PaymentID,
		Amount:                toMinorUnits(req.Amount),
	})
	if err != nil {
		return nil, fmt.Errorf("phonepe: failed to marshal refund payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(payload)

	resp, err := p.client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpointRefund,
		Headers:  map[string]string{headerVerify: p.checksum(encoded, endpointRefund)},
		Body:     wrappedRequest{Request: encoded},
	})
	if err != nil {
		return nil, err
	}

	var refund refundResponse
	if err := p.client.ParseJSONResponse(resp, &refund); err != nil {
		return nil, fmt.Errorf("phonepe: failed to parse refund response: %w", err)
	}
	if !refund.Success {
		return nil, fmt.Errorf("phonepe: %s (%s)", refund.Message, refund.Code)
	}
	return &provider.RefundResult{
		RefundID: refund.Data.MerchantTransactionID,
		Status:   refund.Data.State,
		Amount:   fromMinorUnits(refund.Data.Amount),
	}, nil
}

type statusResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		Amount                int64  `json:"amount"`
		State                 string `json:"state"`
	} `json:"data"`
}

// FetchStatus retrieves the transaction state from PhonePe.
func (p *PhonePeProvider) FetchStatus(ctx context.Context, paymentID string) (*provider.StatusResult, error) {
	path := fmt.Sprintf(endpointStatus, p.merchantID, paymentID)
	resp, err := p.client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodGet,
		Endpoint: path,
		Headers: map[string]string{
			headerVerify:    p.checksum("", path),
			"X-MERCHANT-ID": p.merchantID,
		},
	})
	if err != nil {
		return nil, err
	}

	var status statusResponse
	if err := p.client.ParseJSONResponse(resp, &status); err != nil {
		return nil, fmt.Errorf("phonepe: failed to parse status response: %w", err)
	}
	if !status.Success && status.Code != codePaymentPending {
		return nil, fmt.Errorf("phonepe: %s (%s)", status.Message, status.Code)
	}
	return &provider.StatusResult{
		Status:   mapState(status.Data.State),
		Amount:   fromMinorUnits(status.Data.Amount),
		Currency: "INR",
	}, nil
}

func mapState(state string) provider.PaymentStatus {
	switch state {
	case stateCompleted:
		return provider.StatusPaid
	case stateFailed:
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
