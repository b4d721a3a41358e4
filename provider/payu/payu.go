package payu

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ecomkit/gateway/provider"
)

const (
	checkoutSandboxURL = "https://test.payu.in/_payment"
	checkoutLiveURL    = "https://secure.payu.in/_payment"
	apiSandboxURL      = "https://test.payu.in"
	apiLiveURL         = "https://info.payu.in"

	endpointPostService = "/merchant/postservice?form=2"

	commandVerifyPayment = "verify_payment"
	commandRefund        = "cancel_refund_transaction"

	// PayU transaction statuses
	statusSuccess = "success"
	statusFailure = "failure"
	statusPending = "pending"
)

// PayUProvider implements provider.PaymentProvider for PayU India's hosted
// checkout. CreateOrder produces the signed form fields the client posts to
// PayU; the result comes back as a signed server-to-server callback.
type PayUProvider struct {
	merchantKey  string
	merchantSalt string
	environment  provider.Environment
	checkoutURL  string
	client       *provider.HTTPClient
}

// NewProvider creates a new PayU payment provider.
func NewProvider() provider.PaymentProvider {
	return &PayUProvider{}
}

// Initialize sets up the provider with authentication credentials.
func (p *PayUProvider) Initialize(creds provider.CredentialSet, env provider.Environment) error {
	p.merchantKey = creds.Get("merchantKey")
	p.merchantSalt = creds.Get("merchantSalt")
	p.environment = env

	if p.merchantKey == "" || p.merchantSalt == "" {
		return fmt.Errorf("payu: merchantKey and merchantSalt are required: %w", provider.ErrCredentialsNotConfigured)
	}

	p.checkoutURL = checkoutSandboxURL
	baseURL := apiSandboxURL
	if env == provider.EnvLive {
		p.checkoutURL = checkoutLiveURL
		baseURL = apiLiveURL
	}
	p.client = provider.NewHTTPClient(&provider.HTTPClientConfig{BaseURL: baseURL})
	return nil
}

func sha512Hex(input string) string {
	sum := sha512.Sum512([]byte(input))
	return hex.EncodeToString(sum[:])
}

// requestHash signs the outbound checkout form:
// sha512(key|txnid|amount|productinfo|firstname|email|udf1..udf5||||||salt)
func (p *PayUProvider) requestHash(txnid, amount, productinfo, firstname, email string) string {
	parts := []string{p.merchantKey, txnid, amount, productinfo, firstname, email,
		"", "", "", "", "", "", "", "", "", "", p.merchantSalt}
	return sha512Hex(strings.Join(parts, "|"))
}

// responseHash verifies the callback, which reverses the field order:
// sha512(salt|status||||||udf5..udf1|email|firstname|productinfo|amount|txnid|key)
func (p *PayUProvider) responseHash(status, txnid, amount, productinfo, firstname, email string) string {
	parts := []string{p.merchantSalt, status, "", "", "", "", "", "", "", "", "", "",
		email, firstname, productinfo, amount, txnid, p.merchantKey}
	return sha512Hex(strings.Join(parts, "|"))
}

// CreateOrder builds the signed form payload for PayU's hosted checkout.
// No vendor call happens here; PayU sees the transaction when the client
// posts the form.
func (p *PayUProvider) CreateOrder(ctx context.Context, order provider.Order) (*provider.PaymentIntentResult, error) {
	txnid := order.OrderNumber
	if txnid == "" {
		txnid = uuid.NewString()
	}
	amount := strconv.FormatFloat(order.Amount, 'f', 2, 64)
	productinfo := "order " + order.OrderNumber
	firstname := "customer"

	fields := map[string]string{
		"action_url":  p.checkoutURL,
		"key":         p.merchantKey,
		"txnid":       txnid,
		"amount":      amount,
		"productinfo": productinfo,
		"firstname":   firstname,
		"email":       order.CustomerEmail,
		"phone":       order.CustomerPhone,
		"hash":        p.requestHash(txnid, amount, productinfo, firstname, order.CustomerEmail),
	}

	return &provider.PaymentIntentResult{
		PaymentID: txnid,
		Status:    provider.IntentCreated,
		Metadata:  fields,
	}, nil
}

// VerifyWebhook validates the reverse hash over PayU's form-encoded callback.
func (p *PayUProvider) VerifyWebhook(ctx context.Context, body []byte, headers map[string]string) (bool, *provider.WebhookPaymentData, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return false, nil, nil
	}

	status := values.Get("status")
	txnid := values.Get("txnid")
	receivedHash := values.Get("hash")
	if status == "" || txnid == "" || receivedHash == "" {
		return false, nil, nil
	}

	expected := p.responseHash(status, txnid, values.Get("amount"), values.Get("productinfo"),
		values.Get("firstname"), values.Get("email"))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(receivedHash)) != 1 {
		return false, nil, nil
	}

	amount, _ := strconv.ParseFloat(values.Get("amount"), 64)
	return true, &provider.WebhookPaymentData{
		PaymentID:   txnid,
		OrderNumber: txnid,
		Status:      mapStatus(status),
		Amount:      amount,
		Event:       status,
	}, nil
}

// Capture is not applicable: the hosted checkout captures on success.
func (p *PayUProvider) Capture(ctx context.Context, paymentID string, amount float64) (*provider.CaptureResult, error) {
	return nil, fmt.Errorf("payu: capture is not supported, hosted checkout captures on success")
}

type postServiceResponse struct {
	Status             json.Number `json:"status"`
	Msg                string      `json:"msg"`
	RequestID          json.Number `json:"request_id"`
	BankRefNum         string      `json:"bank_ref_num"`
	TransactionDetails map[string]struct {
		MihpayID string `json:"mihpayid"`
		Status   string `json:"status"`
		Amt      string `json:"amt"`
	} `json:"transaction_details"`
}

// Refund issues a cancel_refund_transaction command against the PayU payment
// id recorded for the transaction.
func (p *PayUProvider) Refund(ctx context.Context, req provider.RefundRequest) (*provider.RefundResult, error) {
	refundRef := "rf-" + uuid.NewString()
	amount := strconv.FormatFloat(req.Amount, 'f', 2, 64)
	hash := sha512Hex(strings.Join([]string{p.merchantKey, commandRefund, req.PaymentID, p.merchantSalt}, "|"))

	resp, err := p.client.SendForm(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpointPostService,
		FormData: map[string]string{
			"key":     p.merchantKey,
			"command": commandRefund,
			"var1":    req.PaymentID,
			"var2":    refundRef,
			"var3":    amount,
			"hash":    hash,
		},
	})
	if err != nil {
		return nil, err
	}

	var result postServiceResponse
	if err := p.client.ParseJSONResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("payu: failed to parse refund response: %w", err)
	}
	if result.Status.String() != "1" {
		return nil, fmt.Errorf("payu: refund rejected: %s", result.Msg)
	}
	return &provider.RefundResult{
		RefundID: refundRef,
		Status:   "queued",
		Amount:   req.Amount,
	}, nil
}

// FetchStatus runs a verify_payment command for the transaction id.
func (p *PayUProvider) FetchStatus(ctx context.Context, paymentID string) (*provider.StatusResult, error) {
	hash := sha512Hex(strings.Join([]string{p.merchantKey, commandVerifyPayment, paymentID, p.merchantSalt}, "|"))

	resp, err := p.client.SendForm(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpointPostService,
		FormData: map[string]string{
			"key":     p.merchantKey,
			"command": commandVerifyPayment,
			"var1":    paymentID,
			"hash":    hash,
		},
	})
	if err != nil {
		return nil, err
	}

	var result postServiceResponse
	if err := p.client.ParseJSONResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("payu: failed to parse status response: %w", err)
	}

	detail, ok := result.TransactionDetails[paymentID]
	if !ok {
		return nil, fmt.Errorf("payu: no transaction details for %s", paymentID)
	}
	amount, _ := strconv.ParseFloat(detail.Amt, 64)
	return &provider.StatusResult{
		Status:   mapStatus(detail.Status),
		Amount:   amount,
		Currency: "INR",
	}, nil
}

func mapStatus(status string) provider.PaymentStatus {
	switch strings.ToLower(status) {
	case statusSuccess:
		return provider.StatusPaid
	case statusFailure:
		return provider.StatusFailed
	default:
		return provider.StatusPending
	}
}
