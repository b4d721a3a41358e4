package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/ecomkit/gateway/provider"
)

const (
	headerSignature = "Stripe-Signature"

	eventIntentSucceeded = "payment_intent.succeeded"
	eventIntentFailed    = "payment_intent.payment_failed"
	eventChargeRefunded  = "charge.refunded"
)

// StripeProvider implements provider.PaymentProvider on top of the official
// Stripe SDK. Test and live mode are selected by the secret key itself, so
// both environments talk to the same API host.
type StripeProvider struct {
	secretKey      string
	publishableKey string
	webhookSecret  string
	environment    provider.Environment
	api            *client.API
}

// NewProvider creates a new Stripe payment provider.
func NewProvider() provider.PaymentProvider {
	return &StripeProvider{}
}

// Initialize sets up the provider with authentication credentials.
func (p *StripeProvider) Initialize(creds provider.CredentialSet, env provider.Environment) error {
	p.secretKey = creds.Get("secretKey")
	p.publishableKey = creds.Get("publishableKey")
	p.webhookSecret = creds.Get("webhookSecret")
	p.environment = env

	if p.secretKey == "" || p.publishableKey == "" {
		return fmt.Errorf("stripe: secretKey and publishableKey are required: %w", provider.ErrCredentialsNotConfigured)
	}
	if env == provider.EnvLive && !strings.HasPrefix(p.secretKey, "sk_live_") {
		return fmt.Errorf("stripe: live environment requires an sk_live_ secret key")
	}

	p.api = &client.API{}
	p.api.Init(p.secretKey, nil)
	return nil
}

// CreateOrder creates a PaymentIntent for the order amount.
func (p *StripeProvider) CreateOrder(ctx context.Context, order provider.Order) (*provider.PaymentIntentResult, error) {
	params := &stripeapi.PaymentIntentParams{
		Amount:   stripeapi.Int64(toMinorUnits(order.Amount)),
		Currency: stripeapi.String(strings.ToLower(order.Currency)),
	}
	params.Context = ctx
	params.AddMetadata("order_number", order.OrderNumber)
	if order.CustomerEmail != "" {
		params.ReceiptEmail = stripeapi.String(order.CustomerEmail)
	}

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, wrapError("create payment intent", err)
	}

	return &provider.PaymentIntentResult{
		PaymentID: intent.ID,
		Status:    mapIntentStatus(intent.Status),
		Metadata:  map[string]string{"client_secret": intent.ClientSecret},
	}, nil
}

// VerifyWebhook verifies the Stripe-Signature header with the SDK's
// constant-time signature check and normalizes the event payload.
func (p *StripeProvider) VerifyWebhook(ctx context.Context, body []byte, headers map[string]string) (bool, *provider.WebhookPaymentData, error) {
	if p.webhookSecret == "" {
		return false, nil, fmt.Errorf("stripe: webhookSecret is required for webhook verification: %w", provider.ErrCredentialsNotConfigured)
	}

	event, err := webhook.ConstructEvent(body, headers[headerSignature], p.webhookSecret)
	if err != nil {
		// bad signature, stale timestamp or unparsable payload
		return false, nil, nil
	}

	switch event.Type {
	case eventIntentSucceeded, eventIntentFailed:
		var intent stripeapi.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return false, nil, nil
		}
		status := provider.StatusPaid
		if event.Type == eventIntentFailed {
			status = provider.StatusFailed
		}
		return true, &provider.WebhookPaymentData{
			PaymentID:   intent.ID,
			OrderNumber: intent.Metadata["order_number"],
			Status:      status,
			Amount:      fromMinorUnits(intent.Amount),
			Event:       string(event.Type),
		}, nil
	case eventChargeRefunded:
		var charge stripeapi.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return false, nil, nil
		}
		paymentID := ""
		if charge.PaymentIntent != nil {
			paymentID = charge.PaymentIntent.ID
		}
		return true, &provider.WebhookPaymentData{
			PaymentID:   paymentID,
			OrderNumber: charge.Metadata["order_number"],
			Status:      provider.StatusRefunded,
			Amount:      fromMinorUnits(charge.AmountRefunded),
			Event:       string(event.Type),
		}, nil
	default:
		// verified but uninteresting; report it under its own event name so
		// the router can acknowledge without touching any order
		return true, &provider.WebhookPaymentData{
			Status: provider.StatusPending,
			Event:  string(event.Type),
		}, nil
	}
}

// Capture captures an authorized PaymentIntent.
func (p *StripeProvider) Capture(ctx context.Context, paymentID string, amount float64) (*provider.CaptureResult, error) {
	params := &stripeapi.PaymentIntentCaptureParams{}
	params.Context = ctx
	if amount > 0 {
		params.AmountToCapture = stripeapi.Int64(toMinorUnits(amount))
	}

	intent, err := p.api.PaymentIntents.Capture(paymentID, params)
	if err != nil {
		return nil, wrapError("capture payment intent", err)
	}
	return &provider.CaptureResult{
		Status:        mapIntentStatus(intent.Status),
		TransactionID: intent.ID,
	}, nil
}

// Refund refunds a captured PaymentIntent; a zero amount refunds in full.
func (p *StripeProvider) Refund(ctx context.Context, req provider.RefundRequest) (*provider.RefundResult, error) {
	params := &stripeapi.RefundParams{
		PaymentIntent: stripeapi.String(req.PaymentID),
	}
	params.Context = ctx
	if req.Amount > 0 {
		params.Amount = stripeapi.Int64(toMinorUnits(req.Amount))
	}
	if req.Reason != "" {
		params.AddMetadata("reason", req.Reason)
	}

	refund, err := p.api.Refunds.New(params)
	if err != nil {
		return nil, wrapError("create refund", err)
	}
	return &provider.RefundResult{
		RefundID: refund.ID,
		Status:   string(refund.Status),
		Amount:   fromMinorUnits(refund.Amount),
	}, nil
}

// FetchStatus retrieves the PaymentIntent status from Stripe.
func (p *StripeProvider) FetchStatus(ctx context.Context, paymentID string) (*provider.StatusResult, error) {
	params := &stripeapi.PaymentIntentParams{}
	params.Context = ctx

	intent, err := p.api.PaymentIntents.Get(paymentID, params)
	if err != nil {
		return nil, wrapError("fetch payment intent", err)
	}
	return &provider.StatusResult{
		Status:   mapPaymentStatus(intent.Status),
		Amount:   fromMinorUnits(intent.Amount),
		Currency: strings.ToUpper(string(intent.Currency)),
	}, nil
}

// wrapError classifies SDK errors: Stripe 5xx and transport failures count as
// gateway unavailability, everything else surfaces as a vendor rejection.
func wrapError(operation string, err error) error {
	var stripeErr *stripeapi.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= 500 {
			return provider.Unavailable("stripe", err)
		}
		return fmt.Errorf("stripe: failed to %s: %s (%s)", operation, stripeErr.Msg, stripeErr.Code)
	}
	return provider.Unavailable("stripe", err)
}

func mapIntentStatus(status stripeapi.PaymentIntentStatus) provider.IntentStatus {
	switch status {
	case stripeapi.PaymentIntentStatusSucceeded:
		return provider.IntentCaptured
	case stripeapi.PaymentIntentStatusRequiresCapture:
		return provider.IntentAuthorized
	case stripeapi.PaymentIntentStatusCanceled:
		return provider.IntentFailed
	case stripeapi.PaymentIntentStatusProcessing:
		return provider.IntentPending
	default:
		return provider.IntentCreated
	}
}

func mapPaymentStatus(status stripeapi.PaymentIntentStatus) provider.PaymentStatus {
	switch status {
	case stripeapi.PaymentIntentStatusSucceeded:
		return provider.StatusPaid
	case stripeapi.PaymentIntentStatusCanceled:
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
