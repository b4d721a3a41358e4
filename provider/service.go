package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ecomkit/gateway/infra/logger"
	"github.com/ecomkit/gateway/infra/opensearch"
)

// Service is the gateway dispatcher. It resolves the active provider for a
// category, constructs and initializes the adapter with decrypted
// credentials, straddles every vendor call with payment-log rows and routes
// inbound webhooks through their persistence state machine.
type Service struct {
	registry    *Registry
	credentials *CredentialStore
	settings    *SettingStore
	orders      *OrderStore
	logs        *PaymentLogStore
	webhooks    *WebhookStore
	otps        *OTPStore
	auditor     *opensearch.Auditor
}

// NewService wires the dispatcher. auditor may be nil to disable the audit
// sink.
func NewService(registry *Registry, credentials *CredentialStore, settings *SettingStore,
	orders *OrderStore, logs *PaymentLogStore, webhooks *WebhookStore, otps *OTPStore,
	auditor *opensearch.Auditor) *Service {
	return &Service{
		registry:    registry,
		credentials: credentials,
		settings:    settings,
		orders:      orders,
		logs:        logs,
		webhooks:    webhooks,
		otps:        otps,
		auditor:     auditor,
	}
}

// Registry exposes the descriptor catalog for admin listings.
func (s *Service) Registry() *Registry { return s.registry }

// Orders exposes the order projection store.
func (s *Service) Orders() *OrderStore { return s.orders }

// Credentials exposes the credential store for admin configuration.
func (s *Service) Credentials() *CredentialStore { return s.credentials }

// Settings exposes the runtime settings store.
func (s *Service) Settings() *SettingStore { return s.settings }

// Webhooks exposes the webhook event store.
func (s *Service) Webhooks() *WebhookStore { return s.webhooks }

// PaymentLogs exposes the payment log store.
func (s *Service) PaymentLogs() *PaymentLogStore { return s.logs }

// ActiveProvider resolves which provider serves a category right now: the
// first catalog entry, in priority order, that is enabled, has a registered
// adapter and has credentials configured for the category's environment.
func (s *Service) ActiveProvider(ctx context.Context, category Category) (string, Environment, error) {
	env, err := s.settings.Environment(ctx, category)
	if err != nil {
		return "", env, err
	}

	for _, desc := range s.registry.ByCategory(category) {
		if !s.hasAdapter(category, desc.Key) {
			continue
		}
		enabled, err := s.settings.IsEnabled(ctx, category, desc.Key)
		if err != nil {
			return "", env, err
		}
		if !enabled {
			continue
		}
		configured, err := s.credentials.IsConfigured(ctx, category, desc.Key, env)
		if err != nil {
			return "", env, err
		}
		if configured {
			return desc.Key, env, nil
		}
	}
	return "", env, fmt.Errorf("no active %s provider: %w", category, ErrCredentialsNotConfigured)
}

func (s *Service) hasAdapter(category Category, key string) bool {
	switch category {
	case CategoryPayment:
		_, err := s.registry.Payment(key)
		return err == nil
	case CategoryShipping:
		_, err := s.registry.Shipping(key)
		return err == nil
	case CategorySMS:
		_, err := s.registry.SMS(key)
		return err == nil
	case CategoryWhatsApp:
		_, err := s.registry.WhatsApp(key)
		return err == nil
	default:
		return false
	}
}

// resolvePayment validates the key against the registry, resolves credentials
// and returns an initialized adapter. No network happens here, so an unknown
// key or missing credentials is rejected before any vendor is touched.
func (s *Service) resolvePayment(ctx context.Context, providerKey string) (PaymentProvider, Environment, CredentialSet, error) {
	env, err := s.settings.Environment(ctx, CategoryPayment)
	if err != nil {
		return nil, env, nil, err
	}

	adapter, err := s.registry.Payment(providerKey)
	if err != nil {
		return nil, env, nil, err
	}

	creds, err := s.credentials.Resolve(ctx, CategoryPayment, providerKey, env)
	if err != nil {
		return nil, env, nil, err
	}

	if err := adapter.Initialize(creds, env); err != nil {
		return nil, env, nil, fmt.Errorf("failed to initialize %s adapter: %w", providerKey, err)
	}
	return adapter, env, creds, nil
}

// PaymentSession is what the checkout client needs to continue a payment.
// ClientPayload is vendor-shaped: each gateway's JS SDK or redirect flow
// consumes a different set of fields.
type PaymentSession struct {
	Provider      string            `json:"provider"`
	PaymentID     string            `json:"paymentId"`
	Status        IntentStatus      `json:"status"`
	ClientPayload map[string]string `json:"clientPayload"`
}

// CreatePayment registers an order with the resolved payment provider and
// returns the client session. An empty providerKey uses the active provider.
func (s *Service) CreatePayment(ctx context.Context, providerKey string, order Order) (*PaymentSession, error) {
	if order.Amount <= 0 {
		return nil, fmt.Errorf("order amount must be positive: %w", ErrInvalidOrderState)
	}
	if order.Currency == "" {
		return nil, fmt.Errorf("order currency is required: %w", ErrInvalidOrderState)
	}

	if existing, err := s.orders.Get(ctx, order.OrderNumber); err == nil {
		if existing.PaymentStatus == StatusPaid || existing.PaymentStatus == StatusRefunded {
			return nil, fmt.Errorf("order %s is already %s: %w",
				order.OrderNumber, existing.PaymentStatus, ErrInvalidOrderState)
		}
	} else if err != ErrOrderNotFound {
		return nil, err
	}

	if providerKey == "" {
		active, _, err := s.ActiveProvider(ctx, CategoryPayment)
		if err != nil {
			return nil, err
		}
		providerKey = active
	}

	adapter, env, creds, err := s.resolvePayment(ctx, providerKey)
	if err != nil {
		return nil, err
	}

	order.PaymentStatus = StatusPending
	if err := s.orders.Upsert(ctx, order); err != nil {
		return nil, err
	}

	logID, err := s.logs.Begin(ctx, providerKey, env, "create_payment", order.OrderNumber)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, callErr := adapter.CreateOrder(ctx, order)
	elapsed := time.Since(start)

	if callErr != nil {
		s.completeLog(ctx, logID, "", LogOutcomeFailure, callErr.Error(), elapsed)
		s.auditAttempt(ctx, providerKey, env, "create_payment", order.OrderNumber, "", LogOutcomeFailure, callErr, elapsed)
		logger.Error("Payment creation failed", callErr, logger.LogContext{
			Provider: providerKey,
			Fields:   map[string]any{"order_number": order.OrderNumber},
		})
		return nil, callErr
	}

	s.completeLog(ctx, logID, result.PaymentID, LogOutcomeSuccess, "", elapsed)
	s.auditAttempt(ctx, providerKey, env, "create_payment", order.OrderNumber, result.PaymentID, LogOutcomeSuccess, nil, elapsed)

	if err := s.orders.UpdatePayment(ctx, order.OrderNumber, StatusPending, result.PaymentID); err != nil {
		return nil, err
	}

	logger.Info("Payment created", logger.LogContext{
		Provider: providerKey,
		Fields: map[string]any{
			"order_number": order.OrderNumber,
			"payment_id":   result.PaymentID,
			"status":       result.Status,
		},
	})

	return &PaymentSession{
		Provider:      providerKey,
		PaymentID:     result.PaymentID,
		Status:        result.Status,
		ClientPayload: clientPayload(providerKey, creds, result),
	}, nil
}

// clientPayload shapes the vendor-specific fields the checkout client needs.
func clientPayload(providerKey string, creds CredentialSet, result *PaymentIntentResult) map[string]string {
	payload := map[string]string{}
	switch providerKey {
	case "razorpay":
		payload["key_id"] = creds.Get("keyId")
		payload["order_id"] = result.PaymentID
	case "stripe":
		payload["publishable_key"] = creds.Get("publishableKey")
		payload["client_secret"] = result.Metadata["client_secret"]
	case "cashfree":
		payload["payment_session_id"] = result.Metadata["payment_session_id"]
	case "phonepe":
		payload["redirect_url"] = result.RedirectURL
	case "payu":
		for k, v := range result.Metadata {
			payload[k] = v
		}
	default:
		if result.RedirectURL != "" {
			payload["redirect_url"] = result.RedirectURL
		}
		for k, v := range result.Metadata {
			payload[k] = v
		}
	}
	return payload
}

// VerifyPayment confirms a checkout-side payment callback against the vendor
// and applies the result to the order. The vendor is the source of truth: the
// status comes from FetchStatus, and the claimed payment id must be the one
// recorded for the order, so a foreign id cannot be bound to it. A repeat
// verification of an already-paid order is a no-op.
func (s *Service) VerifyPayment(ctx context.Context, providerKey, paymentID, orderNumber string) (*Order, error) {
	order, err := s.orders.Match(ctx, paymentID, orderNumber)
	if err != nil {
		return nil, err
	}
	if order.TransactionID != "" && paymentID != order.TransactionID {
		return nil, fmt.Errorf("payment %s does not belong to order %s: %w",
			paymentID, order.OrderNumber, ErrInvalidOrderState)
	}

	if providerKey == "" {
		active, _, err := s.ActiveProvider(ctx, CategoryPayment)
		if err != nil {
			return nil, err
		}
		providerKey = active
	}
	adapter, env, _, err := s.resolvePayment(ctx, providerKey)
	if err != nil {
		return nil, err
	}

	logID, err := s.logs.Begin(ctx, providerKey, env, "verify_payment", order.OrderNumber)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, callErr := adapter.FetchStatus(ctx, paymentID)
	elapsed := time.Since(start)

	// a paid verdict for a different amount must not settle the order
	if callErr == nil && result.Status == StatusPaid && result.Amount > 0 &&
		math.Abs(result.Amount-order.Amount) >= 0.01 {
		callErr = fmt.Errorf("vendor reports amount %.2f for order %s with total %.2f: %w",
			result.Amount, order.OrderNumber, order.Amount, ErrInvalidOrderState)
	}
	if callErr != nil {
		s.completeLog(ctx, logID, paymentID, LogOutcomeFailure, callErr.Error(), elapsed)
		s.auditAttempt(ctx, providerKey, env, "verify_payment", order.OrderNumber, paymentID, LogOutcomeFailure, callErr, elapsed)
		return nil, callErr
	}
	s.completeLog(ctx, logID, paymentID, LogOutcomeSuccess, "", elapsed)
	s.auditAttempt(ctx, providerKey, env, "verify_payment", order.OrderNumber, paymentID, LogOutcomeSuccess, nil, elapsed)

	// only settled vendor statuses move the order; pending stays pending
	if result.Status == StatusPaid || result.Status == StatusFailed {
		if err := s.orders.UpdatePayment(ctx, order.OrderNumber, result.Status, paymentID); err != nil {
			return nil, err
		}
	}

	logger.Info("Payment verified", logger.LogContext{
		Provider: providerKey,
		Fields: map[string]any{
			"order_number": order.OrderNumber,
			"payment_id":   paymentID,
			"status":       result.Status,
		},
	})
	return s.orders.Get(ctx, order.OrderNumber)
}

// WebhookReceipt reports the outcome of one processed webhook delivery.
type WebhookReceipt struct {
	EventID     string        `json:"eventId"`
	Provider    string        `json:"provider"`
	OrderNumber string        `json:"orderNumber,omitempty"`
	Status      PaymentStatus `json:"status,omitempty"`
}

// ProcessWebhook runs the webhook state machine: persist the delivery first,
// then verify, match and apply synchronously. The event row moves from queued
// to exactly one of processed or failed; the caller acknowledges the vendor
// only when this returns nil.
func (s *Service) ProcessWebhook(ctx context.Context, providerKey string, headers map[string]string, body []byte) (*WebhookReceipt, error) {
	eventID, err := s.webhooks.Record(ctx, providerKey, headers, body)
	if err != nil {
		return nil, err
	}
	receipt := &WebhookReceipt{EventID: eventID, Provider: providerKey}

	desc, known := s.registry.Get(providerKey)
	if !known || desc.Category != CategoryPayment || !s.registry.HasPayment(providerKey) {
		s.failWebhook(ctx, eventID, VerificationUnknown, "", "unknown provider")
		s.auditWebhook(ctx, providerKey, eventID, VerificationUnknown, ProcessingFailed, "", "unknown provider")
		return receipt, fmt.Errorf("webhook for %q: %w", providerKey, ErrUnknownProvider)
	}

	adapter, _, _, err := s.resolvePayment(ctx, providerKey)
	if err != nil {
		s.failWebhook(ctx, eventID, VerificationPending, "", err.Error())
		return receipt, err
	}

	ok, data, err := adapter.VerifyWebhook(ctx, body, headers)
	if err != nil {
		s.failWebhook(ctx, eventID, VerificationPending, "", err.Error())
		return receipt, err
	}
	if !ok {
		s.failWebhook(ctx, eventID, VerificationRejected, "", "signature verification failed")
		s.auditWebhook(ctx, providerKey, eventID, VerificationRejected, ProcessingFailed, "", "signature verification failed")
		logger.Warn("Webhook signature rejected", logger.LogContext{
			Provider: providerKey,
			Fields:   map[string]any{"event_id": eventID},
		})
		return receipt, fmt.Errorf("webhook for %s: %w", providerKey, ErrSignatureInvalid)
	}

	if err := s.webhooks.SetVerification(ctx, eventID, VerificationVerified); err != nil {
		return receipt, err
	}

	// verified events that name no payment or order are acknowledged without
	// touching any order, e.g. vendor event types outside the payment flow
	if data.PaymentID == "" && data.OrderNumber == "" {
		if err := s.webhooks.Finish(ctx, eventID, ProcessingProcessed, "", "ignored event: "+data.Event); err != nil {
			return receipt, err
		}
		s.auditWebhook(ctx, providerKey, eventID, VerificationVerified, ProcessingProcessed, "", "ignored event: "+data.Event)
		return receipt, nil
	}

	order, err := s.orders.Match(ctx, data.PaymentID, data.OrderNumber)
	if err != nil {
		s.failWebhook(ctx, eventID, VerificationVerified, data.OrderNumber, err.Error())
		s.auditWebhook(ctx, providerKey, eventID, VerificationVerified, ProcessingFailed, data.OrderNumber, err.Error())
		return receipt, err
	}

	if err := s.orders.UpdatePayment(ctx, order.OrderNumber, data.Status, data.PaymentID); err != nil {
		s.failWebhook(ctx, eventID, VerificationVerified, order.OrderNumber, err.Error())
		s.auditWebhook(ctx, providerKey, eventID, VerificationVerified, ProcessingFailed, order.OrderNumber, err.Error())
		return receipt, err
	}

	if err := s.webhooks.Finish(ctx, eventID, ProcessingProcessed, order.OrderNumber, ""); err != nil {
		return receipt, err
	}
	s.auditWebhook(ctx, providerKey, eventID, VerificationVerified, ProcessingProcessed, order.OrderNumber, string(data.Status))

	logger.Info("Webhook processed", logger.LogContext{
		Provider: providerKey,
		Fields: map[string]any{
			"event_id":     eventID,
			"order_number": order.OrderNumber,
			"status":       data.Status,
		},
	})

	receipt.OrderNumber = order.OrderNumber
	receipt.Status = data.Status
	return receipt, nil
}

func (s *Service) failWebhook(ctx context.Context, eventID, verification, orderNumber, message string) {
	if verification != VerificationPending {
		if err := s.webhooks.SetVerification(ctx, eventID, verification); err != nil {
			logger.Error("Failed to update webhook verification", err)
		}
	}
	if err := s.webhooks.Finish(ctx, eventID, ProcessingFailed, orderNumber, message); err != nil {
		logger.Error("Failed to finish webhook event", err)
	}
}

// Refund refunds a captured payment. The amount is validated against the
// matched order before any vendor call; over-refunds never reach the wire.
func (s *Service) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByTransaction(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != StatusPaid {
		return nil, fmt.Errorf("order %s is %s, only paid orders can be refunded: %w",
			order.OrderNumber, order.PaymentStatus, ErrInvalidOrderState)
	}
	if req.Amount > order.Amount {
		return nil, fmt.Errorf("refund %.2f exceeds captured %.2f: %w",
			req.Amount, order.Amount, ErrInvalidOrderState)
	}

	providerKey, env, err := s.ActiveProvider(ctx, CategoryPayment)
	if err != nil {
		return nil, err
	}
	adapter, _, _, err := s.resolvePayment(ctx, providerKey)
	if err != nil {
		return nil, err
	}

	logID, err := s.logs.Begin(ctx, providerKey, env, "refund", order.OrderNumber)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, callErr := adapter.Refund(ctx, req)
	elapsed := time.Since(start)

	if callErr != nil {
		s.completeLog(ctx, logID, req.PaymentID, LogOutcomeFailure, callErr.Error(), elapsed)
		s.auditAttempt(ctx, providerKey, env, "refund", order.OrderNumber, req.PaymentID, LogOutcomeFailure, callErr, elapsed)
		return nil, callErr
	}
	s.completeLog(ctx, logID, req.PaymentID, LogOutcomeSuccess, "", elapsed)
	s.auditAttempt(ctx, providerKey, env, "refund", order.OrderNumber, req.PaymentID, LogOutcomeSuccess, nil, elapsed)

	// full refunds flip the order status; partial refunds leave it paid
	if req.Amount == 0 || req.Amount == order.Amount {
		if err := s.orders.UpdatePayment(ctx, order.OrderNumber, StatusRefunded, req.PaymentID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// FetchPaymentStatus queries the vendor-side status of a payment.
func (s *Service) FetchPaymentStatus(ctx context.Context, providerKey, paymentID string) (*StatusResult, error) {
	if providerKey == "" {
		active, _, err := s.ActiveProvider(ctx, CategoryPayment)
		if err != nil {
			return nil, err
		}
		providerKey = active
	}
	adapter, env, _, err := s.resolvePayment(ctx, providerKey)
	if err != nil {
		return nil, err
	}

	logID, err := s.logs.Begin(ctx, providerKey, env, "fetch_status", "")
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, callErr := adapter.FetchStatus(ctx, paymentID)
	elapsed := time.Since(start)

	if callErr != nil {
		s.completeLog(ctx, logID, paymentID, LogOutcomeFailure, callErr.Error(), elapsed)
		return nil, callErr
	}
	s.completeLog(ctx, logID, paymentID, LogOutcomeSuccess, "", elapsed)
	return result, nil
}

// Capture captures an authorized payment, fully or partially.
func (s *Service) Capture(ctx context.Context, providerKey, paymentID string, amount float64) (*CaptureResult, error) {
	if providerKey == "" {
		active, _, err := s.ActiveProvider(ctx, CategoryPayment)
		if err != nil {
			return nil, err
		}
		providerKey = active
	}
	adapter, env, _, err := s.resolvePayment(ctx, providerKey)
	if err != nil {
		return nil, err
	}

	logID, err := s.logs.Begin(ctx, providerKey, env, "capture", "")
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, callErr := adapter.Capture(ctx, paymentID, amount)
	elapsed := time.Since(start)

	if callErr != nil {
		s.completeLog(ctx, logID, paymentID, LogOutcomeFailure, callErr.Error(), elapsed)
		return nil, callErr
	}
	s.completeLog(ctx, logID, result.TransactionID, LogOutcomeSuccess, "", elapsed)
	return result, nil
}

func (s *Service) completeLog(ctx context.Context, logID, paymentID, outcome, message string, elapsed time.Duration) {
	if err := s.logs.Complete(ctx, logID, paymentID, outcome, message, elapsed); err != nil {
		logger.Error("Failed to complete payment log", err)
	}
}

func (s *Service) auditAttempt(ctx context.Context, providerKey string, env Environment, operation, orderNumber, paymentID, status string, callErr error, elapsed time.Duration) {
	if !s.auditor.Enabled() {
		return
	}
	doc := opensearch.PaymentAttemptDoc{
		Provider:     providerKey,
		Environment:  string(env),
		Operation:    operation,
		OrderNumber:  orderNumber,
		PaymentID:    paymentID,
		Status:       status,
		ProcessingMs: elapsed.Milliseconds(),
	}
	if callErr != nil {
		doc.ErrorCode = errorCode(callErr)
	}
	s.auditor.PaymentAttempt(ctx, doc)
}

func (s *Service) auditWebhook(ctx context.Context, providerKey, eventID, verification, processing, orderNumber, message string) {
	if !s.auditor.Enabled() {
		return
	}
	s.auditor.WebhookEvent(ctx, opensearch.WebhookEventDoc{
		Provider:           providerKey,
		EventID:            eventID,
		VerificationStatus: verification,
		ProcessingStatus:   processing,
		OrderNumber:        orderNumber,
		Message:            message,
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrGatewayUnavailable):
		return "gateway_unavailable"
	case errors.Is(err, ErrCredentialsNotConfigured):
		return "credentials_not_configured"
	case errors.Is(err, ErrInvalidOrderState):
		return "invalid_order_state"
	case errors.Is(err, ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, ErrUnknownProvider):
		return "unknown_provider"
	default:
		return "provider_error"
	}
}
