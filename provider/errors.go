package provider

import (
	"errors"
	"fmt"
)

// Error taxonomy shared across adapters, dispatcher and webhook router.
// Adapters wrap these with %w; callers match with errors.Is.
var (
	// ErrCredentialsNotConfigured means no credential record exists for the
	// (category, provider, environment) tuple. A setup error, not retryable.
	ErrCredentialsNotConfigured = errors.New("credentials not configured")

	// ErrGatewayUnavailable covers network failures, timeouts and vendor 5xx.
	// Safe to retry at the caller's discretion; never retried here.
	ErrGatewayUnavailable = errors.New("gateway unavailable")

	// ErrSignatureInvalid is a security rejection of an inbound webhook.
	// Terminal: logged, never retried.
	ErrSignatureInvalid = errors.New("webhook signature invalid")

	// ErrInvalidOrderState is a business rule violation, e.g. creating a
	// payment for an already-paid order or refunding more than was captured.
	ErrInvalidOrderState = errors.New("invalid order state")

	// ErrUnknownProvider means the provider key is not in the registry.
	// Rejected before any adapter construction or network call.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrAmbiguousOrderMatch means a webhook's transaction id and order
	// number resolved to different orders. Failed loudly, never guessed.
	ErrAmbiguousOrderMatch = errors.New("ambiguous order match")

	// ErrOrderNotFound means no order matched the webhook or request.
	ErrOrderNotFound = errors.New("order not found")
)

// Unavailable wraps err as a gateway availability failure for provider key.
func Unavailable(key string, err error) error {
	return fmt.Errorf("%s: %w: %v", key, ErrGatewayUnavailable, err)
}
