package opensearch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ecomkit/gateway/infra/logger"
)

// PaymentAttemptDoc is the audit mirror of one payment-log row.
type PaymentAttemptDoc struct {
	Timestamp    time.Time `json:"timestamp"`
	Provider     string    `json:"provider"`
	Environment  string    `json:"environment"`
	Operation    string    `json:"operation"`
	OrderNumber  string    `json:"order_number,omitempty"`
	PaymentID    string    `json:"payment_id,omitempty"`
	Status       string    `json:"status"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ProcessingMs int64     `json:"processing_ms,omitempty"`
}

// WebhookEventDoc is the audit mirror of one webhook event.
type WebhookEventDoc struct {
	Timestamp          time.Time `json:"timestamp"`
	Provider           string    `json:"provider"`
	EventID            string    `json:"event_id"`
	VerificationStatus string    `json:"verification_status"`
	ProcessingStatus   string    `json:"processing_status"`
	OrderNumber        string    `json:"order_number,omitempty"`
	Message            string    `json:"message,omitempty"`
}

// Auditor mirrors attempt and webhook records into OpenSearch. Indexing is
// best-effort: a sink failure is logged and never fails the caller.
type Auditor struct {
	client *Client
}

// NewAuditor creates an auditor; a nil client disables indexing.
func NewAuditor(client *Client) *Auditor {
	return &Auditor{client: client}
}

// Enabled reports whether the sink is configured.
func (a *Auditor) Enabled() bool {
	return a != nil && a.client != nil
}

// PaymentAttempt indexes a payment attempt document.
func (a *Auditor) PaymentAttempt(ctx context.Context, doc PaymentAttemptDoc) {
	if !a.Enabled() {
		return
	}
	doc.Timestamp = time.Now().UTC()
	a.index(ctx, IndexPaymentAttempts, doc, doc.Provider)
}

// WebhookEvent indexes a webhook event document.
func (a *Auditor) WebhookEvent(ctx context.Context, doc WebhookEventDoc) {
	if !a.Enabled() {
		return
	}
	doc.Timestamp = time.Now().UTC()
	a.index(ctx, IndexWebhookEvents, doc, doc.Provider)
}

func (a *Auditor) index(ctx context.Context, index string, doc any, providerKey string) {
	body, err := json.Marshal(doc)
	if err != nil {
		logger.Warn("Failed to marshal audit document", logger.LogContext{
			Provider: providerKey,
			Fields:   map[string]any{"index": index, "error": err.Error()},
		})
		return
	}
	if err := a.client.IndexDocument(ctx, index, body); err != nil {
		logger.Warn("Failed to index audit document", logger.LogContext{
			Provider: providerKey,
			Fields:   map[string]any{"index": index, "error": err.Error()},
		})
	}
}
