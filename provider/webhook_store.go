package provider

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Webhook verification statuses.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
	VerificationUnknown  = "unknown_provider"
)

// Webhook processing statuses. queued moves to exactly one of processed or
// failed, exactly once.
const (
	ProcessingQueued    = "queued"
	ProcessingProcessed = "processed"
	ProcessingFailed    = "failed"
)

// WebhookEvent is one received webhook delivery, persisted before any
// verification so every delivery leaves a trace.
type WebhookEvent struct {
	ID                 string            `json:"id"`
	ProviderKey        string            `json:"providerKey"`
	Headers            map[string]string `json:"headers"`
	Body               []byte            `json:"body"`
	ReceivedAt         time.Time         `json:"receivedAt"`
	VerificationStatus string            `json:"verificationStatus"`
	ProcessingStatus   string            `json:"processingStatus"`
	OrderNumber        string            `json:"orderNumber,omitempty"`
	Message            string            `json:"message,omitempty"`
}

// WebhookStore persists webhook events.
type WebhookStore struct {
	db *sql.DB
}

// NewWebhookStore creates the store and its schema.
func NewWebhookStore(db *sql.DB) (*WebhookStore, error) {
	s := &WebhookStore{db: db}
	query := `
	CREATE TABLE IF NOT EXISTS webhook_events (
		id TEXT PRIMARY KEY,
		provider_key TEXT NOT NULL,
		headers TEXT NOT NULL,
		body BLOB NOT NULL,
		received_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		verification_status TEXT NOT NULL DEFAULT 'pending',
		processing_status TEXT NOT NULL DEFAULT 'queued',
		order_number TEXT,
		message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_webhook_events_provider ON webhook_events(provider_key, received_at);
	CREATE INDEX IF NOT EXISTS idx_webhook_events_status ON webhook_events(processing_status);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to initialize webhook schema: %w", err)
	}
	return s, nil
}

// Record persists an inbound delivery as queued and returns the event id.
// This runs before any verification; unknown provider keys are recorded too.
func (s *WebhookStore) Record(ctx context.Context, providerKey string, headers map[string]string, body []byte) (string, error) {
	headerJSON, err := json.Marshal(headers)
	if err != nil {
		return "", fmt.Errorf("failed to marshal webhook headers: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO webhook_events (id, provider_key, headers, body, verification_status, processing_status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, providerKey, string(headerJSON), body, VerificationPending, ProcessingQueued)
	if err != nil {
		return "", fmt.Errorf("failed to record webhook event: %w", err)
	}
	return id, nil
}

// SetVerification records the verification outcome for an event.
func (s *WebhookStore) SetVerification(ctx context.Context, id, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE webhook_events SET verification_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update webhook verification: %w", err)
	}
	return nil
}

// Finish moves a queued event to its final processing status. The guard on
// processing_status makes the transition happen at most once.
func (s *WebhookStore) Finish(ctx context.Context, id, status, orderNumber, message string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE webhook_events SET processing_status = ?, order_number = NULLIF(?, ''), message = NULLIF(?, '')
		 WHERE id = ? AND processing_status = ?`,
		status, orderNumber, message, id, ProcessingQueued)
	if err != nil {
		return fmt.Errorf("failed to finish webhook event: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("webhook event %s is not queued", id)
	}
	return nil
}

// Get loads one webhook event.
func (s *WebhookStore) Get(ctx context.Context, id string) (*WebhookEvent, error) {
	var e WebhookEvent
	var headerJSON string
	var orderNumber, message sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, provider_key, headers, body, received_at, verification_status, processing_status, order_number, message
		 FROM webhook_events WHERE id = ?`, id).
		Scan(&e.ID, &e.ProviderKey, &headerJSON, &e.Body, &e.ReceivedAt, &e.VerificationStatus, &e.ProcessingStatus, &orderNumber, &message)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("webhook event %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load webhook event: %w", err)
	}
	if err := json.Unmarshal([]byte(headerJSON), &e.Headers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook headers: %w", err)
	}
	e.OrderNumber = orderNumber.String
	e.Message = message.String
	return &e, nil
}

// Recent returns the latest events for a provider, newest first. An empty
// provider key returns events across all providers.
func (s *WebhookStore) Recent(ctx context.Context, providerKey string, limit int) ([]WebhookEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, provider_key, received_at, verification_status, processing_status, order_number, message
	          FROM webhook_events`
	args := []any{}
	if providerKey != "" {
		query += ` WHERE provider_key = ?`
		args = append(args, providerKey)
	}
	query += ` ORDER BY received_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook events: %w", err)
	}
	defer rows.Close()

	var events []WebhookEvent
	for rows.Next() {
		var e WebhookEvent
		var orderNumber, message sql.NullString
		if err := rows.Scan(&e.ID, &e.ProviderKey, &e.ReceivedAt, &e.VerificationStatus, &e.ProcessingStatus, &orderNumber, &message); err != nil {
			return nil, fmt.Errorf("failed to scan webhook event: %w", err)
		}
		e.OrderNumber = orderNumber.String
		e.Message = message.String
		events = append(events, e)
	}
	return events, rows.Err()
}
