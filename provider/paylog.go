package provider

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Payment log outcome values.
const (
	LogOutcomePending = "pending"
	LogOutcomeSuccess = "success"
	LogOutcomeFailure = "failure"
)

// PaymentLog is one recorded vendor interaction. A pending row is written
// before the vendor call and updated with the outcome afterwards, so a crash
// mid-call still leaves evidence the call was attempted.
type PaymentLog struct {
	ID           string        `json:"id"`
	Provider     string        `json:"provider"`
	Environment  Environment   `json:"environment"`
	Operation    string        `json:"operation"`
	OrderNumber  string        `json:"orderNumber,omitempty"`
	PaymentID    string        `json:"paymentId,omitempty"`
	Outcome      string        `json:"outcome"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	ProcessingMs int64         `json:"processingMs,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// PaymentLogStore persists payment attempt logs.
type PaymentLogStore struct {
	db *sql.DB
}

// NewPaymentLogStore creates the store and its schema.
func NewPaymentLogStore(db *sql.DB) (*PaymentLogStore, error) {
	s := &PaymentLogStore{db: db}
	query := `
	CREATE TABLE IF NOT EXISTS payment_logs (
		id TEXT PRIMARY KEY,
		provider_key TEXT NOT NULL,
		environment TEXT NOT NULL,
		operation TEXT NOT NULL,
		order_number TEXT,
		payment_id TEXT,
		outcome TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT,
		processing_ms INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_payment_logs_order ON payment_logs(order_number);
	CREATE INDEX IF NOT EXISTS idx_payment_logs_provider ON payment_logs(provider_key, created_at);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to initialize payment log schema: %w", err)
	}
	return s, nil
}

// Begin writes a pending log row before the vendor call and returns its id.
func (s *PaymentLogStore) Begin(ctx context.Context, providerKey string, env Environment, operation, orderNumber string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payment_logs (id, provider_key, environment, operation, order_number, outcome)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, providerKey, string(env), operation, orderNumber, LogOutcomePending)
	if err != nil {
		return "", fmt.Errorf("failed to write payment log: %w", err)
	}
	return id, nil
}

// Complete records the outcome of a previously started log row.
func (s *PaymentLogStore) Complete(ctx context.Context, id, paymentID, outcome, errorMessage string, elapsed time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE payment_logs SET payment_id = ?, outcome = ?, error_message = ?, processing_ms = ? WHERE id = ?`,
		paymentID, outcome, errorMessage, elapsed.Milliseconds(), id)
	if err != nil {
		return fmt.Errorf("failed to complete payment log: %w", err)
	}
	return nil
}

// ByOrder returns logs for one order, newest first.
func (s *PaymentLogStore) ByOrder(ctx context.Context, orderNumber string, limit int) ([]PaymentLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, provider_key, environment, operation, order_number, payment_id, outcome, error_message, processing_ms, created_at
		 FROM payment_logs WHERE order_number = ? ORDER BY created_at DESC LIMIT ?`,
		orderNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment logs: %w", err)
	}
	defer rows.Close()

	var logs []PaymentLog
	for rows.Next() {
		var l PaymentLog
		var env string
		var orderNo, paymentID, errMsg sql.NullString
		var processingMs sql.NullInt64
		if err := rows.Scan(&l.ID, &l.Provider, &env, &l.Operation, &orderNo, &paymentID, &l.Outcome, &errMsg, &processingMs, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment log: %w", err)
		}
		l.Environment = Environment(env)
		l.OrderNumber = orderNo.String
		l.PaymentID = paymentID.String
		l.ErrorMessage = errMsg.String
		l.ProcessingMs = processingMs.Int64
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
