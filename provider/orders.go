package provider

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ecomkit/gateway/infra/logger"
)

// OrderStore holds the payment-relevant projection of orders. Webhook
// processing matches against this projection and updates only the payment
// status and transaction id.
type OrderStore struct {
	db *sql.DB
}

// NewOrderStore creates the store and its schema.
func NewOrderStore(db *sql.DB) (*OrderStore, error) {
	s := &OrderStore{db: db}
	query := `
	CREATE TABLE IF NOT EXISTS orders (
		order_number TEXT PRIMARY KEY,
		amount REAL NOT NULL,
		currency TEXT NOT NULL,
		customer_email TEXT,
		customer_phone TEXT,
		payment_status TEXT NOT NULL DEFAULT 'pending',
		payment_transaction_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_orders_transaction
		ON orders(payment_transaction_id);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to initialize orders schema: %w", err)
	}
	return s, nil
}

// Upsert writes an order projection row.
func (s *OrderStore) Upsert(ctx context.Context, order Order) error {
	if order.PaymentStatus == "" {
		order.PaymentStatus = StatusPending
	}
	query := `
	INSERT INTO orders (order_number, amount, currency, customer_email, customer_phone, payment_status, payment_transaction_id, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(order_number)
	DO UPDATE SET
		amount = excluded.amount,
		currency = excluded.currency,
		customer_email = excluded.customer_email,
		customer_phone = excluded.customer_phone,
		payment_status = excluded.payment_status,
		payment_transaction_id = excluded.payment_transaction_id,
		updated_at = CURRENT_TIMESTAMP
	`
	_, err := s.db.ExecContext(ctx, query,
		order.OrderNumber, order.Amount, order.Currency,
		order.CustomerEmail, order.CustomerPhone,
		string(order.PaymentStatus), order.TransactionID)
	if err != nil {
		return fmt.Errorf("failed to upsert order %s: %w", order.OrderNumber, err)
	}
	return nil
}

// Get loads one order by its number.
func (s *OrderStore) Get(ctx context.Context, orderNumber string) (*Order, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT order_number, amount, currency, customer_email, customer_phone, payment_status, payment_transaction_id
		 FROM orders WHERE order_number = ?`, orderNumber))
}

// GetByTransaction loads one order by its payment transaction id.
func (s *OrderStore) GetByTransaction(ctx context.Context, transactionID string) (*Order, error) {
	if transactionID == "" {
		return nil, ErrOrderNotFound
	}
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT order_number, amount, currency, customer_email, customer_phone, payment_status, payment_transaction_id
		 FROM orders WHERE payment_transaction_id = ?`, transactionID))
}

// Match resolves a webhook to an order by transaction id, falling back to
// order number. When both identifiers are present and resolve to different
// orders the match fails loudly rather than picking one.
func (s *OrderStore) Match(ctx context.Context, transactionID, orderNumber string) (*Order, error) {
	byTx, txErr := s.GetByTransaction(ctx, transactionID)
	if txErr != nil && txErr != ErrOrderNotFound {
		return nil, txErr
	}

	var byNumber *Order
	if orderNumber != "" {
		var err error
		byNumber, err = s.Get(ctx, orderNumber)
		if err != nil && err != ErrOrderNotFound {
			return nil, err
		}
	}

	switch {
	case byTx != nil && byNumber != nil:
		if byTx.OrderNumber != byNumber.OrderNumber {
			return nil, fmt.Errorf("transaction %s vs order %s: %w", transactionID, orderNumber, ErrAmbiguousOrderMatch)
		}
		return byTx, nil
	case byTx != nil:
		return byTx, nil
	case byNumber != nil:
		return byNumber, nil
	default:
		return nil, ErrOrderNotFound
	}
}

// UpdatePayment transitions an order's payment state in a transaction.
// A repeat of the already-recorded terminal status is an idempotent no-op;
// any other transition away from a terminal status is rejected.
func (s *OrderStore) UpdatePayment(ctx context.Context, orderNumber string, status PaymentStatus, transactionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT payment_status FROM orders WHERE order_number = ?`, orderNumber).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("order %s: %w", orderNumber, ErrOrderNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", orderNumber, err)
	}

	currentStatus := PaymentStatus(current)
	if currentStatus.Terminal() {
		if currentStatus == status {
			logger.Debug("Order already in terminal status, skipping", logger.LogContext{
				Fields: map[string]any{"order_number": orderNumber, "status": status},
			})
			return nil
		}
		// legal moves out of a terminal state: a paid order gets refunded,
		// or a failed payment is retried and succeeds
		refund := currentStatus == StatusPaid && status == StatusRefunded
		retry := currentStatus == StatusFailed && (status == StatusPaid || status == StatusPending)
		if !refund && !retry {
			return fmt.Errorf("order %s is %s, cannot move to %s: %w",
				orderNumber, currentStatus, status, ErrInvalidOrderState)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET payment_status = ?, payment_transaction_id = COALESCE(NULLIF(?, ''), payment_transaction_id), updated_at = CURRENT_TIMESTAMP
		 WHERE order_number = ?`,
		string(status), transactionID, orderNumber)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", orderNumber, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order update: %w", err)
	}
	return nil
}

func (s *OrderStore) scanOne(row *sql.Row) (*Order, error) {
	var order Order
	var email, phone, txID sql.NullString
	var status string
	err := row.Scan(&order.OrderNumber, &order.Amount, &order.Currency, &email, &phone, &status, &txID)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	order.CustomerEmail = email.String
	order.CustomerPhone = phone.String
	order.PaymentStatus = PaymentStatus(status)
	order.TransactionID = txID.String
	return &order, nil
}
