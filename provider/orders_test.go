package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderStore(t *testing.T) *OrderStore {
	t.Helper()
	store, err := NewOrderStore(newTestDB(t))
	require.NoError(t, err)
	return store
}

func TestOrderUpsertAndGet(t *testing.T) {
	store := newOrderStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, Order{
		OrderNumber:   "ORD-1001",
		Amount:        499.50,
		Currency:      "INR",
		CustomerEmail: "buyer@example.com",
	}))

	order, err := store.Get(ctx, "ORD-1001")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, order.PaymentStatus, "unset status defaults to pending")
	assert.Equal(t, 499.50, order.Amount)

	_, err = store.Get(ctx, "ORD-9999")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderMatch(t *testing.T) {
	store := newOrderStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, Order{
		OrderNumber: "ORD-1001", Amount: 100, Currency: "INR", TransactionID: "pay_aaa",
	}))
	require.NoError(t, store.Upsert(ctx, Order{
		OrderNumber: "ORD-1002", Amount: 200, Currency: "INR", TransactionID: "pay_bbb",
	}))

	tests := []struct {
		name          string
		transactionID string
		orderNumber   string
		want          string
		wantErr       error
	}{
		{name: "by transaction id", transactionID: "pay_aaa", want: "ORD-1001"},
		{name: "by order number", orderNumber: "ORD-1002", want: "ORD-1002"},
		{name: "both agree", transactionID: "pay_aaa", orderNumber: "ORD-1001", want: "ORD-1001"},
		{name: "conflict fails loudly", transactionID: "pay_aaa", orderNumber: "ORD-1002", wantErr: ErrAmbiguousOrderMatch},
		{name: "neither resolves", transactionID: "pay_zzz", orderNumber: "ORD-9999", wantErr: ErrOrderNotFound},
		{name: "empty identifiers", wantErr: ErrOrderNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := store.Match(ctx, tt.transactionID, tt.orderNumber)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, order.OrderNumber)
		})
	}
}

func TestOrderUpdatePaymentTransitions(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, status PaymentStatus) *OrderStore {
		store := newOrderStore(t)
		require.NoError(t, store.Upsert(ctx, Order{
			OrderNumber: "ORD-1001", Amount: 100, Currency: "INR", PaymentStatus: status,
		}))
		return store
	}

	t.Run("pending to paid", func(t *testing.T) {
		store := seed(t, StatusPending)
		require.NoError(t, store.UpdatePayment(ctx, "ORD-1001", StatusPaid, "pay_aaa"))

		order, err := store.Get(ctx, "ORD-1001")
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, order.PaymentStatus)
		assert.Equal(t, "pay_aaa", order.TransactionID)
	})

	t.Run("terminal repeat is idempotent", func(t *testing.T) {
		store := seed(t, StatusPaid)
		assert.NoError(t, store.UpdatePayment(ctx, "ORD-1001", StatusPaid, "pay_aaa"))
	})

	t.Run("paid cannot fail", func(t *testing.T) {
		store := seed(t, StatusPaid)
		err := store.UpdatePayment(ctx, "ORD-1001", StatusFailed, "")
		assert.ErrorIs(t, err, ErrInvalidOrderState)
	})

	t.Run("paid to refunded", func(t *testing.T) {
		store := seed(t, StatusPaid)
		assert.NoError(t, store.UpdatePayment(ctx, "ORD-1001", StatusRefunded, ""))
	})

	t.Run("failed payment can be retried", func(t *testing.T) {
		store := seed(t, StatusFailed)
		require.NoError(t, store.UpdatePayment(ctx, "ORD-1001", StatusPending, "pay_retry"))
		require.NoError(t, store.UpdatePayment(ctx, "ORD-1001", StatusPaid, "pay_retry"))
	})

	t.Run("refunded is final", func(t *testing.T) {
		store := seed(t, StatusRefunded)
		err := store.UpdatePayment(ctx, "ORD-1001", StatusPaid, "")
		assert.ErrorIs(t, err, ErrInvalidOrderState)
	})

	t.Run("missing order", func(t *testing.T) {
		store := newOrderStore(t)
		err := store.UpdatePayment(ctx, "ORD-9999", StatusPaid, "")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestOrderUpdateKeepsTransactionID(t *testing.T) {
	store := newOrderStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, Order{
		OrderNumber: "ORD-1001", Amount: 100, Currency: "INR", TransactionID: "pay_aaa",
	}))
	// an empty transaction id in the update must not erase the stored one
	require.NoError(t, store.UpdatePayment(ctx, "ORD-1001", StatusPaid, ""))

	order, err := store.Get(ctx, "ORD-1001")
	require.NoError(t, err)
	assert.Equal(t, "pay_aaa", order.TransactionID)
}
