package sales

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pos/backoffice/internal/domain/shared"
	"github.com/pos/backoffice/internal/domain/shared/valueobject"
)

// Helper function to create an approved transaction with one line item:
// quantity 2 at 50 each, so totalValue 100
func createApprovedTransaction(t *testing.T, productID uuid.UUID) *Transaction {
	txn, err := NewTransaction("TXN-260829-00001", "Test Cashier")
	require.NoError(t, err)

	_, err = txn.AddItem(
		productID, "Product A", "PROD-A",
		decimal.NewFromInt(2),
		valueobject.NewMoneyUSD(decimal.NewFromInt(50)),
		valueobject.NewMoneyUSD(decimal.NewFromInt(30)),
		decimal.Zero,
	)
	require.NoError(t, err)
	require.NoError(t, txn.Approve())

	return txn
}

func TestNewTransaction(t *testing.T) {
	t.Run("creates pending transaction", func(t *testing.T) {
		txn, err := NewTransaction("TXN-260829-00001", "Alice")
		require.NoError(t, err)
		assert.Equal(t, TransactionStatusPending, txn.Status)
		assert.True(t, txn.TotalValue.IsZero())
		assert.True(t, txn.AccumulatedRefund.IsZero())
		assert.Equal(t, 1, txn.Version)
	})

	t.Run("fails with empty number", func(t *testing.T) {
		_, err := NewTransaction("", "Alice")
		assert.Error(t, err)
	})
}

func TestTransactionAddItem(t *testing.T) {
	t.Run("adds item and recalculates totals", func(t *testing.T) {
		txn, err := NewTransaction("TXN-260829-00002", "Alice")
		require.NoError(t, err)

		item, err := txn.AddItem(
			uuid.New(), "Product A", "PROD-A",
			decimal.NewFromInt(3),
			valueobject.NewMoneyUSD(decimal.NewFromInt(10)),
			valueobject.NewMoneyUSD(decimal.NewFromInt(6)),
			decimal.NewFromInt(5),
		)
		require.NoError(t, err)

		assert.True(t, item.TotalValue.Equal(decimal.NewFromInt(30)))
		assert.True(t, item.NetPrice.Equal(decimal.NewFromInt(25)))
		assert.True(t, item.RemainingQuantity.Equal(decimal.NewFromInt(3)))
		assert.True(t, item.RemainingAmount.Equal(decimal.NewFromInt(30)))
		assert.False(t, item.IsRefund)

		assert.True(t, txn.TotalValue.Equal(decimal.NewFromInt(30)))
		assert.True(t, txn.TotalCost.Equal(decimal.NewFromInt(18)))
		assert.True(t, txn.TotalDiscount.Equal(decimal.NewFromInt(5)))
	})

	t.Run("rejects duplicate product", func(t *testing.T) {
		txn, err := NewTransaction("TXN-260829-00003", "Alice")
		require.NoError(t, err)

		productID := uuid.New()
		_, err = txn.AddItem(productID, "Product A", "PROD-A", decimal.NewFromInt(1),
			valueobject.NewMoneyUSD(decimal.NewFromInt(10)), valueobject.ZeroUSD(), decimal.Zero)
		require.NoError(t, err)

		_, err = txn.AddItem(productID, "Product A", "PROD-A", decimal.NewFromInt(1),
			valueobject.NewMoneyUSD(decimal.NewFromInt(10)), valueobject.ZeroUSD(), decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects items on approved transaction", func(t *testing.T) {
		txn := createApprovedTransaction(t, uuid.New())

		_, err := txn.AddItem(uuid.New(), "Product B", "PROD-B", decimal.NewFromInt(1),
			valueobject.NewMoneyUSD(decimal.NewFromInt(10)), valueobject.ZeroUSD(), decimal.Zero)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestTransactionItemUnitPrice(t *testing.T) {
	t.Run("derives the gross unit price from the line total", func(t *testing.T) {
		txn, err := NewTransaction("TXN-260829-00010", "Alice")
		require.NoError(t, err)

		item, err := txn.AddItem(uuid.New(), "Product A", "PROD-A", decimal.NewFromInt(4),
			valueobject.NewMoneyUSD(decimal.RequireFromString("12.50")), valueobject.ZeroUSD(), decimal.Zero)
		require.NoError(t, err)

		price := item.GetUnitPriceMoney()
		assert.True(t, price.Amount().Equal(decimal.RequireFromString("12.50")))
	})

	t.Run("returns zero for a zero-quantity item", func(t *testing.T) {
		item := &TransactionItem{Quantity: decimal.Zero, TotalValue: decimal.NewFromInt(10)}
		assert.True(t, item.GetUnitPriceMoney().IsZero())
	})
}

func TestTransactionStatusTransitions(t *testing.T) {
	t.Run("approve requires items", func(t *testing.T) {
		txn, err := NewTransaction("TXN-260829-00004", "Alice")
		require.NoError(t, err)
		assert.Error(t, txn.Approve())
	})

	t.Run("pending to approved", func(t *testing.T) {
		txn := createApprovedTransaction(t, uuid.New())
		assert.Equal(t, TransactionStatusApproved, txn.Status)
		assert.True(t, txn.CanRefund())
	})

	t.Run("pending to failed", func(t *testing.T) {
		txn, err := NewTransaction("TXN-260829-00005", "Alice")
		require.NoError(t, err)
		require.NoError(t, txn.MarkFailed())
		assert.Equal(t, TransactionStatusFailed, txn.Status)
		assert.False(t, txn.CanRefund())
	})

	t.Run("approved to completed", func(t *testing.T) {
		txn := createApprovedTransaction(t, uuid.New())
		require.NoError(t, txn.Complete())
		assert.Equal(t, TransactionStatusCompleted, txn.Status)
	})

	t.Run("refunded is terminal", func(t *testing.T) {
		assert.False(t, TransactionStatusRefunded.CanTransitionTo(TransactionStatusApproved))
		assert.False(t, TransactionStatusRefunded.CanTransitionTo(TransactionStatusCompleted))
	})
}

func TestTransactionGetItemByProduct(t *testing.T) {
	productID := uuid.New()
	txn := createApprovedTransaction(t, productID)

	t.Run("finds existing item", func(t *testing.T) {
		item, err := txn.GetItemByProduct(productID)
		require.NoError(t, err)
		assert.Equal(t, productID, item.ProductID)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := txn.GetItemByProduct(uuid.New())
		assert.ErrorIs(t, err, shared.ErrItemNotFound)
	})
}

func TestTransactionApplyRefund(t *testing.T) {
	t.Run("partial refund keeps status approved", func(t *testing.T) {
		txn := createApprovedTransaction(t, uuid.New())

		require.NoError(t, txn.ApplyRefund(decimal.NewFromInt(50)))
		assert.True(t, txn.AccumulatedRefund.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, TransactionStatusApproved, txn.Status)
		assert.False(t, txn.IsFullyRefunded())
	})

	t.Run("full refund flips status to refunded", func(t *testing.T) {
		txn := createApprovedTransaction(t, uuid.New())

		require.NoError(t, txn.ApplyRefund(decimal.NewFromInt(50)))
		require.NoError(t, txn.ApplyRefund(decimal.NewFromInt(50)))
		assert.True(t, txn.IsFullyRefunded())
		assert.Equal(t, TransactionStatusRefunded, txn.Status)
	})

	t.Run("refund beyond total is rejected", func(t *testing.T) {
		txn := createApprovedTransaction(t, uuid.New())

		err := txn.ApplyRefund(decimal.NewFromInt(150))
		assert.ErrorIs(t, err, shared.ErrQuantityExceeded)
		assert.True(t, txn.AccumulatedRefund.IsZero())
	})

	t.Run("rejects refund on pending transaction", func(t *testing.T) {
		txn, err := NewTransaction("TXN-260829-00006", "Alice")
		require.NoError(t, err)

		err = txn.ApplyRefund(decimal.NewFromInt(10))
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		txn := createApprovedTransaction(t, uuid.New())
		assert.Error(t, txn.ApplyRefund(decimal.Zero))
	})
}

func TestTransactionItemApplyReconciliation(t *testing.T) {
	productID := uuid.New()
	txn := createApprovedTransaction(t, productID)
	item, err := txn.GetItemByProduct(productID)
	require.NoError(t, err)

	result, err := ReconcileItem(item.RemainingQuantity, item.RemainingAmount, decimal.NewFromInt(2))
	require.NoError(t, err)

	item.ApplyReconciliation(result)
	assert.True(t, item.RemainingQuantity.IsZero())
	assert.True(t, item.RemainingAmount.IsZero())
	assert.True(t, item.IsRefund)
}
