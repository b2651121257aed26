package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pos/backoffice/internal/domain/sales"
	"github.com/pos/backoffice/internal/domain/shared"
	"github.com/pos/backoffice/internal/domain/shared/valueobject"
)

func usd(t *testing.T, amount string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyUSDFromString(amount)
	require.NoError(t, err)
	return m
}

func newMockTransactionRepository(t *testing.T) (*GormTransactionRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormTransactionRepository(gormDB), mock, mockDB
}

func transactionRows(id uuid.UUID) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "version",
		"transaction_number", "cashier_name", "status",
		"total_value", "total_cost", "total_discount", "accumulated_refund",
	}).AddRow(
		id, now, now, 1,
		"TXN-260829-abc12345", "Jamie", string(sales.TransactionStatusApproved),
		decimal.RequireFromString("100"), decimal.RequireFromString("60"),
		decimal.Zero, decimal.Zero,
	)
}

func TestGormTransactionRepository_FindByID(t *testing.T) {
	t.Run("finds existing transaction with items", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		txnID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "transactions" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(txnID, 1).
			WillReturnRows(transactionRows(txnID))

		mock.ExpectQuery(`SELECT \* FROM "transaction_items" WHERE "transaction_items"\."transaction_id" = \$1`).
			WithArgs(txnID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "transaction_id", "product_id"}))

		txn, err := repo.FindByID(context.Background(), txnID)

		assert.NoError(t, err)
		assert.NotNil(t, txn)
		assert.Equal(t, txnID, txn.ID)
		assert.Equal(t, "TXN-260829-abc12345", txn.TransactionNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing transaction", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		txnID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "transactions" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(txnID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		txn, err := repo.FindByID(context.Background(), txnID)

		assert.Nil(t, txn)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTransactionRepository_FindByIDForUpdate(t *testing.T) {
	t.Run("locks the row and loads items", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		txnID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "transactions" WHERE id = \$1 ORDER BY .* FOR UPDATE`).
			WithArgs(txnID, 1).
			WillReturnRows(transactionRows(txnID))

		mock.ExpectQuery(`SELECT \* FROM "transaction_items" WHERE transaction_id = \$1 ORDER BY created_at ASC`).
			WithArgs(txnID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "transaction_id", "product_id"}))

		txn, err := repo.FindByIDForUpdate(context.Background(), txnID)

		assert.NoError(t, err)
		assert.NotNil(t, txn)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing transaction", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		txnID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "transactions" WHERE id = \$1 ORDER BY .* FOR UPDATE`).
			WithArgs(txnID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		txn, err := repo.FindByIDForUpdate(context.Background(), txnID)

		assert.Nil(t, txn)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormTransactionRepository_SaveWithLock(t *testing.T) {
	newApproved := func(t *testing.T) *sales.Transaction {
		t.Helper()
		txn, err := sales.NewTransaction("TXN-260829-abc12345", "Jamie")
		require.NoError(t, err)
		_, err = txn.AddItem(
			uuid.New(), "Espresso", "SKU-1",
			decimal.RequireFromString("2"),
			usd(t, "50"), usd(t, "30"),
			decimal.Zero,
		)
		require.NoError(t, err)
		require.NoError(t, txn.Approve())
		return txn
	}

	t.Run("updates row and bumps version", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		txn := newApproved(t)

		mock.ExpectExec(`UPDATE "transactions" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveWithLock(context.Background(), txn)

		assert.NoError(t, err)
		assert.Equal(t, 2, txn.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports conflict when version moved on", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		txn := newApproved(t)

		mock.ExpectExec(`UPDATE "transactions" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), txn)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 1, txn.Version, "version should be restored on failure")
	})
}

func TestGormTransactionRepository_UpdateItems(t *testing.T) {
	t.Run("no items is a no-op", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		err := repo.UpdateItems(context.Background(), nil)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("updates remaining fields per item", func(t *testing.T) {
		repo, mock, mockDB := newMockTransactionRepository(t)
		defer mockDB.Close()

		item, err := sales.NewTransactionItem(
			uuid.New(), uuid.New(), "Espresso", "SKU-1",
			decimal.RequireFromString("2"),
			usd(t, "50"), usd(t, "30"),
			decimal.Zero,
		)
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "transaction_items" SET .* WHERE id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = repo.UpdateItems(context.Background(), []sales.TransactionItem{*item})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTransactionRepository_Count(t *testing.T) {
	repo, mock, mockDB := newMockTransactionRepository(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.Count(context.Background(), shared.DefaultFilter())

	assert.NoError(t, err)
	assert.Equal(t, int64(7), count)
}
