package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/pos/backoffice/internal/domain/sales"
)

// GormUnitOfWork runs a function against repositories bound to one
// database transaction. If the function returns an error the whole
// transaction rolls back.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn inside a database transaction with tx-scoped repositories
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos sales.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &txRepositories{tx: tx})
	})
}

// txRepositories binds the sales repositories to one transaction handle
type txRepositories struct {
	tx *gorm.DB
}

func (r *txRepositories) Transactions() sales.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

func (r *txRepositories) Refunds() sales.RefundRepository {
	return NewGormRefundRepository(r.tx)
}

// Ensure GormUnitOfWork implements UnitOfWork
var _ sales.UnitOfWork = (*GormUnitOfWork)(nil)
