package sales

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pos/backoffice/internal/domain/shared"
)

// TransactionRepository defines the interface for sale transaction persistence
type TransactionRepository interface {
	// FindByID finds a transaction by ID with its line items
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByIDForUpdate finds a transaction by ID with its line items,
	// taking a row lock so concurrent refunds against the same sale
	// serialize. Must be called inside a unit of work.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByNumber finds a transaction by its number
	FindByNumber(ctx context.Context, number string) (*Transaction, error)

	// FindAll finds transactions with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Transaction, error)

	// Save creates or updates a transaction with its items
	Save(ctx context.Context, transaction *Transaction) error

	// SaveWithLock saves the aggregate with an optimistic version check.
	// Returns a concurrency conflict error if the row was modified since
	// it was read.
	SaveWithLock(ctx context.Context, transaction *Transaction) error

	// UpdateItems persists remaining-quantity changes on the given line items
	UpdateItems(ctx context.Context, items []TransactionItem) error

	// Count counts transactions matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// RefundRepository defines the interface for refund persistence
type RefundRepository interface {
	// FindByID finds a refund by ID with its items and transaction summary
	FindByID(ctx context.Context, id uuid.UUID) (*Refund, error)

	// FindByIdempotencyKey finds the refund previously committed for the
	// given idempotency key, or a not-found error
	FindByIdempotencyKey(ctx context.Context, key string) (*Refund, error)

	// FindAll finds refunds with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Refund, error)

	// Save creates a refund with its items
	Save(ctx context.Context, refund *Refund) error

	// Count counts refunds matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountCreatedSince counts refunds created at or after the given time,
	// used for day-scoped sequence numbering
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)

	// ExistsByNumber reports whether a refund with the given number exists
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// GenerateRefundNumber produces a unique day-scoped refund number
	GenerateRefundNumber(ctx context.Context) (string, error)
}

// Repositories bundles the repositories bound to one transaction handle
type Repositories interface {
	Transactions() TransactionRepository
	Refunds() RefundRepository
}

// UnitOfWork runs a function against transaction-bound repositories.
// Every write inside fn shares one storage transaction: if fn returns
// an error the whole unit rolls back and nothing is observable.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
