package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pos/backoffice/internal/domain/sales"
	"github.com/pos/backoffice/internal/domain/shared"
)

// GormTransactionRepository implements TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction by its ID with line items
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Transaction, error) {
	var txn sales.Transaction
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&txn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// FindByIDForUpdate loads the transaction row under SELECT ... FOR UPDATE
// so concurrent refunds against the same sale serialize. Only meaningful
// when the receiver's db handle is a transaction.
func (r *GormTransactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*sales.Transaction, error) {
	var txn sales.Transaction
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&txn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	// Items are loaded separately: FOR UPDATE cannot be combined with the
	// preload join and the lock on the parent row is what serializes writers
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", id).
		Order("created_at ASC").
		Find(&txn.Items).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// FindByNumber finds a transaction by its number
func (r *GormTransactionRepository) FindByNumber(ctx context.Context, number string) (*sales.Transaction, error) {
	var txn sales.Transaction
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("transaction_number = ?", number).
		First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// FindAll finds transactions with filtering and pagination
func (r *GormTransactionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sales.Transaction, error) {
	var txns []sales.Transaction
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&sales.Transaction{}).Preload("Items"),
		filter,
	)

	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// Save creates or updates a transaction with its items
func (r *GormTransactionRepository) Save(ctx context.Context, txn *sales.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(txn).Error; err != nil {
			return err
		}

		for i := range txn.Items {
			txn.Items[i].TransactionID = txn.ID
			if err := tx.Save(&txn.Items[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// SaveWithLock saves the aggregate root with an optimistic version check
func (r *GormTransactionRepository) SaveWithLock(ctx context.Context, txn *sales.Transaction) error {
	currentVersion := txn.Version
	txn.Version++
	txn.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&sales.Transaction{}).
		Where("id = ? AND version = ?", txn.ID, currentVersion).
		Updates(map[string]interface{}{
			"status":             txn.Status,
			"total_value":        txn.TotalValue,
			"total_cost":         txn.TotalCost,
			"total_discount":     txn.TotalDiscount,
			"accumulated_refund": txn.AccumulatedRefund,
			"version":            txn.Version,
			"updated_at":         txn.UpdatedAt,
		})

	if result.Error != nil {
		txn.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		txn.Version = currentVersion
		return shared.ErrConcurrencyConflict.WithMessage("The sale was modified by another request")
	}
	return nil
}

// UpdateItems persists remaining-quantity changes on the given line items
func (r *GormTransactionRepository) UpdateItems(ctx context.Context, items []sales.TransactionItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for i := range items {
			result := tx.Model(&sales.TransactionItem{}).
				Where("id = ?", items[i].ID).
				Updates(map[string]interface{}{
					"remaining_quantity": items[i].RemainingQuantity,
					"remaining_amount":   items[i].RemainingAmount,
					"is_refund":          items[i].IsRefund,
					"updated_at":         now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.ErrNotFound.WithMessage("Sale line item no longer exists")
			}
		}
		return nil
	})
}

// Count counts transactions matching the filter
func (r *GormTransactionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&sales.Transaction{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, TransactionSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

func (r *GormTransactionRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "cashier_name":
			if s, ok := value.(string); ok && s != "" {
				query = query.Where("cashier_name ILIKE ?", "%"+strings.TrimSpace(s)+"%")
			}
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		}
	}
	return query
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ sales.TransactionRepository = (*GormTransactionRepository)(nil)
