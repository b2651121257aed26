package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pos/backoffice/internal/domain/sales"
	"github.com/pos/backoffice/internal/domain/shared"
)

// maxRefundNumberAttempts bounds the retry loop when generated numbers collide
const maxRefundNumberAttempts = 100

// GormRefundRepository implements RefundRepository using GORM
type GormRefundRepository struct {
	db *gorm.DB
}

// NewGormRefundRepository creates a new GormRefundRepository
func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// FindByID finds a refund by its ID with items and the originating sale
func (r *GormRefundRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Refund, error) {
	var refund sales.Refund
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Transaction").
		First(&refund, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &refund, nil
}

// FindByIdempotencyKey finds the refund previously committed for a key
func (r *GormRefundRepository) FindByIdempotencyKey(ctx context.Context, key string) (*sales.Refund, error) {
	var refund sales.Refund
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Transaction").
		Where("idempotency_key = ?", key).
		First(&refund).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &refund, nil
}

// FindAll finds refunds with filtering and pagination
func (r *GormRefundRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sales.Refund, error) {
	var refunds []sales.Refund
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&sales.Refund{}).Preload("Items"),
		filter,
	)

	if err := query.Find(&refunds).Error; err != nil {
		return nil, err
	}
	return refunds, nil
}

// Save creates a refund with its items.
// A unique violation on refund_number means a concurrent request claimed
// the same candidate number; the caller can retry with a fresh one.
func (r *GormRefundRepository) Save(ctx context.Context, refund *sales.Refund) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items", "Transaction").Save(refund).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrConcurrencyConflict.WithMessage("Refund number was claimed by a concurrent request")
			}
			return err
		}

		for i := range refund.Items {
			refund.Items[i].RefundID = refund.ID
			if err := tx.Save(&refund.Items[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Count counts refunds matching the filter
func (r *GormRefundRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&sales.Refund{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountCreatedSince counts refunds created at or after the given time
func (r *GormRefundRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&sales.Refund{}).
		Where("created_at >= ?", since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByNumber reports whether a refund with the given number exists
func (r *GormRefundRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&sales.Refund{}).
		Where("refund_number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateRefundNumber produces a unique refund number.
// Format: REFUND-YYMMDD-NNNNN where NNNNN restarts each day.
// The unique constraint on refund_number is the final arbiter; this only
// picks a candidate unlikely to collide.
func (r *GormRefundRepository) GenerateRefundNumber(ctx context.Context) (string, error) {
	now := time.Now()
	prefix := fmt.Sprintf("REFUND-%s-", now.Format("060102"))
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	countToday, err := r.CountCreatedSince(ctx, midnight)
	if err != nil {
		return "", err
	}

	seq := countToday + 1
	for attempt := 0; attempt < maxRefundNumberAttempts; attempt++ {
		candidate := fmt.Sprintf("%s%05d", prefix, seq)
		exists, err := r.ExistsByNumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		seq++
	}

	return "", shared.ErrPersistence.WithMessage("Unable to allocate a unique refund number")
}

func (r *GormRefundRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, RefundSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

func (r *GormRefundRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "transaction_id":
			query = query.Where("transaction_id = ?", value)
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

// Ensure GormRefundRepository implements RefundRepository
var _ sales.RefundRepository = (*GormRefundRepository)(nil)
