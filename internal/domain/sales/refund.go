package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backoffice/internal/domain/shared"
)

// RefundItem records the quantity of one product refunded within a
// single refund event. Created once, never mutated.
type RefundItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	RefundID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName  string          `gorm:"type:varchar(200);not null"`
	ProductCode  string          `gorm:"type:varchar(50);not null"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RefundAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RefundItem) TableName() string {
	return "refund_items"
}

// Refund represents money returned against part or all of a sale.
// Refunds are append-only history: immutable after creation.
type Refund struct {
	shared.BaseAggregateRoot
	RefundNumber   string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	TransactionID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	RefundAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RefundReason   string          `gorm:"type:varchar(500);not null"`
	IdempotencyKey *string         `gorm:"type:varchar(100);uniqueIndex"`
	Items          []RefundItem    `gorm:"foreignKey:RefundID"`
	Transaction    *Transaction    `gorm:"foreignKey:TransactionID"`
}

// TableName returns the table name for GORM
func (Refund) TableName() string {
	return "refunds"
}

// NewRefund creates a refund against the given transaction.
// The refund number is assigned later, inside the commit unit, so the
// generator can retry on collision.
func NewRefund(transactionID uuid.UUID, refundReason string, idempotencyKey *string) (*Refund, error) {
	if transactionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TRANSACTION", "Transaction ID cannot be empty")
	}
	if refundReason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Refund reason cannot be empty")
	}
	if len(refundReason) > 500 {
		return nil, shared.NewDomainError("INVALID_REASON", "Refund reason cannot exceed 500 characters")
	}
	if idempotencyKey != nil && *idempotencyKey == "" {
		idempotencyKey = nil
	}

	return &Refund{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TransactionID:     transactionID,
		RefundAmount:      decimal.Zero,
		RefundReason:      refundReason,
		IdempotencyKey:    idempotencyKey,
		Items:             make([]RefundItem, 0),
	}, nil
}

// AssignNumber sets the generated refund number
func (r *Refund) AssignNumber(number string) error {
	if number == "" {
		return shared.NewDomainError("INVALID_REFUND_NUMBER", "Refund number cannot be empty")
	}
	if len(number) > 50 {
		return shared.NewDomainError("INVALID_REFUND_NUMBER", "Refund number cannot exceed 50 characters")
	}
	r.RefundNumber = number
	r.UpdatedAt = time.Now()
	return nil
}

// AddItem appends a refunded product line and rolls its amount into
// the refund total
func (r *Refund) AddItem(item *TransactionItem, quantity, amount decimal.Decimal) (*RefundItem, error) {
	if item == nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Transaction item cannot be nil")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Refund quantity must be positive")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Refund amount cannot be negative")
	}
	for _, existing := range r.Items {
		if existing.ProductID == item.ProductID {
			return nil, shared.NewDomainError("DUPLICATE_ITEM", "Product already included in this refund")
		}
	}

	refundItem := RefundItem{
		ID:           uuid.New(),
		RefundID:     r.ID,
		ProductID:    item.ProductID,
		ProductName:  item.ProductName,
		ProductCode:  item.ProductCode,
		Quantity:     quantity,
		RefundAmount: amount,
		CreatedAt:    time.Now(),
	}

	r.Items = append(r.Items, refundItem)
	r.recalculateTotal()
	r.UpdatedAt = time.Now()

	return &refundItem, nil
}

func (r *Refund) recalculateTotal() {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.RefundAmount)
	}
	r.RefundAmount = total
}
