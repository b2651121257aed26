package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backoffice/internal/domain/shared"
	"github.com/pos/backoffice/internal/domain/shared/valueobject"
)

// TransactionStatus represents the status of a sale transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"   // Captured at the register, awaiting approval
	TransactionStatusApproved  TransactionStatus = "APPROVED"  // Settled, eligible for refunds
	TransactionStatusRefunded  TransactionStatus = "REFUNDED"  // Fully refunded
	TransactionStatusFailed    TransactionStatus = "FAILED"    // Payment capture failed
	TransactionStatusCompleted TransactionStatus = "COMPLETED" // Archived, no further mutation
)

// IsValid checks if the status is a valid TransactionStatus
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusApproved, TransactionStatusRefunded,
		TransactionStatusFailed, TransactionStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of TransactionStatus
func (s TransactionStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s TransactionStatus) CanTransitionTo(target TransactionStatus) bool {
	switch s {
	case TransactionStatusPending:
		return target == TransactionStatusApproved || target == TransactionStatusFailed
	case TransactionStatusApproved:
		return target == TransactionStatusRefunded || target == TransactionStatusCompleted
	case TransactionStatusRefunded, TransactionStatusFailed, TransactionStatusCompleted:
		return false // Terminal states
	}
	return false
}

// TransactionItem represents a line item in a sale transaction.
// Quantity is fixed at sale time; RemainingQuantity and RemainingAmount
// track the portion not yet consumed by refunds.
type TransactionItem struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	TransactionID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName       string          `gorm:"type:varchar(200);not null"`
	ProductCode       string          `gorm:"type:varchar(50);not null"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalValue        decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Gross line total before discount
	TotalCost         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountValue     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	NetPrice          decimal.Decimal `gorm:"type:decimal(18,4);not null"` // TotalValue - DiscountValue
	RemainingQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RemainingAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	IsRefund          bool            `gorm:"not null;default:false"` // True once RemainingQuantity reaches zero
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TransactionItem) TableName() string {
	return "transaction_items"
}

// NewTransactionItem creates a new transaction line item.
// RemainingQuantity and RemainingAmount start at the full sale values.
func NewTransactionItem(
	transactionID, productID uuid.UUID,
	productName, productCode string,
	quantity decimal.Decimal,
	unitPrice, unitCost valueobject.Money,
	discountValue decimal.Decimal,
) (*TransactionItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if discountValue.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}

	totalValue := quantity.Mul(unitPrice.Amount())
	if discountValue.GreaterThan(totalValue) {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed the line total")
	}

	now := time.Now()
	return &TransactionItem{
		ID:                uuid.New(),
		TransactionID:     transactionID,
		ProductID:         productID,
		ProductName:       productName,
		ProductCode:       productCode,
		Quantity:          quantity,
		TotalValue:        totalValue,
		TotalCost:         quantity.Mul(unitCost.Amount()),
		DiscountValue:     discountValue,
		NetPrice:          totalValue.Sub(discountValue),
		RemainingQuantity: quantity,
		RemainingAmount:   totalValue,
		IsRefund:          false,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// ApplyReconciliation applies a computed refund delta to the line item
func (i *TransactionItem) ApplyReconciliation(result ReconcileResult) {
	i.RemainingQuantity = result.NewRemainingQuantity
	i.RemainingAmount = result.NewRemainingAmount
	i.IsRefund = result.FullyRefunded
	i.UpdatedAt = time.Now()
}

// GetUnitPriceMoney returns the gross unit price as a Money value object
func (i *TransactionItem) GetUnitPriceMoney() valueobject.Money {
	if i.Quantity.IsZero() {
		return valueobject.ZeroUSD()
	}
	return valueobject.NewMoneyUSD(i.TotalValue.Div(i.Quantity))
}

// Transaction represents a sale aggregate root.
// It owns its line items; refund processing mutates the items and the
// accumulated refund through the aggregate only.
type Transaction struct {
	shared.BaseAggregateRoot
	TransactionNumber string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	CashierName       string            `gorm:"type:varchar(100)"`
	Status            TransactionStatus `gorm:"type:varchar(20);not null;index"`
	TotalValue        decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	TotalCost         decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	TotalDiscount     decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	AccumulatedRefund decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Items             []TransactionItem `gorm:"foreignKey:TransactionID"`
}

// TableName returns the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}

// NewTransaction creates a new sale transaction in PENDING status
func NewTransaction(transactionNumber, cashierName string) (*Transaction, error) {
	if transactionNumber == "" {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_NUMBER", "Transaction number cannot be empty")
	}
	if len(transactionNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_NUMBER", "Transaction number cannot exceed 50 characters")
	}

	return &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TransactionNumber: transactionNumber,
		CashierName:       cashierName,
		Status:            TransactionStatusPending,
		TotalValue:        decimal.Zero,
		TotalCost:         decimal.Zero,
		TotalDiscount:     decimal.Zero,
		AccumulatedRefund: decimal.Zero,
		Items:             make([]TransactionItem, 0),
	}, nil
}

// AddItem adds a line item to the transaction
// Only allowed in PENDING status
func (t *Transaction) AddItem(
	productID uuid.UUID,
	productName, productCode string,
	quantity decimal.Decimal,
	unitPrice, unitCost valueobject.Money,
	discountValue decimal.Decimal,
) (*TransactionItem, error) {
	if t.Status != TransactionStatusPending {
		return nil, shared.ErrInvalidState.WithMessage("Cannot add items to a non-pending transaction")
	}
	for _, item := range t.Items {
		if item.ProductID == productID {
			return nil, shared.NewDomainError("DUPLICATE_ITEM", "Product already exists on this transaction")
		}
	}

	item, err := NewTransactionItem(t.ID, productID, productName, productCode, quantity, unitPrice, unitCost, discountValue)
	if err != nil {
		return nil, err
	}

	t.Items = append(t.Items, *item)
	t.recalculateTotals()
	t.UpdatedAt = time.Now()

	return item, nil
}

// Approve moves the transaction into APPROVED status, making it
// eligible for refunds
func (t *Transaction) Approve() error {
	if !t.Status.CanTransitionTo(TransactionStatusApproved) {
		return shared.ErrInvalidState.WithMessage("Only pending transactions can be approved")
	}
	if len(t.Items) == 0 {
		return shared.ErrInvalidState.WithMessage("Cannot approve a transaction without items")
	}
	t.Status = TransactionStatusApproved
	t.UpdatedAt = time.Now()
	return nil
}

// MarkFailed moves the transaction into FAILED status
func (t *Transaction) MarkFailed() error {
	if !t.Status.CanTransitionTo(TransactionStatusFailed) {
		return shared.ErrInvalidState.WithMessage("Only pending transactions can be marked failed")
	}
	t.Status = TransactionStatusFailed
	t.UpdatedAt = time.Now()
	return nil
}

// Complete archives an approved transaction
func (t *Transaction) Complete() error {
	if !t.Status.CanTransitionTo(TransactionStatusCompleted) {
		return shared.ErrInvalidState.WithMessage("Only approved transactions can be completed")
	}
	t.Status = TransactionStatusCompleted
	t.UpdatedAt = time.Now()
	return nil
}

// CanRefund returns true if the transaction accepts refund requests
func (t *Transaction) CanRefund() bool {
	return t.Status == TransactionStatusApproved
}

// GetItemByProduct returns the line item for the given product
func (t *Transaction) GetItemByProduct(productID uuid.UUID) (*TransactionItem, error) {
	for idx := range t.Items {
		if t.Items[idx].ProductID == productID {
			return &t.Items[idx], nil
		}
	}
	return nil, shared.ErrItemNotFound
}

// ApplyRefund records a committed refund amount on the aggregate.
// The transaction becomes REFUNDED only when the accumulated refund
// equals the total value exactly.
func (t *Transaction) ApplyRefund(amount decimal.Decimal) error {
	if !t.CanRefund() {
		return shared.ErrInvalidState.WithMessage("Transaction is not in a refundable state")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidInput.WithMessage("Refund amount must be positive")
	}

	newAccumulated := t.AccumulatedRefund.Add(amount)
	if newAccumulated.GreaterThan(t.TotalValue) {
		return shared.ErrQuantityExceeded.WithMessage("Accumulated refund cannot exceed the transaction total")
	}

	t.AccumulatedRefund = newAccumulated
	if newAccumulated.Equal(t.TotalValue) {
		t.Status = TransactionStatusRefunded
	}
	t.UpdatedAt = time.Now()
	return nil
}

// IsFullyRefunded returns true once the accumulated refund covers the total
func (t *Transaction) IsFullyRefunded() bool {
	return t.AccumulatedRefund.Equal(t.TotalValue)
}

func (t *Transaction) recalculateTotals() {
	total := decimal.Zero
	cost := decimal.Zero
	discount := decimal.Zero
	for _, item := range t.Items {
		total = total.Add(item.TotalValue)
		cost = cost.Add(item.TotalCost)
		discount = discount.Add(item.DiscountValue)
	}
	t.TotalValue = total
	t.TotalCost = cost
	t.TotalDiscount = discount
}
