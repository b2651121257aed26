package sales

import (
	"github.com/shopspring/decimal"

	"github.com/pos/backoffice/internal/domain/shared"
)

// ReconcileResult is the outcome of applying a refund quantity to a
// line item's remaining balance
type ReconcileResult struct {
	NewRemainingQuantity decimal.Decimal
	NewRemainingAmount   decimal.Decimal
	FullyRefunded        bool
}

// ReconcileItem computes the updated remaining quantity and amount
// after refunding the requested quantity. The remaining amount scales
// proportionally so it reaches zero exactly when the quantity does.
func ReconcileItem(remainingQuantity, remainingAmount, requestedQuantity decimal.Decimal) (ReconcileResult, error) {
	if requestedQuantity.LessThanOrEqual(decimal.Zero) {
		return ReconcileResult{}, shared.ErrInvalidInput.WithMessage("Requested quantity must be positive")
	}
	if remainingQuantity.IsZero() {
		return ReconcileResult{}, shared.ErrQuantityExceeded.WithMessage("Line item has no refundable quantity left")
	}
	if requestedQuantity.GreaterThan(remainingQuantity) {
		return ReconcileResult{}, shared.ErrQuantityExceeded
	}

	newQuantity := remainingQuantity.Sub(requestedQuantity)

	var newAmount decimal.Decimal
	if newQuantity.IsZero() {
		newAmount = decimal.Zero
	} else {
		unit := remainingAmount.Div(remainingQuantity)
		newAmount = unit.Mul(newQuantity)
	}

	return ReconcileResult{
		NewRemainingQuantity: newQuantity,
		NewRemainingAmount:   newAmount,
		FullyRefunded:        newQuantity.IsZero(),
	}, nil
}

// RefundAmountForItem computes the refund amount for a requested
// quantity against a line item. The amount is based on the gross unit
// price (totalValue divided by the sale quantity), not the discounted
// net price. Register receipts were issued on the gross basis, so
// refunds mirror it.
func RefundAmountForItem(totalValue, quantity, requestedQuantity decimal.Decimal) (decimal.Decimal, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.ErrInvalidInput.WithMessage("Line item quantity must be positive")
	}
	if requestedQuantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.ErrInvalidInput.WithMessage("Requested quantity must be positive")
	}
	return totalValue.Div(quantity).Mul(requestedQuantity), nil
}
