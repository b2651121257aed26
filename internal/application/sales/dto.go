package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backoffice/internal/domain/sales"
	"github.com/pos/backoffice/internal/domain/shared"
)

// CreateTransactionRequest represents a request to record a sale
type CreateTransactionRequest struct {
	CashierName string                       `json:"cashier_name"`
	Items       []CreateTransactionItemInput `json:"items" binding:"required,min=1"`
}

// CreateTransactionItemInput represents a line item in the create sale request
type CreateTransactionItemInput struct {
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	ProductName   string          `json:"product_name" binding:"required"`
	ProductCode   string          `json:"product_code"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice     decimal.Decimal `json:"unit_price" binding:"required"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// TransactionItemResponse represents a line item in API responses
type TransactionItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	ProductCode       string          `json:"product_code"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	TotalValue        decimal.Decimal `json:"total_value"`
	DiscountValue     decimal.Decimal `json:"discount_value"`
	NetPrice          decimal.Decimal `json:"net_price"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	RemainingAmount   decimal.Decimal `json:"remaining_amount"`
	IsRefund          bool            `json:"is_refund"`
}

// TransactionResponse represents a sale transaction in API responses
type TransactionResponse struct {
	ID                uuid.UUID                 `json:"id"`
	TransactionNumber string                    `json:"transaction_number"`
	CashierName       string                    `json:"cashier_name"`
	Status            string                    `json:"status"`
	TotalValue        decimal.Decimal           `json:"total_value"`
	TotalCost         decimal.Decimal           `json:"total_cost"`
	TotalDiscount     decimal.Decimal           `json:"total_discount"`
	AccumulatedRefund decimal.Decimal           `json:"accumulated_refund"`
	Items             []TransactionItemResponse `json:"items"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// TransactionSummaryResponse represents a sale in nested responses (less detail)
type TransactionSummaryResponse struct {
	ID                uuid.UUID       `json:"id"`
	TransactionNumber string          `json:"transaction_number"`
	Status            string          `json:"status"`
	TotalValue        decimal.Decimal `json:"total_value"`
	AccumulatedRefund decimal.Decimal `json:"accumulated_refund"`
}

// CreateRefundRequest represents a request to refund part or all of a sale
type CreateRefundRequest struct {
	TransactionID  uuid.UUID               `json:"transaction_id" binding:"required"`
	RefundReason   string                  `json:"refund_reason" binding:"required,min=1,max=500"`
	Items          []CreateRefundItemInput `json:"items" binding:"required,min=1,dive"`
	IdempotencyKey string                  `json:"-"`
}

// CreateRefundItemInput represents an item in the refund request
type CreateRefundItemInput struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// RefundSummaryResponse is the result of a successful refund creation
type RefundSummaryResponse struct {
	ID            uuid.UUID       `json:"id"`
	RefundNumber  string          `json:"refund_number"`
	RefundAmount  decimal.Decimal `json:"refund_amount"`
	RefundReason  string          `json:"refund_reason"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// RefundItemResponse represents a refunded product line in API responses
type RefundItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductCode  string          `json:"product_code"`
	Quantity     decimal.Decimal `json:"quantity"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

// RefundResponse represents a full refund with nested sale summary
type RefundResponse struct {
	ID            uuid.UUID                   `json:"id"`
	RefundNumber  string                      `json:"refund_number"`
	RefundAmount  decimal.Decimal             `json:"refund_amount"`
	RefundReason  string                      `json:"refund_reason"`
	TransactionID uuid.UUID                   `json:"transaction_id"`
	Transaction   *TransactionSummaryResponse `json:"transaction,omitempty"`
	Items         []RefundItemResponse        `json:"items"`
	CreatedAt     time.Time                   `json:"created_at"`
}

// RefundListResponse represents a paginated refund list
type RefundListResponse struct {
	Refunds    []RefundResponse   `json:"refunds"`
	Pagination PaginationResponse `json:"pagination"`
}

// TransactionListResponse represents a paginated transaction list
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Pagination   PaginationResponse    `json:"pagination"`
}

// PaginationResponse carries paging metadata for list responses
type PaginationResponse struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
}

// ListFilter represents common list query options
type ListFilter struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

// ToSharedFilter converts the query options to a repository filter
func (f ListFilter) ToSharedFilter() shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.Limit > 0 && f.Limit <= 100 {
		filter.PageSize = f.Limit
	}
	if f.SortBy != "" {
		filter.OrderBy = f.SortBy
	}
	if f.SortOrder != "" {
		filter.OrderDir = f.SortOrder
	}
	return filter
}

// ToTransactionItemResponse converts a domain line item to a response DTO
func ToTransactionItemResponse(item *sales.TransactionItem) TransactionItemResponse {
	return TransactionItemResponse{
		ID:                item.ID,
		ProductID:         item.ProductID,
		ProductName:       item.ProductName,
		ProductCode:       item.ProductCode,
		Quantity:          item.Quantity,
		UnitPrice:         item.GetUnitPriceMoney().Amount(),
		TotalValue:        item.TotalValue,
		DiscountValue:     item.DiscountValue,
		NetPrice:          item.NetPrice,
		RemainingQuantity: item.RemainingQuantity,
		RemainingAmount:   item.RemainingAmount,
		IsRefund:          item.IsRefund,
	}
}

// ToTransactionResponse converts a domain transaction to a response DTO
func ToTransactionResponse(txn *sales.Transaction) TransactionResponse {
	items := make([]TransactionItemResponse, len(txn.Items))
	for i := range txn.Items {
		items[i] = ToTransactionItemResponse(&txn.Items[i])
	}
	return TransactionResponse{
		ID:                txn.ID,
		TransactionNumber: txn.TransactionNumber,
		CashierName:       txn.CashierName,
		Status:            txn.Status.String(),
		TotalValue:        txn.TotalValue,
		TotalCost:         txn.TotalCost,
		TotalDiscount:     txn.TotalDiscount,
		AccumulatedRefund: txn.AccumulatedRefund,
		Items:             items,
		CreatedAt:         txn.CreatedAt,
		UpdatedAt:         txn.UpdatedAt,
	}
}

// ToTransactionSummaryResponse converts a domain transaction to a nested summary
func ToTransactionSummaryResponse(txn *sales.Transaction) TransactionSummaryResponse {
	return TransactionSummaryResponse{
		ID:                txn.ID,
		TransactionNumber: txn.TransactionNumber,
		Status:            txn.Status.String(),
		TotalValue:        txn.TotalValue,
		AccumulatedRefund: txn.AccumulatedRefund,
	}
}

// ToRefundSummaryResponse converts a domain refund to the creation result DTO
func ToRefundSummaryResponse(refund *sales.Refund) RefundSummaryResponse {
	return RefundSummaryResponse{
		ID:            refund.ID,
		RefundNumber:  refund.RefundNumber,
		RefundAmount:  refund.RefundAmount,
		RefundReason:  refund.RefundReason,
		TransactionID: refund.TransactionID,
		CreatedAt:     refund.CreatedAt,
	}
}

// ToRefundResponse converts a domain refund to the full response DTO
func ToRefundResponse(refund *sales.Refund) RefundResponse {
	items := make([]RefundItemResponse, len(refund.Items))
	for i, item := range refund.Items {
		items[i] = RefundItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductCode:  item.ProductCode,
			Quantity:     item.Quantity,
			RefundAmount: item.RefundAmount,
		}
	}

	resp := RefundResponse{
		ID:            refund.ID,
		RefundNumber:  refund.RefundNumber,
		RefundAmount:  refund.RefundAmount,
		RefundReason:  refund.RefundReason,
		TransactionID: refund.TransactionID,
		Items:         items,
		CreatedAt:     refund.CreatedAt,
	}
	if refund.Transaction != nil {
		summary := ToTransactionSummaryResponse(refund.Transaction)
		resp.Transaction = &summary
	}
	return resp
}
