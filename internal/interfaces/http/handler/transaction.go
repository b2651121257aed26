package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	salesapp "github.com/pos/backoffice/internal/application/sales"
)

// TransactionHandler handles sale transaction-related API endpoints
type TransactionHandler struct {
	BaseHandler
	transactionService *salesapp.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *salesapp.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// CreateTransactionRequest represents a request to record a new sale
type CreateTransactionRequest struct {
	CashierName string                       `json:"cashier_name" binding:"required,min=1,max=100"`
	Items       []CreateTransactionItemInput `json:"items" binding:"required,min=1"`
}

// CreateTransactionItemInput represents a line item in the create sale request
type CreateTransactionItemInput struct {
	ProductID     uuid.UUID `json:"product_id" binding:"required"`
	ProductName   string    `json:"product_name" binding:"required"`
	ProductCode   string    `json:"product_code"`
	Quantity      float64   `json:"quantity" binding:"required,gt=0"`
	UnitPrice     float64   `json:"unit_price" binding:"required,gt=0"`
	UnitCost      float64   `json:"unit_cost"`
	DiscountValue float64   `json:"discount_value"`
}

// TransactionItemResponse represents a sale line item in API responses
type TransactionItemResponse struct {
	ID                string  `json:"id"`
	ProductID         string  `json:"product_id"`
	ProductName       string  `json:"product_name"`
	ProductCode       string  `json:"product_code"`
	Quantity          float64 `json:"quantity"`
	TotalValue        float64 `json:"total_value"`
	DiscountValue     float64 `json:"discount_value"`
	NetPrice          float64 `json:"net_price"`
	RemainingQuantity float64 `json:"remaining_quantity"`
	RemainingAmount   float64 `json:"remaining_amount"`
	IsRefund          bool    `json:"is_refund"`
}

// TransactionResponse represents a sale transaction in API responses
type TransactionResponse struct {
	ID                string                    `json:"id"`
	TransactionNumber string                    `json:"transaction_number"`
	CashierName       string                    `json:"cashier_name"`
	Status            string                    `json:"status"`
	TotalValue        float64                   `json:"total_value"`
	TotalCost         float64                   `json:"total_cost"`
	TotalDiscount     float64                   `json:"total_discount"`
	AccumulatedRefund float64                   `json:"accumulated_refund"`
	Items             []TransactionItemResponse `json:"items"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// Create records a new sale transaction in PENDING status
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := salesapp.CreateTransactionRequest{
		CashierName: req.CashierName,
	}
	for _, item := range req.Items {
		appReq.Items = append(appReq.Items, salesapp.CreateTransactionItemInput{
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			ProductCode:   item.ProductCode,
			Quantity:      decimal.NewFromFloat(item.Quantity),
			UnitPrice:     decimal.NewFromFloat(item.UnitPrice),
			UnitCost:      decimal.NewFromFloat(item.UnitCost),
			DiscountValue: decimal.NewFromFloat(item.DiscountValue),
		})
	}

	txn, err := h.transactionService.Create(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toTransactionResponse(txn))
}

// Approve finalizes a pending sale, making it eligible for refunds
func (h *TransactionHandler) Approve(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	txn, err := h.transactionService.Approve(c.Request.Context(), transactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toTransactionResponse(txn))
}

// GetByID retrieves a sale transaction by its ID
func (h *TransactionHandler) GetByID(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	txn, err := h.transactionService.GetByID(c.Request.Context(), transactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toTransactionResponse(txn))
}

// List retrieves a paginated list of sale transactions
func (h *TransactionHandler) List(c *gin.Context) {
	var filter salesapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.transactionService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toTransactionResponses(result.Transactions),
		result.Pagination.TotalItems, result.Pagination.CurrentPage, result.Pagination.PageSize)
}

// toTransactionResponse converts an application transaction to a handler response
func toTransactionResponse(txn *salesapp.TransactionResponse) TransactionResponse {
	items := make([]TransactionItemResponse, len(txn.Items))
	for i, item := range txn.Items {
		items[i] = TransactionItemResponse{
			ID:                item.ID.String(),
			ProductID:         item.ProductID.String(),
			ProductName:       item.ProductName,
			ProductCode:       item.ProductCode,
			Quantity:          item.Quantity.InexactFloat64(),
			TotalValue:        item.TotalValue.InexactFloat64(),
			DiscountValue:     item.DiscountValue.InexactFloat64(),
			NetPrice:          item.NetPrice.InexactFloat64(),
			RemainingQuantity: item.RemainingQuantity.InexactFloat64(),
			RemainingAmount:   item.RemainingAmount.InexactFloat64(),
			IsRefund:          item.IsRefund,
		}
	}

	return TransactionResponse{
		ID:                txn.ID.String(),
		TransactionNumber: txn.TransactionNumber,
		CashierName:       txn.CashierName,
		Status:            txn.Status,
		TotalValue:        txn.TotalValue.InexactFloat64(),
		TotalCost:         txn.TotalCost.InexactFloat64(),
		TotalDiscount:     txn.TotalDiscount.InexactFloat64(),
		AccumulatedRefund: txn.AccumulatedRefund.InexactFloat64(),
		Items:             items,
		CreatedAt:         txn.CreatedAt,
		UpdatedAt:         txn.UpdatedAt,
	}
}

// toTransactionResponses converts application transactions to handler responses
func toTransactionResponses(txns []salesapp.TransactionResponse) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = toTransactionResponse(&txns[i])
	}
	return responses
}
