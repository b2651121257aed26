package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	salesapp "github.com/pos/backoffice/internal/application/sales"
)

// RefundHandler handles refund-related API endpoints
type RefundHandler struct {
	BaseHandler
	refundService *salesapp.RefundService
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(refundService *salesapp.RefundService) *RefundHandler {
	return &RefundHandler{
		refundService: refundService,
	}
}

// CreateRefundRequest represents a request to refund part or all of a sale
type CreateRefundRequest struct {
	TransactionID string                  `json:"transaction_id" binding:"required,uuid"`
	RefundReason  string                  `json:"refund_reason" binding:"required,min=1,max=500"`
	Items         []CreateRefundItemInput `json:"items" binding:"required,min=1"`
}

// CreateRefundItemInput represents an item in the refund request
type CreateRefundItemInput struct {
	ProductID string  `json:"product_id" binding:"required,uuid"`
	Quantity  float64 `json:"quantity" binding:"required,gt=0"`
}

// RefundCreatedResponse represents the result of a successful refund
type RefundCreatedResponse struct {
	ID            string    `json:"id"`
	RefundNumber  string    `json:"refund_number"`
	RefundAmount  float64   `json:"refund_amount"`
	RefundReason  string    `json:"refund_reason"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// RefundItemResponse represents a refunded product line in API responses
type RefundItemResponse struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductCode  string  `json:"product_code"`
	Quantity     float64 `json:"quantity"`
	RefundAmount float64 `json:"refund_amount"`
}

// TransactionSummaryResponse represents the refunded sale in nested responses
type TransactionSummaryResponse struct {
	ID                string  `json:"id"`
	TransactionNumber string  `json:"transaction_number"`
	Status            string  `json:"status"`
	TotalValue        float64 `json:"total_value"`
	AccumulatedRefund float64 `json:"accumulated_refund"`
}

// RefundResponse represents a refund in API responses
type RefundResponse struct {
	ID            string                      `json:"id"`
	RefundNumber  string                      `json:"refund_number"`
	RefundAmount  float64                     `json:"refund_amount"`
	RefundReason  string                      `json:"refund_reason"`
	TransactionID string                      `json:"transaction_id"`
	Transaction   *TransactionSummaryResponse `json:"transaction,omitempty"`
	Items         []RefundItemResponse        `json:"items"`
	CreatedAt     time.Time                   `json:"created_at"`
}

// Create processes a refund against an approved sale transaction.
// Clients may supply an Idempotency-Key header to make retries safe.
func (h *RefundHandler) Create(c *gin.Context) {
	var req CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	appReq := salesapp.CreateRefundRequest{
		TransactionID:  transactionID,
		RefundReason:   req.RefundReason,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	}

	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		appReq.Items = append(appReq.Items, salesapp.CreateRefundItemInput{
			ProductID: productID,
			Quantity:  decimal.NewFromFloat(item.Quantity),
		})
	}

	refund, err := h.refundService.Create(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toRefundCreatedResponse(refund))
}

// GetByID retrieves a refund by its ID
func (h *RefundHandler) GetByID(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid refund ID format")
		return
	}

	refund, err := h.refundService.GetByID(c.Request.Context(), refundID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toRefundResponse(refund))
}

// List retrieves a paginated list of refunds
func (h *RefundHandler) List(c *gin.Context) {
	var filter salesapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.refundService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toRefundResponses(result.Refunds),
		result.Pagination.TotalItems, result.Pagination.CurrentPage, result.Pagination.PageSize)
}

// toRefundCreatedResponse converts the application creation result to a handler response
func toRefundCreatedResponse(r *salesapp.RefundSummaryResponse) RefundCreatedResponse {
	return RefundCreatedResponse{
		ID:            r.ID.String(),
		RefundNumber:  r.RefundNumber,
		RefundAmount:  r.RefundAmount.InexactFloat64(),
		RefundReason:  r.RefundReason,
		TransactionID: r.TransactionID.String(),
		CreatedAt:     r.CreatedAt,
	}
}

// toRefundResponse converts an application refund to a handler response
func toRefundResponse(r *salesapp.RefundResponse) RefundResponse {
	items := make([]RefundItemResponse, len(r.Items))
	for i, item := range r.Items {
		items[i] = RefundItemResponse{
			ID:           item.ID.String(),
			ProductID:    item.ProductID.String(),
			ProductName:  item.ProductName,
			ProductCode:  item.ProductCode,
			Quantity:     item.Quantity.InexactFloat64(),
			RefundAmount: item.RefundAmount.InexactFloat64(),
		}
	}

	resp := RefundResponse{
		ID:            r.ID.String(),
		RefundNumber:  r.RefundNumber,
		RefundAmount:  r.RefundAmount.InexactFloat64(),
		RefundReason:  r.RefundReason,
		TransactionID: r.TransactionID.String(),
		Items:         items,
		CreatedAt:     r.CreatedAt,
	}

	if r.Transaction != nil {
		resp.Transaction = &TransactionSummaryResponse{
			ID:                r.Transaction.ID.String(),
			TransactionNumber: r.Transaction.TransactionNumber,
			Status:            r.Transaction.Status,
			TotalValue:        r.Transaction.TotalValue.InexactFloat64(),
			AccumulatedRefund: r.Transaction.AccumulatedRefund.InexactFloat64(),
		}
	}

	return resp
}

// toRefundResponses converts application refunds to handler responses
func toRefundResponses(refunds []salesapp.RefundResponse) []RefundResponse {
	responses := make([]RefundResponse, len(refunds))
	for i := range refunds {
		responses[i] = toRefundResponse(&refunds[i])
	}
	return responses
}
