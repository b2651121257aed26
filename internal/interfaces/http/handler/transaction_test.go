package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	salesapp "github.com/pos/backoffice/internal/application/sales"
	"github.com/pos/backoffice/internal/domain/sales"
	"github.com/pos/backoffice/internal/domain/shared"
)

func setupTransactionTestRouter() (*gin.Engine, *MockTransactionRepository) {
	gin.SetMode(gin.TestMode)

	txnRepo := new(MockTransactionRepository)
	service := salesapp.NewTransactionService(txnRepo)
	h := NewTransactionHandler(service)

	router := gin.New()
	router.POST("/transactions", h.Create)
	router.GET("/transactions", h.List)
	router.GET("/transactions/:id", h.GetByID)
	router.POST("/transactions/:id/approve", h.Approve)

	return router, txnRepo
}

func TestTransactionHandlerCreate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, txnRepo := setupTransactionTestRouter()
		productID := uuid.New()

		txnRepo.On("Save", mock.Anything, mock.AnythingOfType("*sales.Transaction")).Return(nil)

		body := CreateTransactionRequest{
			CashierName: "Test Cashier",
			Items: []CreateTransactionItemInput{
				{
					ProductID:   productID,
					ProductName: "Product A",
					ProductCode: "PROD-A",
					Quantity:    2,
					UnitPrice:   50,
					UnitCost:    30,
				},
			},
		}
		w := performRequest(router, http.MethodPost, "/transactions", body, nil)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response["success"].(bool))

		data := response["data"].(map[string]any)
		assert.True(t, strings.HasPrefix(data["transaction_number"].(string), "TXN-"))
		assert.Equal(t, "Test Cashier", data["cashier_name"])
		assert.Equal(t, string(sales.TransactionStatusPending), data["status"])
		assert.InDelta(t, 100.0, data["total_value"].(float64), 0.0001)

		items := data["items"].([]any)
		require.Len(t, items, 1)
		item := items[0].(map[string]any)
		assert.Equal(t, productID.String(), item["product_id"])
		assert.InDelta(t, 2.0, item["remaining_quantity"].(float64), 0.0001)

		txnRepo.AssertExpectations(t)
	})

	t.Run("missing cashier name", func(t *testing.T) {
		router, _ := setupTransactionTestRouter()

		body := map[string]any{
			"items": []map[string]any{
				{"product_id": uuid.New().String(), "product_name": "Product A", "quantity": 1, "unit_price": 10},
			},
		}
		w := performRequest(router, http.MethodPost, "/transactions", body, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty items", func(t *testing.T) {
		router, _ := setupTransactionTestRouter()

		body := map[string]any{
			"cashier_name": "Test Cashier",
			"items":        []map[string]any{},
		}
		w := performRequest(router, http.MethodPost, "/transactions", body, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("zero quantity", func(t *testing.T) {
		router, _ := setupTransactionTestRouter()

		body := map[string]any{
			"cashier_name": "Test Cashier",
			"items": []map[string]any{
				{"product_id": uuid.New().String(), "product_name": "Product A", "quantity": 0, "unit_price": 10},
			},
		}
		w := performRequest(router, http.MethodPost, "/transactions", body, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTransactionHandlerApprove(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, txnRepo := setupTransactionTestRouter()
		productID := uuid.New()
		txn := pendingTransaction(t, productID)

		txnRepo.On("FindByID", mock.Anything, txn.ID).Return(txn, nil)
		txnRepo.On("SaveWithLock", mock.Anything, txn).Return(nil)

		w := performRequest(router, http.MethodPost, "/transactions/"+txn.ID.String()+"/approve", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]any)
		assert.Equal(t, string(sales.TransactionStatusApproved), data["status"])

		txnRepo.AssertExpectations(t)
	})

	t.Run("already approved", func(t *testing.T) {
		router, txnRepo := setupTransactionTestRouter()
		productID := uuid.New()
		txn := approvedTransaction(t, productID)

		txnRepo.On("FindByID", mock.Anything, txn.ID).Return(txn, nil)

		w := performRequest(router, http.MethodPost, "/transactions/"+txn.ID.String()+"/approve", nil, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		txnRepo.AssertExpectations(t)
	})

	t.Run("invalid id format", func(t *testing.T) {
		router, _ := setupTransactionTestRouter()

		w := performRequest(router, http.MethodPost, "/transactions/not-a-uuid/approve", nil, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		router, txnRepo := setupTransactionTestRouter()
		missingID := uuid.New()

		txnRepo.On("FindByID", mock.Anything, missingID).Return(nil, shared.ErrNotFound)

		w := performRequest(router, http.MethodPost, "/transactions/"+missingID.String()+"/approve", nil, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		txnRepo.AssertExpectations(t)
	})
}

func TestTransactionHandlerGetByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, txnRepo := setupTransactionTestRouter()
		productID := uuid.New()
		txn := approvedTransaction(t, productID)

		txnRepo.On("FindByID", mock.Anything, txn.ID).Return(txn, nil)

		w := performRequest(router, http.MethodGet, "/transactions/"+txn.ID.String(), nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]any)
		assert.Equal(t, txn.TransactionNumber, data["transaction_number"])

		txnRepo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		router, txnRepo := setupTransactionTestRouter()
		missingID := uuid.New()

		txnRepo.On("FindByID", mock.Anything, missingID).Return(nil, shared.ErrNotFound)

		w := performRequest(router, http.MethodGet, "/transactions/"+missingID.String(), nil, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		txnRepo.AssertExpectations(t)
	})
}

func TestTransactionHandlerList(t *testing.T) {
	t.Run("success with pagination meta", func(t *testing.T) {
		router, txnRepo := setupTransactionTestRouter()
		productID := uuid.New()
		txn := approvedTransaction(t, productID)

		txnRepo.On("FindAll", mock.Anything, mock.AnythingOfType("shared.Filter")).
			Return([]sales.Transaction{*txn}, nil)
		txnRepo.On("Count", mock.Anything, mock.AnythingOfType("shared.Filter")).
			Return(int64(1), nil)

		w := performRequest(router, http.MethodGet, "/transactions?page=1&limit=20", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response["success"].(bool))

		data := response["data"].([]any)
		require.Len(t, data, 1)

		meta := response["meta"].(map[string]any)
		assert.InDelta(t, 1.0, meta["total"].(float64), 0.0001)

		txnRepo.AssertExpectations(t)
	})

	t.Run("empty list is allowed", func(t *testing.T) {
		router, txnRepo := setupTransactionTestRouter()

		txnRepo.On("FindAll", mock.Anything, mock.AnythingOfType("shared.Filter")).
			Return([]sales.Transaction{}, nil)
		txnRepo.On("Count", mock.Anything, mock.AnythingOfType("shared.Filter")).
			Return(int64(0), nil)

		w := performRequest(router, http.MethodGet, "/transactions", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		txnRepo.AssertExpectations(t)
	})
}
