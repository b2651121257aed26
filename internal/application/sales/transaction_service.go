package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pos/backoffice/internal/domain/sales"
	"github.com/pos/backoffice/internal/domain/shared"
	"github.com/pos/backoffice/internal/domain/shared/valueobject"
)

// TransactionService handles sale transaction operations
type TransactionService struct {
	txnRepo sales.TransactionRepository
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(txnRepo sales.TransactionRepository) *TransactionService {
	return &TransactionService{txnRepo: txnRepo}
}

// Create records a new sale in PENDING status
func (s *TransactionService) Create(ctx context.Context, req CreateTransactionRequest) (*TransactionResponse, error) {
	number := generateTransactionNumber()

	txn, err := sales.NewTransaction(number, req.CashierName)
	if err != nil {
		return nil, err
	}

	for _, input := range req.Items {
		unitPrice, err := valueobject.NewMoney(input.UnitPrice, valueobject.DefaultCurrency)
		if err != nil {
			return nil, shared.ErrInvalidInput.WithMessage("Invalid unit price")
		}
		unitCost, err := valueobject.NewMoney(input.UnitCost, valueobject.DefaultCurrency)
		if err != nil {
			return nil, shared.ErrInvalidInput.WithMessage("Invalid unit cost")
		}

		if _, err := txn.AddItem(
			input.ProductID, input.ProductName, input.ProductCode,
			input.Quantity, unitPrice, unitCost, input.DiscountValue,
		); err != nil {
			return nil, err
		}
	}

	if err := s.txnRepo.Save(ctx, txn); err != nil {
		return nil, err
	}

	response := ToTransactionResponse(txn)
	return &response, nil
}

// Approve settles a pending sale, making it eligible for refunds
func (s *TransactionService) Approve(ctx context.Context, id uuid.UUID) (*TransactionResponse, error) {
	txn, err := s.txnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := txn.Approve(); err != nil {
		return nil, err
	}

	if err := s.txnRepo.SaveWithLock(ctx, txn); err != nil {
		return nil, err
	}

	response := ToTransactionResponse(txn)
	return &response, nil
}

// GetByID retrieves a transaction with its line items
func (s *TransactionService) GetByID(ctx context.Context, id uuid.UUID) (*TransactionResponse, error) {
	txn, err := s.txnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToTransactionResponse(txn)
	return &response, nil
}

// List retrieves a paginated transaction list
func (s *TransactionService) List(ctx context.Context, filter ListFilter) (*TransactionListResponse, error) {
	sharedFilter := filter.ToSharedFilter()

	transactions, err := s.txnRepo.FindAll(ctx, sharedFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.txnRepo.Count(ctx, sharedFilter)
	if err != nil {
		return nil, err
	}

	items := make([]TransactionResponse, len(transactions))
	for i := range transactions {
		items[i] = ToTransactionResponse(&transactions[i])
	}

	paginated := shared.NewPaginated(items, total, sharedFilter.Page, sharedFilter.PageSize)
	return &TransactionListResponse{
		Transactions: items,
		Pagination: PaginationResponse{
			TotalItems:  paginated.Total,
			TotalPages:  paginated.TotalPages,
			CurrentPage: paginated.Page,
			PageSize:    paginated.PageSize,
		},
	}, nil
}

// generateTransactionNumber produces a register-style number. The
// uniqueness backstop is the unique index on transaction_number.
func generateTransactionNumber() string {
	now := time.Now()
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("TXN-%s-%s", now.Format("060102"), suffix)
}
