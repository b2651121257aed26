package sales

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backoffice/internal/domain/sales"
	"github.com/pos/backoffice/internal/domain/shared"
)

// RefundService orchestrates refund processing: it validates a refund
// request against the sale, computes per-item refund amounts, and
// commits the refund, the line item updates, and the sale aggregate
// update as one atomic unit.
type RefundService struct {
	uow         sales.UnitOfWork
	refundRepo  sales.RefundRepository
	txnRepo     sales.TransactionRepository
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
}

// NewRefundService creates a new RefundService
func NewRefundService(
	uow sales.UnitOfWork,
	refundRepo sales.RefundRepository,
	txnRepo sales.TransactionRepository,
	idempotency shared.IdempotencyStore,
	idemConfig shared.IdempotencyConfig,
) *RefundService {
	return &RefundService{
		uow:         uow,
		refundRepo:  refundRepo,
		txnRepo:     txnRepo,
		idempotency: idempotency,
		idemConfig:  idemConfig,
	}
}

// Create processes a refund request.
//
// Validation happens before any write: the sale must exist, be in
// APPROVED status, and every requested item must match a line item
// with enough remaining quantity. The commit runs inside a unit of
// work that re-reads the sale under a row lock, so concurrent refunds
// against the same sale serialize rather than double-deduct.
//
// When the request carries an idempotency key, a replayed request
// returns the previously committed refund instead of creating a
// second one.
func (s *RefundService) Create(ctx context.Context, req CreateRefundRequest) (*RefundSummaryResponse, error) {
	if prior, err := s.replayForKey(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if prior != nil {
		return prior, nil
	}

	reserved, err := s.reserveKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	// Fast-fail validation against a plain read. The commit below
	// revalidates under the row lock; this pass just rejects obviously
	// bad requests without opening a transaction.
	txn, err := s.txnRepo.FindByID(ctx, req.TransactionID)
	if err != nil {
		s.releaseKey(ctx, reserved)
		return nil, err
	}
	if err := validateRefundRequest(txn, req.Items); err != nil {
		s.releaseKey(ctx, reserved)
		return nil, err
	}

	var refund *sales.Refund
	err = s.uow.Execute(ctx, func(ctx context.Context, repos sales.Repositories) error {
		locked, err := repos.Transactions().FindByIDForUpdate(ctx, req.TransactionID)
		if err != nil {
			return err
		}
		if err := validateRefundRequest(locked, req.Items); err != nil {
			return err
		}

		var key *string
		if req.IdempotencyKey != "" {
			key = &req.IdempotencyKey
		}
		refund, err = sales.NewRefund(locked.ID, req.RefundReason, key)
		if err != nil {
			return err
		}

		number, err := repos.Refunds().GenerateRefundNumber(ctx)
		if err != nil {
			return err
		}
		if err := refund.AssignNumber(number); err != nil {
			return err
		}

		changed := make([]sales.TransactionItem, 0, len(req.Items))
		for _, input := range req.Items {
			lineItem, err := locked.GetItemByProduct(input.ProductID)
			if err != nil {
				return err
			}

			amount, err := sales.RefundAmountForItem(lineItem.TotalValue, lineItem.Quantity, input.Quantity)
			if err != nil {
				return err
			}
			result, err := sales.ReconcileItem(lineItem.RemainingQuantity, lineItem.RemainingAmount, input.Quantity)
			if err != nil {
				return err
			}

			if _, err := refund.AddItem(lineItem, input.Quantity, amount); err != nil {
				return err
			}
			lineItem.ApplyReconciliation(result)
			changed = append(changed, *lineItem)
		}

		if err := repos.Refunds().Save(ctx, refund); err != nil {
			return err
		}
		if err := repos.Transactions().UpdateItems(ctx, changed); err != nil {
			return err
		}
		if err := locked.ApplyRefund(refund.RefundAmount); err != nil {
			return err
		}
		return repos.Transactions().SaveWithLock(ctx, locked)
	})
	if err != nil {
		s.releaseKey(ctx, reserved)
		return nil, err
	}

	response := ToRefundSummaryResponse(refund)
	return &response, nil
}

// GetByID retrieves a refund with its items and sale summary
func (s *RefundService) GetByID(ctx context.Context, id uuid.UUID) (*RefundResponse, error) {
	refund, err := s.refundRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToRefundResponse(refund)
	return &response, nil
}

// List retrieves a paginated refund list. An empty page is reported
// as not found so callers can surface a 404.
func (s *RefundService) List(ctx context.Context, filter ListFilter) (*RefundListResponse, error) {
	sharedFilter := filter.ToSharedFilter()

	refunds, err := s.refundRepo.FindAll(ctx, sharedFilter)
	if err != nil {
		return nil, err
	}
	if len(refunds) == 0 {
		return nil, shared.ErrNotFound.WithMessage("No refunds found for this page")
	}

	total, err := s.refundRepo.Count(ctx, sharedFilter)
	if err != nil {
		return nil, err
	}

	items := make([]RefundResponse, len(refunds))
	for i := range refunds {
		items[i] = ToRefundResponse(&refunds[i])
	}

	paginated := shared.NewPaginated(items, total, sharedFilter.Page, sharedFilter.PageSize)
	return &RefundListResponse{
		Refunds: items,
		Pagination: PaginationResponse{
			TotalItems:  paginated.Total,
			TotalPages:  paginated.TotalPages,
			CurrentPage: paginated.Page,
			PageSize:    paginated.PageSize,
		},
	}, nil
}

// replayForKey returns the previously committed refund for the key, if any
func (s *RefundService) replayForKey(ctx context.Context, key string) (*RefundSummaryResponse, error) {
	if key == "" {
		return nil, nil
	}
	prior, err := s.refundRepo.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	response := ToRefundSummaryResponse(prior)
	return &response, nil
}

// reserveKey marks the key as in flight. Returns the key when a
// release is owed, empty when idempotency is disabled or absent.
func (s *RefundService) reserveKey(ctx context.Context, key string) (string, error) {
	if key == "" || !s.idemConfig.Enabled || s.idempotency == nil {
		return "", nil
	}
	fresh, err := s.idempotency.Reserve(ctx, key, s.idemConfig.TTL)
	if err != nil {
		return "", shared.ErrPersistence.WithCause(err)
	}
	if !fresh {
		return "", shared.ErrDuplicateRequest
	}
	return key, nil
}

// releaseKey frees a reservation after a failed request so the client
// can retry with the same key
func (s *RefundService) releaseKey(ctx context.Context, key string) {
	if key == "" || s.idempotency == nil {
		return
	}
	// Best effort: an unexpired leftover reservation only delays a
	// retry until the TTL passes.
	_ = s.idempotency.Release(ctx, key)
}

// validateRefundRequest checks a refund request against the sale
// without mutating anything
func validateRefundRequest(txn *sales.Transaction, items []CreateRefundItemInput) error {
	if !txn.CanRefund() {
		return shared.ErrInvalidState.WithMessage("Only approved transactions can be refunded")
	}
	if len(items) == 0 {
		return shared.ErrInvalidInput.WithMessage("Refund must include at least one item")
	}

	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, input := range items {
		if _, dup := seen[input.ProductID]; dup {
			return shared.ErrInvalidInput.WithMessage("Duplicate product in refund request: " + input.ProductID.String())
		}
		seen[input.ProductID] = struct{}{}

		if input.Quantity.LessThanOrEqual(decimal.Zero) {
			return shared.ErrInvalidInput.WithMessage("Refund quantity must be positive")
		}

		lineItem, err := txn.GetItemByProduct(input.ProductID)
		if err != nil {
			return err
		}
		if input.Quantity.GreaterThan(lineItem.RemainingQuantity) {
			return shared.ErrQuantityExceeded.WithMessage(
				"Requested quantity exceeds remaining quantity for product " + input.ProductID.String())
		}
	}
	return nil
}
