package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/craftledger/backend/internal/domain/catalog"
	"github.com/craftledger/backend/internal/domain/identity"
	"github.com/craftledger/backend/internal/domain/ledger"
	"github.com/craftledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/retry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultAppendAttempts bounds how often a conflicting append is retried
	DefaultAppendAttempts = 5
	// DefaultAppendDelay is the initial backoff between append attempts
	DefaultAppendDelay = 25 * time.Millisecond
)

// LedgerService handles ledger append, void, query and stock cache
// maintenance. Every stock mutation runs inside a TransactionScope
// holding a row lock on the item, so the ledger insert and the cached
// stock update commit atomically.
type LedgerService struct {
	scope           TransactionScope
	transactionRepo ledger.TransactionRepository
	itemRepo        catalog.ItemRepository
	tenantRepo      identity.TenantRepository
	idempotency     IdempotencyStore
	logger          *zap.Logger
	clock           clock.Clock
	appendAttempts  int
	appendDelay     time.Duration
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	scope TransactionScope,
	transactionRepo ledger.TransactionRepository,
	itemRepo catalog.ItemRepository,
	tenantRepo identity.TenantRepository,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		scope:           scope,
		transactionRepo: transactionRepo,
		itemRepo:        itemRepo,
		tenantRepo:      tenantRepo,
		logger:          logger,
		clock:           clock.WallClock,
		appendAttempts:  DefaultAppendAttempts,
		appendDelay:     DefaultAppendDelay,
	}
}

// SetIdempotencyStore enables idempotency-key deduplication for appends
func (s *LedgerService) SetIdempotencyStore(store IdempotencyStore) {
	s.idempotency = store
}

// SetRetryPolicy overrides the append retry bounds
func (s *LedgerService) SetRetryPolicy(attempts int, delay time.Duration) {
	if attempts > 0 {
		s.appendAttempts = attempts
	}
	if delay > 0 {
		s.appendDelay = delay
	}
}

// SetClock overrides the retry clock, used by tests
func (s *LedgerService) SetClock(clk clock.Clock) {
	s.clock = clk
}

// Append records a stock movement: one immutable ledger row plus the
// folded-in cached stock, committed atomically under the item's row
// lock. Conflicting writers are retried with backoff; a repeated
// idempotency key replays the original result instead of appending.
func (s *LedgerService) Append(ctx context.Context, actor identity.Actor, idempotencyKey string, req AppendTransactionRequest) (*AppendResultResponse, error) {
	if err := actor.Require(identity.OpAppendLedger); err != nil {
		return nil, err
	}
	if err := s.requireWritableTenant(ctx, actor.TenantID); err != nil {
		return nil, err
	}

	if idempotencyKey != "" && s.idempotency != nil {
		if resp, ok, err := s.replayAppend(ctx, actor, idempotencyKey); err != nil {
			return nil, err
		} else if ok {
			return resp, nil
		}
	}

	var result *AppendResultResponse
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			var attemptErr error
			result, attemptErr = s.appendOnce(ctx, actor, req)
			return attemptErr
		},
		IsFatalError: func(err error) bool {
			return !errors.Is(err, shared.ErrConcurrencyConflict)
		},
		NotifyFunc: func(err error, attempt int) {
			s.logger.Debug("retrying ledger append after conflict",
				zap.String("item_id", req.ItemID.String()),
				zap.Int("attempt", attempt))
		},
		Attempts:    s.appendAttempts,
		Delay:       s.appendDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       s.clock,
	})
	if retry.IsAttemptsExceeded(err) {
		err = retry.LastError(err)
	}
	if err != nil {
		return nil, err
	}

	if idempotencyKey != "" && s.idempotency != nil {
		if putErr := s.idempotency.Put(ctx, actor.TenantID, idempotencyKey, result.Transaction.ID); putErr != nil {
			// The append is already committed; losing the key only
			// weakens dedup for this request, so log and move on.
			s.logger.Warn("failed to record idempotency key", zap.Error(putErr))
		}
	}
	return result, nil
}

func (s *LedgerService) appendOnce(ctx context.Context, actor identity.Actor, req AppendTransactionRequest) (*AppendResultResponse, error) {
	var result *AppendResultResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.ItemRepo().FindByIDForUpdate(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if item.TenantID != actor.TenantID {
			return shared.ErrTenantMismatch
		}
		if !item.CanTransact() {
			return shared.NewDomainError("INVALID_STATE", "Item does not accept transactions in its current status")
		}

		tx, err := ledger.NewTransaction(actor.TenantID, item.ID, ledger.TransactionType(req.Type), req.Quantity, req.UnitCost, actor.UserID)
		if err != nil {
			return err
		}
		tx.WithReference(req.ReferenceKind, req.ReferenceID).
			WithNote(req.Note).
			WithLot(req.LotCode)
		if req.OccurredAt != nil {
			tx.WithOccurredAt(*req.OccurredAt)
		}

		if err := item.ApplyStockDelta(tx.Quantity); err != nil {
			return err
		}
		if tx.Type == ledger.TransactionTypeReceive && tx.UnitCost != nil {
			if err := item.SetUnitCost(*tx.UnitCost); err != nil {
				return err
			}
		}

		if err := repos.TransactionRepo().Create(ctx, tx); err != nil {
			return err
		}
		if err := repos.ItemRepo().Save(ctx, item); err != nil {
			return err
		}

		result = &AppendResultResponse{
			Transaction:  ToTransactionResponse(tx),
			CurrentStock: item.CurrentStock,
			LowStock:     item.IsLowStock(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// replayAppend serves a previously completed append for the same
// idempotency key, if one is recorded.
func (s *LedgerService) replayAppend(ctx context.Context, actor identity.Actor, key string) (*AppendResultResponse, bool, error) {
	txID, found, err := s.idempotency.Get(ctx, actor.TenantID, key)
	if err != nil {
		// A broken dedup store must not block appends.
		s.logger.Warn("idempotency lookup failed", zap.Error(err))
		return nil, false, nil
	}
	if !found {
		return nil, false, nil
	}

	tx, err := s.transactionRepo.FindByID(ctx, actor.TenantID, txID)
	if err != nil {
		return nil, false, err
	}
	item, err := s.itemRepo.FindByIDForTenant(ctx, actor.TenantID, tx.ItemID)
	if err != nil {
		return nil, false, err
	}
	return &AppendResultResponse{
		Transaction:  ToTransactionResponse(tx),
		CurrentStock: item.CurrentStock,
		LowStock:     item.IsLowStock(),
		Replayed:     true,
	}, true, nil
}

// Void reverses a ledger transaction by appending a compensating
// entry. The original row is never mutated; a transaction can be
// voided at most once, and a reversal itself can never be voided.
func (s *LedgerService) Void(ctx context.Context, actor identity.Actor, transactionID uuid.UUID, req VoidTransactionRequest) (*VoidResultResponse, error) {
	if err := actor.Require(identity.OpVoidLedger); err != nil {
		return nil, err
	}
	if err := s.requireWritableTenant(ctx, actor.TenantID); err != nil {
		return nil, err
	}

	var result *VoidResultResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		original, err := repos.TransactionRepo().FindByID(ctx, actor.TenantID, transactionID)
		if err != nil {
			return err
		}
		if original.IsReversal() {
			return shared.NewDomainError("INVALID_STATE", "Reversal entries cannot be voided")
		}
		voided, err := repos.TransactionRepo().HasReversal(ctx, original.ID)
		if err != nil {
			return err
		}
		if voided {
			return shared.NewDomainError("ALREADY_VOIDED", "Transaction has already been voided")
		}

		item, err := repos.ItemRepo().FindByIDForUpdate(ctx, original.ItemID)
		if err != nil {
			return err
		}
		if item.TenantID != actor.TenantID {
			return shared.ErrTenantMismatch
		}

		rev, err := ledger.NewReversal(original, actor.UserID, req.Reason)
		if err != nil {
			return err
		}
		// Voiding a receive that has since been consumed would drive
		// stock negative; the reversal is rejected the same way any
		// over-consuming append is.
		if err := item.ApplyStockDelta(rev.Quantity); err != nil {
			return err
		}
		if err := repos.TransactionRepo().Create(ctx, rev); err != nil {
			return err
		}
		if err := repos.ItemRepo().Save(ctx, item); err != nil {
			return err
		}

		result = &VoidResultResponse{
			Reversal:     ToTransactionResponse(rev),
			CurrentStock: item.CurrentStock,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Query returns the tenant's ledger history, newest first
func (s *LedgerService) Query(ctx context.Context, actor identity.Actor, req QueryTransactionsRequest) (*shared.Paginated[TransactionResponse], error) {
	if err := actor.Require(identity.OpReadInventory); err != nil {
		return nil, err
	}

	filter := req.ToQueryFilter()
	txs, total, err := s.transactionRepo.Query(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]TransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToTransactionResponse(&txs[i])
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// GetTransaction returns a single transaction with its derived void state
func (s *LedgerService) GetTransaction(ctx context.Context, actor identity.Actor, transactionID uuid.UUID) (*TransactionDetailResponse, error) {
	if err := actor.Require(identity.OpReadInventory); err != nil {
		return nil, err
	}

	tx, err := s.transactionRepo.FindByID(ctx, actor.TenantID, transactionID)
	if err != nil {
		return nil, err
	}
	voided, err := s.transactionRepo.HasReversal(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	return &TransactionDetailResponse{
		TransactionResponse: ToTransactionResponse(tx),
		Voided:              voided,
	}, nil
}

// Recompute rebuilds one item's cached stock from the authoritative
// ledger sum. Drift is logged before it is corrected; running this on
// a healthy item is a no-op.
func (s *LedgerService) Recompute(ctx context.Context, actor identity.Actor, itemID uuid.UUID) (*RecomputeResponse, error) {
	if err := actor.Require(identity.OpRecomputeStock); err != nil {
		return nil, err
	}

	var result *RecomputeResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.ItemRepo().FindByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item.TenantID != actor.TenantID {
			return shared.ErrTenantMismatch
		}

		computed, err := repos.TransactionRepo().SumQuantityByItem(ctx, actor.TenantID, item.ID)
		if err != nil {
			return err
		}

		previous := item.CurrentStock
		drift := computed.Sub(previous)
		corrected := false
		if !drift.IsZero() {
			s.logger.Warn("stock drift detected, rebuilding cache from ledger",
				zap.String("tenant_id", actor.TenantID.String()),
				zap.String("item_id", item.ID.String()),
				zap.String("cached", previous.String()),
				zap.String("computed", computed.String()),
				zap.String("drift", drift.String()))
			item.SetCurrentStock(computed)
			if err := repos.ItemRepo().Save(ctx, item); err != nil {
				return err
			}
			corrected = true
		}

		result = &RecomputeResponse{
			ItemID:        item.ID,
			PreviousStock: previous,
			ComputedStock: computed,
			Drift:         drift,
			Corrected:     corrected,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LowStockReport lists active items at or below their reorder point
func (s *LedgerService) LowStockReport(ctx context.Context, actor identity.Actor, filter shared.Filter) (*shared.Paginated[LowStockItemResponse], error) {
	if err := actor.Require(identity.OpReadInventory); err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	items, total, err := s.itemRepo.FindLowStock(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]LowStockItemResponse, len(items))
	for i := range items {
		responses[i] = LowStockItemResponse{
			ItemID:        items[i].ID,
			SKU:           items[i].SKU,
			Name:          items[i].Name,
			UnitOfMeasure: items[i].UnitOfMeasure,
			CurrentStock:  items[i].CurrentStock,
			ReorderPoint:  items[i].ReorderPoint,
		}
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// ItemStock reports the cached stock position for one item. As with
// item reads, a foreign-tenant ID is a tenant mismatch, not a lookup
// miss.
func (s *LedgerService) ItemStock(ctx context.Context, actor identity.Actor, itemID uuid.UUID) (decimal.Decimal, bool, error) {
	if err := actor.Require(identity.OpReadInventory); err != nil {
		return decimal.Zero, false, err
	}
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return decimal.Zero, false, err
	}
	if item.TenantID != actor.TenantID {
		return decimal.Zero, false, shared.ErrTenantMismatch
	}
	return item.CurrentStock, item.IsLowStock(), nil
}

func (s *LedgerService) requireWritableTenant(ctx context.Context, tenantID uuid.UUID) error {
	if s.tenantRepo == nil {
		return nil
	}
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if !tenant.IsWritable() {
		return shared.NewDomainError("INVALID_STATE", "Tenant is deactivated and read-only")
	}
	return nil
}
