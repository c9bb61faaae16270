package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QueryFilter narrows a ledger history query. Zero values mean "no
// constraint". Results are always tenant-scoped and ordered newest
// first by OccurredAt.
type QueryFilter struct {
	ItemID        *uuid.UUID
	Type          *TransactionType
	From          *time.Time
	To            *time.Time
	ReferenceKind string
	ReferenceID   string
	LotCode       string
	Page          int
	PageSize      int
}

// Normalize clamps paging to sane bounds
func (f *QueryFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}

// Offset returns the row offset for the current page
func (f *QueryFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// TransactionRepository persists ledger transactions. The interface is
// append-only on purpose: there is no update or delete, corrections
// happen by inserting a compensating row.
type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error)
	Query(ctx context.Context, tenantID uuid.UUID, filter QueryFilter) ([]Transaction, int64, error)
	// SumQuantityByItem folds the signed quantities of every row for the
	// item. This is the authoritative stock figure the cached value on
	// the item must agree with.
	SumQuantityByItem(ctx context.Context, tenantID, itemID uuid.UUID) (decimal.Decimal, error)
	// HasReversal reports whether a compensating entry already exists
	// for the given original transaction.
	HasReversal(ctx context.Context, originalID uuid.UUID) (bool, error)
	CountByItem(ctx context.Context, tenantID, itemID uuid.UUID) (int64, error)
}
