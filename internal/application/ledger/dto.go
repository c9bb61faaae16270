package ledger

import (
	"time"

	"github.com/craftledger/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AppendTransactionRequest represents a request to append a ledger transaction
type AppendTransactionRequest struct {
	ItemID        uuid.UUID        `json:"item_id" binding:"required"`
	Type          string           `json:"type" binding:"required,txtype"`
	Quantity      decimal.Decimal  `json:"quantity" binding:"required"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceKind string           `json:"reference_kind,omitempty" binding:"max=30"`
	ReferenceID   string           `json:"reference_id,omitempty" binding:"max=64"`
	Note          string           `json:"note,omitempty" binding:"max=500"`
	LotCode       string           `json:"lot_code,omitempty" binding:"max=64"`
	OccurredAt    *time.Time       `json:"occurred_at,omitempty"`
}

// VoidTransactionRequest represents a request to void a ledger transaction
type VoidTransactionRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// QueryTransactionsRequest represents ledger history query parameters
type QueryTransactionsRequest struct {
	ItemID        *uuid.UUID `form:"item_id"`
	Type          string     `form:"type" binding:"omitempty,txtype"`
	From          *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To            *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	ReferenceKind string     `form:"reference_kind"`
	ReferenceID   string     `form:"reference_id"`
	LotCode       string     `form:"lot_code"`
	Page          int        `form:"page,default=1"`
	PageSize      int        `form:"page_size,default=20"`
}

// ToQueryFilter converts the request to a domain query filter
func (r *QueryTransactionsRequest) ToQueryFilter() ledger.QueryFilter {
	filter := ledger.QueryFilter{
		ItemID:        r.ItemID,
		From:          r.From,
		To:            r.To,
		ReferenceKind: r.ReferenceKind,
		ReferenceID:   r.ReferenceID,
		LotCode:       r.LotCode,
		Page:          r.Page,
		PageSize:      r.PageSize,
	}
	if r.Type != "" {
		t := ledger.TransactionType(r.Type)
		filter.Type = &t
	}
	filter.Normalize()
	return filter
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID            uuid.UUID        `json:"id"`
	ItemID        uuid.UUID        `json:"item_id"`
	Type          string           `json:"type"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	TotalCost     *decimal.Decimal `json:"total_cost,omitempty"`
	ReferenceKind string           `json:"reference_kind,omitempty"`
	ReferenceID   string           `json:"reference_id,omitempty"`
	Note          string           `json:"note,omitempty"`
	LotCode       string           `json:"lot_code,omitempty"`
	ReversalOf    *uuid.UUID       `json:"reversal_of,omitempty"`
	CreatedBy     uuid.UUID        `json:"created_by"`
	OccurredAt    time.Time        `json:"occurred_at"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ToTransactionResponse converts a domain transaction to a response DTO
func ToTransactionResponse(tx *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID,
		ItemID:        tx.ItemID,
		Type:          tx.Type.String(),
		Quantity:      tx.Quantity,
		UnitCost:      tx.UnitCost,
		TotalCost:     tx.TotalCost,
		ReferenceKind: tx.ReferenceKind,
		ReferenceID:   tx.ReferenceID,
		Note:          tx.Note,
		LotCode:       tx.LotCode,
		ReversalOf:    tx.ReversalOf,
		CreatedBy:     tx.CreatedBy,
		OccurredAt:    tx.OccurredAt,
		CreatedAt:     tx.CreatedAt,
	}
}

// TransactionDetailResponse adds derived void state to a single transaction
type TransactionDetailResponse struct {
	TransactionResponse
	Voided bool `json:"voided"`
}

// AppendResultResponse is the outcome of a ledger append: the new row
// plus the resulting cached stock position.
type AppendResultResponse struct {
	Transaction  TransactionResponse `json:"transaction"`
	CurrentStock decimal.Decimal     `json:"current_stock"`
	LowStock     bool                `json:"low_stock"`
	Replayed     bool                `json:"replayed,omitempty"` // true when served from an idempotency key
}

// VoidResultResponse is the outcome of voiding a transaction
type VoidResultResponse struct {
	Reversal     TransactionResponse `json:"reversal"`
	CurrentStock decimal.Decimal     `json:"current_stock"`
}

// RecomputeResponse reports a cache rebuild for one item
type RecomputeResponse struct {
	ItemID        uuid.UUID       `json:"item_id"`
	PreviousStock decimal.Decimal `json:"previous_stock"`
	ComputedStock decimal.Decimal `json:"computed_stock"`
	Drift         decimal.Decimal `json:"drift"`
	Corrected     bool            `json:"corrected"`
}

// LowStockItemResponse is one row of the low stock report
type LowStockItemResponse struct {
	ItemID        uuid.UUID        `json:"item_id"`
	SKU           string           `json:"sku"`
	Name          string           `json:"name"`
	UnitOfMeasure string           `json:"unit_of_measure"`
	CurrentStock  decimal.Decimal  `json:"current_stock"`
	ReorderPoint  *decimal.Decimal `json:"reorder_point,omitempty"`
}
