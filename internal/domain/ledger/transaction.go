package ledger

import (
	"strings"
	"time"

	"github.com/craftledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the business reason for a quantity change
type TransactionType string

const (
	// TransactionTypeReceive records stock arriving from a supplier
	TransactionTypeReceive TransactionType = "receive"
	// TransactionTypeConsume records raw material consumed by production
	TransactionTypeConsume TransactionType = "consume"
	// TransactionTypeProduce records finished goods produced
	TransactionTypeProduce TransactionType = "produce"
	// TransactionTypeCountAdjustment reconciles to a physical count
	TransactionTypeCountAdjustment TransactionType = "count_adjustment"
	// TransactionTypeWasteAdjustment records spoilage or scrap
	TransactionTypeWasteAdjustment TransactionType = "waste_adjustment"
	// TransactionTypeOtherAdjustment covers corrections, including void reversals
	TransactionTypeOtherAdjustment TransactionType = "other_adjustment"
	// TransactionTypeTransfer records movement between locations
	TransactionTypeTransfer TransactionType = "transfer"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeReceive,
		TransactionTypeConsume,
		TransactionTypeProduce,
		TransactionTypeCountAdjustment,
		TransactionTypeWasteAdjustment,
		TransactionTypeOtherAdjustment,
		TransactionTypeTransfer:
		return true
	}
	return false
}

// Transaction is an immutable ledger fact: an item's quantity changed
// by a signed amount at a point in time, for a reason. Rows are never
// updated or deleted; corrections are compensating appends carrying
// ReversalOf. The sum of Quantity over an item's rows is the item's
// true stock.
type Transaction struct {
	shared.BaseEntity
	TenantID      uuid.UUID        `gorm:"type:uuid;not null;index:idx_ledger_tenant_time,priority:1"`
	ItemID        uuid.UUID        `gorm:"type:uuid;not null;index:idx_ledger_item"`
	Type          TransactionType  `gorm:"type:varchar(30);not null;index:idx_ledger_type"`
	Quantity      decimal.Decimal  `gorm:"type:decimal(18,4);not null"` // signed, never zero
	UnitCost      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	TotalCost     *decimal.Decimal `gorm:"type:decimal(18,4)"` // Quantity * UnitCost when cost is present
	ReferenceKind string           `gorm:"type:varchar(30);index:idx_ledger_reference,priority:1"`
	ReferenceID   string           `gorm:"type:varchar(64);index:idx_ledger_reference,priority:2"`
	Note          string           `gorm:"type:varchar(500)"`
	LotCode       string           `gorm:"type:varchar(64);index"`
	ReversalOf    *uuid.UUID       `gorm:"type:uuid;uniqueIndex"` // compensating entry for a voided transaction
	CreatedBy     uuid.UUID        `gorm:"type:uuid;not null"`
	OccurredAt    time.Time        `gorm:"type:timestamptz;not null;index:idx_ledger_tenant_time,priority:2"`
}

// TableName returns the table name for GORM
func (Transaction) TableName() string {
	return "ledger_transactions"
}

// NewTransaction creates a new ledger transaction. Quantity is signed:
// positive for receive/produce style movements, negative for
// consumption. OccurredAt defaults to now and may be backdated by the
// caller via WithOccurredAt.
func NewTransaction(
	tenantID uuid.UUID,
	itemID uuid.UUID,
	txType TransactionType,
	quantity decimal.Decimal,
	unitCost *decimal.Decimal,
	createdBy uuid.UUID,
) (*Transaction, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid transaction type")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be zero")
	}
	if unitCost != nil && unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Creator identity is required")
	}

	tx := &Transaction{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		ItemID:     itemID,
		Type:       txType,
		Quantity:   quantity,
		UnitCost:   unitCost,
		CreatedBy:  createdBy,
		OccurredAt: time.Now(),
	}
	if unitCost != nil {
		total := quantity.Mul(*unitCost)
		tx.TotalCost = &total
	}
	return tx, nil
}

// NewReversal creates the compensating entry that voids the original
// transaction: same item, negated quantity, type other_adjustment,
// linked via ReversalOf. The original row is never touched; "voided"
// is derived from the existence of its reversal.
func NewReversal(original *Transaction, actor uuid.UUID, reason string) (*Transaction, error) {
	if original == nil {
		return nil, shared.NewDomainError("INVALID_TRANSACTION", "Original transaction is required")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Void reason is required")
	}

	rev, err := NewTransaction(
		original.TenantID,
		original.ItemID,
		TransactionTypeOtherAdjustment,
		original.Quantity.Neg(),
		original.UnitCost,
		actor,
	)
	if err != nil {
		return nil, err
	}
	originalID := original.ID
	rev.ReversalOf = &originalID
	rev.Note = reason
	rev.LotCode = original.LotCode
	return rev, nil
}

// WithReference attaches an external document pointer (e.g. a purchase
// order or production run).
func (t *Transaction) WithReference(kind, id string) *Transaction {
	t.ReferenceKind = kind
	t.ReferenceID = id
	return t
}

// WithNote sets the free-text note
func (t *Transaction) WithNote(note string) *Transaction {
	t.Note = note
	return t
}

// WithLot sets the lot/traceability code
func (t *Transaction) WithLot(lot string) *Transaction {
	t.LotCode = lot
	return t
}

// WithOccurredAt backdates the transaction timestamp
func (t *Transaction) WithOccurredAt(at time.Time) *Transaction {
	t.OccurredAt = at
	return t
}

// IsReversal returns true if this row compensates a voided transaction
func (t *Transaction) IsReversal() bool {
	return t.ReversalOf != nil
}
