package catalog

import (
	"strings"
	"time"

	"github.com/craftledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemType classifies a trackable item
type ItemType string

const (
	ItemTypeRawMaterial  ItemType = "raw_material"
	ItemTypeFinishedGood ItemType = "finished_good"
)

// IsValid returns true if the item type is valid
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeRawMaterial, ItemTypeFinishedGood:
		return true
	}
	return false
}

// ItemStatus represents the lifecycle status of an item
type ItemStatus string

const (
	ItemStatusActive       ItemStatus = "active"
	ItemStatusInactive     ItemStatus = "inactive"
	ItemStatusDiscontinued ItemStatus = "discontinued"
)

// IsValid returns true if the status is valid
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusActive, ItemStatusInactive, ItemStatusDiscontinued:
		return true
	}
	return false
}

// Item is a trackable raw material or finished good, scoped to exactly
// one tenant. CurrentStock is a cached fold over the item's ledger
// rows; ownership of truth lies with the transaction log and the cache
// must be re-derivable from it at any time. SKU is unique per tenant,
// not globally.
type Item struct {
	shared.TenantAggregateRoot
	// SKU uniqueness is per tenant. The composite unique index lives in
	// the SQL migrations; the service layer checks before insert.
	SKU           string           `gorm:"type:varchar(64);not null;index"`
	Name          string           `gorm:"type:varchar(200);not null"`
	Type          ItemType         `gorm:"type:varchar(20);not null"`
	Category      string           `gorm:"type:varchar(100)"`
	UnitOfMeasure string           `gorm:"type:varchar(30);not null"`
	ReorderPoint  *decimal.Decimal `gorm:"type:decimal(18,4)"`
	UnitCost      *decimal.Decimal `gorm:"type:decimal(18,4)"` // cached cost per unit from the latest costed receipt
	CurrentStock  decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Status        ItemStatus       `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "items"
}

// NewItem creates a new active item with zero stock
func NewItem(tenantID uuid.UUID, sku, name string, itemType ItemType, unitOfMeasure string) (*Item, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 64 {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 64 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Item name cannot be empty")
	}
	if !itemType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ITEM_TYPE", "Item type must be raw_material or finished_good")
	}
	if strings.TrimSpace(unitOfMeasure) == "" {
		return nil, shared.NewDomainError("INVALID_UOM", "Unit of measure cannot be empty")
	}

	return &Item{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SKU:                 sku,
		Name:                name,
		Type:                itemType,
		UnitOfMeasure:       unitOfMeasure,
		CurrentStock:        decimal.Zero,
		Status:              ItemStatusActive,
	}, nil
}

// ApplyStockDelta folds one signed ledger quantity into the cached
// stock. The resulting balance must never be negative; callers hold
// the per-item serialization boundary (row lock) while invoking this.
func (i *Item) ApplyStockDelta(delta decimal.Decimal) error {
	if delta.IsZero() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be zero")
	}
	next := i.CurrentStock.Add(delta)
	if next.IsNegative() {
		return shared.ErrInsufficientStock
	}
	i.CurrentStock = next
	i.UpdatedAt = time.Now()
	return nil
}

// SetCurrentStock overwrites the cached stock, used only by drift
// recovery (recompute from ledger sum).
func (i *Item) SetCurrentStock(stock decimal.Decimal) {
	i.CurrentStock = stock
	i.UpdatedAt = time.Now()
}

// SetUnitCost updates the cached unit cost
func (i *Item) SetUnitCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	i.UnitCost = &cost
	i.UpdatedAt = time.Now()
	return nil
}

// SetReorderPoint sets or clears the low-stock threshold
func (i *Item) SetReorderPoint(point *decimal.Decimal) error {
	if point != nil && point.IsNegative() {
		return shared.NewDomainError("INVALID_REORDER_POINT", "Reorder point cannot be negative")
	}
	i.ReorderPoint = point
	i.UpdatedAt = time.Now()
	return nil
}

// Update changes the item's descriptive attributes
func (i *Item) Update(name, category, unitOfMeasure string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Item name cannot be empty")
	}
	if strings.TrimSpace(unitOfMeasure) == "" {
		return shared.NewDomainError("INVALID_UOM", "Unit of measure cannot be empty")
	}
	i.Name = name
	i.Category = category
	i.UnitOfMeasure = unitOfMeasure
	i.UpdatedAt = time.Now()
	return nil
}

// Deactivate hides the item from day-to-day use; it can be reactivated
func (i *Item) Deactivate() {
	i.Status = ItemStatusInactive
	i.UpdatedAt = time.Now()
}

// Reactivate returns an inactive item to active status
func (i *Item) Reactivate() error {
	if i.Status == ItemStatusDiscontinued {
		return shared.NewDomainError("INVALID_STATE", "Discontinued items cannot be reactivated")
	}
	i.Status = ItemStatusActive
	i.UpdatedAt = time.Now()
	return nil
}

// Discontinue is the terminal status for items that have ledger
// history and therefore can never be physically deleted.
func (i *Item) Discontinue() {
	i.Status = ItemStatusDiscontinued
	i.UpdatedAt = time.Now()
}

// CanTransact returns true if ledger appends against this item are allowed
func (i *Item) CanTransact() bool {
	return i.Status == ItemStatusActive
}

// IsLowStock reports whether the item is at or below its reorder
// point. Pure predicate; never mutates state.
func (i *Item) IsLowStock() bool {
	return i.ReorderPoint != nil && i.CurrentStock.LessThanOrEqual(*i.ReorderPoint)
}
