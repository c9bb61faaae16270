package catalog

import (
	"time"

	"github.com/craftledger/backend/internal/domain/catalog"
	"github.com/craftledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateItemRequest represents a request to create an item
type CreateItemRequest struct {
	SKU           string           `json:"sku" binding:"required,max=64"`
	Name          string           `json:"name" binding:"required,max=200"`
	Type          string           `json:"type" binding:"required,oneof=raw_material finished_good"`
	Category      string           `json:"category,omitempty" binding:"max=100"`
	UnitOfMeasure string           `json:"unit_of_measure" binding:"required,max=30"`
	ReorderPoint  *decimal.Decimal `json:"reorder_point,omitempty"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
}

// UpdateItemRequest represents a request to update an item's attributes.
// Nil pointers leave the corresponding field unchanged.
type UpdateItemRequest struct {
	Name              string           `json:"name" binding:"required,max=200"`
	Category          string           `json:"category,omitempty" binding:"max=100"`
	UnitOfMeasure     string           `json:"unit_of_measure" binding:"required,max=30"`
	ReorderPoint      *decimal.Decimal `json:"reorder_point,omitempty"`
	ClearReorderPoint bool             `json:"clear_reorder_point,omitempty"`
	UnitCost          *decimal.Decimal `json:"unit_cost,omitempty"`
}

// ListItemsRequest represents item listing query parameters
type ListItemsRequest struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive discontinued"`
	Type     string `form:"type" binding:"omitempty,oneof=raw_material finished_good"`
	Category string `form:"category"`
}

// ToFilter converts the request to a repository filter
func (r *ListItemsRequest) ToFilter() shared.Filter {
	filter := shared.DefaultFilter()
	if r.Page > 0 {
		filter.Page = r.Page
	}
	if r.PageSize > 0 && r.PageSize <= 100 {
		filter.PageSize = r.PageSize
	}
	filter.Search = r.Search
	if r.Status != "" {
		filter.Filters["status"] = r.Status
	}
	if r.Type != "" {
		filter.Filters["type"] = r.Type
	}
	if r.Category != "" {
		filter.Filters["category"] = r.Category
	}
	return filter
}

// ItemResponse represents an item in API responses
type ItemResponse struct {
	ID            uuid.UUID        `json:"id"`
	SKU           string           `json:"sku"`
	Name          string           `json:"name"`
	Type          string           `json:"type"`
	Category      string           `json:"category,omitempty"`
	UnitOfMeasure string           `json:"unit_of_measure"`
	ReorderPoint  *decimal.Decimal `json:"reorder_point,omitempty"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	CurrentStock  decimal.Decimal  `json:"current_stock"`
	LowStock      bool             `json:"low_stock"`
	Status        string           `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ToItemResponse converts a domain item to a response DTO
func ToItemResponse(item *catalog.Item) ItemResponse {
	return ItemResponse{
		ID:            item.ID,
		SKU:           item.SKU,
		Name:          item.Name,
		Type:          string(item.Type),
		Category:      item.Category,
		UnitOfMeasure: item.UnitOfMeasure,
		ReorderPoint:  item.ReorderPoint,
		UnitCost:      item.UnitCost,
		CurrentStock:  item.CurrentStock,
		LowStock:      item.IsLowStock(),
		Status:        string(item.Status),
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

// RetireItemResponse reports how an item was retired: hard-deleted when
// it has no ledger history, discontinued otherwise.
type RetireItemResponse struct {
	ItemID  uuid.UUID `json:"item_id"`
	Deleted bool      `json:"deleted"`
	Status  string    `json:"status,omitempty"`
}
