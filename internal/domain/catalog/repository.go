package catalog

import (
	"context"

	"github.com/craftledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ItemRepository provides persistence for Item aggregates
type ItemRepository interface {
	// FindByID loads an item without tenant filtering. Callers own the
	// tenant-mismatch check; this exists so a foreign-tenant ID can be
	// distinguished from a missing one.
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	// FindByIDForUpdate loads an item under a row-level write lock,
	// establishing the per-item serialization boundary for stock
	// mutations. Must be called inside a database transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Item, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Item, error)
	FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*Item, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Item, int64, error)
	// FindLowStock returns items whose reorder point is set and whose
	// cached stock is at or below it.
	FindLowStock(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Item, int64, error)
	Create(ctx context.Context, item *Item) error
	Save(ctx context.Context, item *Item) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
