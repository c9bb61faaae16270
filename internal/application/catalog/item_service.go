package catalog

import (
	"context"
	"errors"

	"github.com/craftledger/backend/internal/domain/catalog"
	"github.com/craftledger/backend/internal/domain/identity"
	"github.com/craftledger/backend/internal/domain/ledger"
	"github.com/craftledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ItemService handles item catalog operations. Stock is never written
// here; every quantity change goes through the ledger.
type ItemService struct {
	itemRepo        catalog.ItemRepository
	transactionRepo ledger.TransactionRepository
	tenantRepo      identity.TenantRepository
	logger          *zap.Logger
}

// NewItemService creates a new ItemService
func NewItemService(
	itemRepo catalog.ItemRepository,
	transactionRepo ledger.TransactionRepository,
	tenantRepo identity.TenantRepository,
	logger *zap.Logger,
) *ItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemService{
		itemRepo:        itemRepo,
		transactionRepo: transactionRepo,
		tenantRepo:      tenantRepo,
		logger:          logger,
	}
}

// Create registers a new item in the actor's tenant. SKU must be
// unique within the tenant only.
func (s *ItemService) Create(ctx context.Context, actor identity.Actor, req CreateItemRequest) (*ItemResponse, error) {
	if err := actor.Require(identity.OpCreateItem); err != nil {
		return nil, err
	}
	if err := s.requireWritableTenant(ctx, actor.TenantID); err != nil {
		return nil, err
	}

	existing, err := s.itemRepo.FindBySKU(ctx, actor.TenantID, req.SKU)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "An item with this SKU already exists in the tenant")
	}

	item, err := catalog.NewItem(actor.TenantID, req.SKU, req.Name, catalog.ItemType(req.Type), req.UnitOfMeasure)
	if err != nil {
		return nil, err
	}
	item.SetCreatedBy(actor.UserID)
	item.Category = req.Category
	if req.ReorderPoint != nil {
		if err := item.SetReorderPoint(req.ReorderPoint); err != nil {
			return nil, err
		}
	}
	if req.UnitCost != nil {
		if err := item.SetUnitCost(*req.UnitCost); err != nil {
			return nil, err
		}
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("item created",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("item_id", item.ID.String()),
		zap.String("sku", item.SKU))

	response := ToItemResponse(item)
	return &response, nil
}

// Get retrieves one item. A foreign-tenant ID is reported as a tenant
// mismatch, not a lookup miss, so the caller can tell an isolation
// violation from a bad ID.
func (s *ItemService) Get(ctx context.Context, actor identity.Actor, itemID uuid.UUID) (*ItemResponse, error) {
	if err := actor.Require(identity.OpReadInventory); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.TenantID != actor.TenantID {
		return nil, shared.ErrTenantMismatch
	}

	response := ToItemResponse(item)
	return &response, nil
}

// List returns the tenant's items, filtered and paginated
func (s *ItemService) List(ctx context.Context, actor identity.Actor, req ListItemsRequest) (*shared.Paginated[ItemResponse], error) {
	if err := actor.Require(identity.OpReadInventory); err != nil {
		return nil, err
	}

	filter := req.ToFilter()
	items, total, err := s.itemRepo.FindAllForTenant(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]ItemResponse, len(items))
	for i := range items {
		responses[i] = ToItemResponse(&items[i])
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Update changes an item's descriptive attributes and thresholds
func (s *ItemService) Update(ctx context.Context, actor identity.Actor, itemID uuid.UUID, req UpdateItemRequest) (*ItemResponse, error) {
	if err := actor.Require(identity.OpUpdateItem); err != nil {
		return nil, err
	}
	if err := s.requireWritableTenant(ctx, actor.TenantID); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindByIDForTenant(ctx, actor.TenantID, itemID)
	if err != nil {
		return nil, err
	}

	if err := item.Update(req.Name, req.Category, req.UnitOfMeasure); err != nil {
		return nil, err
	}
	if req.ClearReorderPoint {
		if err := item.SetReorderPoint(nil); err != nil {
			return nil, err
		}
	} else if req.ReorderPoint != nil {
		if err := item.SetReorderPoint(req.ReorderPoint); err != nil {
			return nil, err
		}
	}
	if req.UnitCost != nil {
		if err := item.SetUnitCost(*req.UnitCost); err != nil {
			return nil, err
		}
	}

	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	response := ToItemResponse(item)
	return &response, nil
}

// Deactivate hides an item from transacting without losing history
func (s *ItemService) Deactivate(ctx context.Context, actor identity.Actor, itemID uuid.UUID) (*ItemResponse, error) {
	if err := actor.Require(identity.OpUpdateItem); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindByIDForTenant(ctx, actor.TenantID, itemID)
	if err != nil {
		return nil, err
	}
	item.Deactivate()
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	response := ToItemResponse(item)
	return &response, nil
}

// Reactivate returns a deactivated item to service
func (s *ItemService) Reactivate(ctx context.Context, actor identity.Actor, itemID uuid.UUID) (*ItemResponse, error) {
	if err := actor.Require(identity.OpUpdateItem); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindByIDForTenant(ctx, actor.TenantID, itemID)
	if err != nil {
		return nil, err
	}
	if err := item.Reactivate(); err != nil {
		return nil, err
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	response := ToItemResponse(item)
	return &response, nil
}

// Retire removes an item from the catalog. Items with ledger history
// can never be hard-deleted, they are discontinued instead so the
// ledger keeps referring to a real row.
func (s *ItemService) Retire(ctx context.Context, actor identity.Actor, itemID uuid.UUID) (*RetireItemResponse, error) {
	if err := actor.Require(identity.OpRetireItem); err != nil {
		return nil, err
	}
	if err := s.requireWritableTenant(ctx, actor.TenantID); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindByIDForTenant(ctx, actor.TenantID, itemID)
	if err != nil {
		return nil, err
	}

	count, err := s.transactionRepo.CountByItem(ctx, actor.TenantID, item.ID)
	if err != nil {
		return nil, err
	}

	if count == 0 {
		if err := s.itemRepo.Delete(ctx, actor.TenantID, item.ID); err != nil {
			return nil, err
		}
		s.logger.Info("item deleted",
			zap.String("tenant_id", actor.TenantID.String()),
			zap.String("item_id", item.ID.String()))
		return &RetireItemResponse{ItemID: item.ID, Deleted: true}, nil
	}

	item.Discontinue()
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info("item discontinued",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("item_id", item.ID.String()),
		zap.Int64("ledger_rows", count))
	return &RetireItemResponse{
		ItemID:  item.ID,
		Deleted: false,
		Status:  string(catalog.ItemStatusDiscontinued),
	}, nil
}

func (s *ItemService) requireWritableTenant(ctx context.Context, tenantID uuid.UUID) error {
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
