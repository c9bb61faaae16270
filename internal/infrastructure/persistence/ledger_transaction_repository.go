package persistence

import (
	"context"
	"errors"

	"github.com/craftledger/backend/internal/domain/ledger"
	"github.com/craftledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTransactionRepository implements ledger.TransactionRepository
// using GORM. Rows are only ever inserted; there is no update path.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create appends a transaction row. The unique index on reversal_of
// makes a concurrent double-void fail here even if both writers passed
// the HasReversal check.
func (r *GormTransactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		if isDuplicateKeyError(err) {
			if tx.ReversalOf != nil {
				return shared.NewDomainError("ALREADY_VOIDED", "Transaction has already been voided")
			}
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds a transaction by ID within a tenant
func (r *GormTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Transaction, error) {
	var tx ledger.Transaction
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// Query returns the tenant's transactions newest first, filtered and paginated
func (r *GormTransactionRepository) Query(ctx context.Context, tenantID uuid.UUID, filter ledger.QueryFilter) ([]ledger.Transaction, int64, error) {
	filter.Normalize()

	query := r.db.WithContext(ctx).Model(&ledger.Transaction{}).Where("tenant_id = ?", tenantID)
	if filter.ItemID != nil {
		query = query.Where("item_id = ?", *filter.ItemID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at < ?", *filter.To)
	}
	if filter.ReferenceKind != "" {
		query = query.Where("reference_kind = ?", filter.ReferenceKind)
	}
	if filter.ReferenceID != "" {
		query = query.Where("reference_id = ?", filter.ReferenceID)
	}
	if filter.LotCode != "" {
		query = query.Where("lot_code = ?", filter.LotCode)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txs []ledger.Transaction
	if err := query.
		Order("occurred_at DESC, created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&txs).Error; err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// SumQuantityByItem folds all signed quantities for the item. This is
// the ledger's authoritative answer for the item's stock.
func (r *GormTransactionRepository) SumQuantityByItem(ctx context.Context, tenantID, itemID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&ledger.Transaction{}).
		Where("tenant_id = ? AND item_id = ?", tenantID, itemID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// HasReversal reports whether a compensating entry exists for the transaction
func (r *GormTransactionRepository) HasReversal(ctx context.Context, originalID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ledger.Transaction{}).
		Where("reversal_of = ?", originalID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByItem counts the item's ledger rows
func (r *GormTransactionRepository) CountByItem(ctx context.Context, tenantID, itemID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ledger.Transaction{}).
		Where("tenant_id = ? AND item_id = ?", tenantID, itemID).
		Count(&count).Error
	return count, err
}

var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)
