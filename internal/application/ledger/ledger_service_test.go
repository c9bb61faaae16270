package ledger_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	ledgerapp "github.com/craftledger/backend/internal/application/ledger"
	"github.com/craftledger/backend/internal/domain/catalog"
	"github.com/craftledger/backend/internal/domain/identity"
	ledgerdomain "github.com/craftledger/backend/internal/domain/ledger"
	"github.com/craftledger/backend/internal/domain/shared"
	"github.com/craftledger/backend/internal/infrastructure/cache"
	"github.com/craftledger/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type ledgerFixture struct {
	db       *gorm.DB
	service  *ledgerapp.LedgerService
	itemRepo catalog.ItemRepository
	txRepo   ledgerdomain.TransactionRepository
	tenantID uuid.UUID
}

func setupLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "ledger.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&identity.Tenant{},
		&identity.User{},
		&identity.Membership{},
		&catalog.Item{},
		&ledgerdomain.Transaction{},
	))

	tenant, err := identity.NewTenant("workshop", "Workshop")
	require.NoError(t, err)

	itemRepo := persistence.NewGormItemRepository(db)
	txRepo := persistence.NewGormTransactionRepository(db)
	tenantRepo := persistence.NewGormTenantRepository(db)
	require.NoError(t, tenantRepo.Save(context.Background(), tenant))

	scope := persistence.NewGormTransactionScope(db)
	service := ledgerapp.NewLedgerService(scope, txRepo, itemRepo, tenantRepo, zap.NewNop())
	service.SetRetryPolicy(3, time.Millisecond)

	return &ledgerFixture{
		db:       db,
		service:  service,
		itemRepo: itemRepo,
		txRepo:   txRepo,
		tenantID: tenant.ID,
	}
}

func (f *ledgerFixture) actor(role identity.Role) identity.Actor {
	return identity.Actor{UserID: uuid.New(), TenantID: f.tenantID, Role: role}
}

func (f *ledgerFixture) createItem(t *testing.T, sku string, reorderPoint *decimal.Decimal) *catalog.Item {
	t.Helper()
	item, err := catalog.NewItem(f.tenantID, sku, "Item "+sku, catalog.ItemTypeRawMaterial, "kg")
	require.NoError(t, err)
	if reorderPoint != nil {
		require.NoError(t, item.SetReorderPoint(reorderPoint))
	}
	require.NoError(t, f.itemRepo.Create(context.Background(), item))
	return item
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestLedgerAppendLifecycle(t *testing.T) {
	f := setupLedgerFixture(t)
	ctx := context.Background()
	operator := f.actor(identity.RoleOperator)
	item := f.createItem(t, "FLOUR-001", decPtr("10"))

	t.Run("receive 100 at 2.50", func(t *testing.T) {
		result, err := f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
			ItemID:   item.ID,
			Type:     "receive",
			Quantity: dec("100"),
			UnitCost: decPtr("2.50"),
		})
		require.NoError(t, err)
		assert.True(t, result.CurrentStock.Equal(dec("100")))
		assert.False(t, result.LowStock)
		require.NotNil(t, result.Transaction.TotalCost)
		assert.True(t, result.Transaction.TotalCost.Equal(dec("250")))
	})

	t.Run("consume 95 drops to low stock", func(t *testing.T) {
		result, err := f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
			ItemID:   item.ID,
			Type:     "consume",
			Quantity: dec("-95"),
		})
		require.NoError(t, err)
		assert.True(t, result.CurrentStock.Equal(dec("5")))
		assert.True(t, result.LowStock)
	})

	t.Run("over-consumption is rejected without a ledger row", func(t *testing.T) {
		before, err := f.txRepo.CountByItem(ctx, f.tenantID, item.ID)
		require.NoError(t, err)

		_, err = f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
			ItemID:   item.ID,
			Type:     "consume",
			Quantity: dec("-10"),
		})
		assertDomainCode(t, err, "INSUFFICIENT_STOCK")

		after, err := f.txRepo.CountByItem(ctx, f.tenantID, item.ID)
		require.NoError(t, err)
		assert.Equal(t, before, after)

		stock, _, err := f.service.ItemStock(ctx, operator, item.ID)
		require.NoError(t, err)
		assert.True(t, stock.Equal(dec("5")))
	})

	t.Run("cache agrees with ledger sum", func(t *testing.T) {
		sum, err := f.txRepo.SumQuantityByItem(ctx, f.tenantID, item.ID)
		require.NoError(t, err)
		assert.True(t, sum.Equal(dec("5")))
	})
}

func TestLedgerAppendSequentialConsumers(t *testing.T) {
	f := setupLedgerFixture(t)
	ctx := context.Background()
	operator := f.actor(identity.RoleOperator)
	item := f.createItem(t, "SUGAR-001", nil)

	_, err := f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
		ItemID:   item.ID,
		Type:     "receive",
		Quantity: dec("100"),
	})
	require.NoError(t, err)

	// Two consumers of 60 against 100 on hand: exactly one succeeds.
	first, err := f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
		ItemID:   item.ID,
		Type:     "consume",
		Quantity: dec("-60"),
	})
	require.NoError(t, err)
	assert.True(t, first.CurrentStock.Equal(dec("40")))

	_, err = f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
		ItemID:   item.ID,
		Type:     "consume",
		Quantity: dec("-60"),
	})
	assertDomainCode(t, err, "INSUFFICIENT_STOCK")

	sum, err := f.txRepo.SumQuantityByItem(ctx, f.tenantID, item.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(dec("40")))
}

func TestLedgerAppendRejections(t *testing.T) {
	f := setupLedgerFixture(t)
	ctx := context.Background()
	operator := f.actor(identity.RoleOperator)

	t.Run("unknown item", func(t *testing.T) {
		_, err := f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
			ItemID:   uuid.New(),
			Type:     "receive",
			Quantity: dec("1"),
		})
		assertDomainCode(t, err, "NOT_FOUND")
	})

	t.Run("item in another tenant", func(t *testing.T) {
		foreignTenant, err := identity.NewTenant("other-shop", "Other Shop")
		require.NoError(t, err)
		require.NoError(t, persistence.NewGormTenantRepository(f.db).Save(ctx, foreignTenant))
		foreignItem, err := catalog.NewItem(foreignTenant.ID, "FOREIGN-1", "Foreign", catalog.ItemTypeRawMaterial, "kg")
		require.NoError(t, err)
		require.NoError(t, f.itemRepo.Create(ctx, foreignItem))

		_, err = f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
			ItemID:   foreignItem.ID,
			Type:     "receive",
			Quantity: dec("1"),
		})
		assertDomainCode(t, err, "TENANT_MISMATCH")

		// Reads are isolated the same way as writes.
		_, _, err = f.service.ItemStock(ctx, operator, foreignItem.ID)
		assertDomainCode(t, err, "TENANT_MISMATCH")
	})

	t.Run("inactive item", func(t *testing.T) {
		item := f.createItem(t, "RETIRED-1", nil)
		loaded, err := f.itemRepo.FindByIDForTenant(ctx, f.tenantID, item.ID)
		require.NoError(t, err)
		loaded.Deactivate()
		require.NoError(t, f.itemRepo.Save(ctx, loaded))

		_, err = f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
			ItemID:   item.ID,
			Type:     "receive",
			Quantity: dec("1"),
		})
		assertDomainCode(t, err, "INVALID_STATE")
	})

	t.Run("zero quantity", func(t *testing.T) {
		item := f.createItem(t, "ZERO-1", nil)
		_, err := f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
			ItemID:   item.ID,
			Type:     "count_adjustment",
			Quantity: decimal.Zero,
		})
		assertDomainCode(t, err, "INVALID_QUANTITY")
	})

	t.Run("missing authorization", func(t *testing.T) {
		item := f.createItem(t, "AUTH-1", nil)
		_, err := f.service.Append(ctx, identity.Actor{}, "", ledgerapp.AppendTransactionRequest{
			ItemID:   item.ID,
			Type:     "receive",
			Quantity: dec("1"),
		})
		assertDomainCode(t, err, "UNAUTHORIZED")
	})
}

func TestLedgerVoid(t *testing.T) {
	f := setupLedgerFixture(t)
	ctx := context.Background()
	operator := f.actor(identity.RoleOperator)
	manager := f.actor(identity.RoleManager)
	item := f.createItem(t, "BUTTER-001", nil)

	receive, err := f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
		ItemID:   item.ID,
		Type:     "receive",
		Quantity: dec("50"),
		UnitCost: decPtr("4.00"),
	})
	require.NoError(t, err)

	t.Run("operator cannot void", func(t *testing.T) {
		_, err := f.service.Void(ctx, operator, receive.Transaction.ID, ledgerapp.VoidTransactionRequest{Reason: "oops"})
		assertDomainCode(t, err, "FORBIDDEN")
	})

	t.Run("manager voids with compensating entry", func(t *testing.T) {
		before, err := f.txRepo.CountByItem(ctx, f.tenantID, item.ID)
		require.NoError(t, err)

		result, err := f.service.Void(ctx, manager, receive.Transaction.ID, ledgerapp.VoidTransactionRequest{Reason: "wrong delivery"})
		require.NoError(t, err)
		assert.True(t, result.CurrentStock.IsZero())
		assert.Equal(t, "other_adjustment", result.Reversal.Type)
		assert.True(t, result.Reversal.Quantity.Equal(dec("-50")))
		require.NotNil(t, result.Reversal.ReversalOf)
		assert.Equal(t, receive.Transaction.ID, *result.Reversal.ReversalOf)

		// The ledger only ever grows; the original row is untouched.
		after, err := f.txRepo.CountByItem(ctx, f.tenantID, item.ID)
		require.NoError(t, err)
		assert.Equal(t, before+1, after)

		original, err := f.txRepo.FindByID(ctx, f.tenantID, receive.Transaction.ID)
		require.NoError(t, err)
		assert.True(t, original.Quantity.Equal(dec("50")))
		assert.Nil(t, original.ReversalOf)
	})

	t.Run("double void is rejected", func(t *testing.T) {
		_, err := f.service.Void(ctx, manager, receive.Transaction.ID, ledgerapp.VoidTransactionRequest{Reason: "again"})
		assertDomainCode(t, err, "ALREADY_VOIDED")
	})

	t.Run("voided state is derived on read", func(t *testing.T) {
		detail, err := f.service.GetTransaction(ctx, operator, receive.Transaction.ID)
		require.NoError(t, err)
		assert.True(t, detail.Voided)
	})

	t.Run("void that would drive stock negative is rejected", func(t *testing.T) {
		r2, err := f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
			ItemID:   item.ID,
			Type:     "receive",
			Quantity: dec("30"),
		})
		require.NoError(t, err)
		_, err = f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
			ItemID:   item.ID,
			Type:     "consume",
			Quantity: dec("-20"),
		})
		require.NoError(t, err)

		_, err = f.service.Void(ctx, manager, r2.Transaction.ID, ledgerapp.VoidTransactionRequest{Reason: "too late"})
		assertDomainCode(t, err, "INSUFFICIENT_STOCK")
	})

	t.Run("a reversal cannot be voided", func(t *testing.T) {
		item2 := f.createItem(t, "CREAM-001", nil)
		r, err := f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
			ItemID:   item2.ID,
			Type:     "receive",
			Quantity: dec("10"),
		})
		require.NoError(t, err)
		v, err := f.service.Void(ctx, manager, r.Transaction.ID, ledgerapp.VoidTransactionRequest{Reason: "bad entry"})
		require.NoError(t, err)

		_, err = f.service.Void(ctx, manager, v.Reversal.ID, ledgerapp.VoidTransactionRequest{Reason: "undo the undo"})
		assertDomainCode(t, err, "INVALID_STATE")
	})
}

func TestLedgerQuery(t *testing.T) {
	f := setupLedgerFixture(t)
	ctx := context.Background()
	operator := f.actor(identity.RoleOperator)
	itemA := f.createItem(t, "Q-A", nil)
	itemB := f.createItem(t, "Q-B", nil)

	times := []time.Time{
		time.Now().Add(-3 * time.Hour),
		time.Now().Add(-2 * time.Hour),
		time.Now().Add(-1 * time.Hour),
	}
	for i, at := range times {
		target := itemA
		if i == 1 {
			target = itemB
		}
		occurred := at
		_, err := f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
			ItemID:     target.ID,
			Type:       "receive",
			Quantity:   dec("10"),
			OccurredAt: &occurred,
		})
		require.NoError(t, err)
	}

	t.Run("newest first", func(t *testing.T) {
		page, err := f.service.Query(ctx, operator, ledgerapp.QueryTransactionsRequest{})
		require.NoError(t, err)
		require.Len(t, page.Items, 3)
		assert.True(t, page.Items[0].OccurredAt.After(page.Items[1].OccurredAt))
		assert.True(t, page.Items[1].OccurredAt.After(page.Items[2].OccurredAt))
	})

	t.Run("filter by item", func(t *testing.T) {
		page, err := f.service.Query(ctx, operator, ledgerapp.QueryTransactionsRequest{ItemID: &itemB.ID})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, itemB.ID, page.Items[0].ItemID)
	})

	t.Run("time window", func(t *testing.T) {
		from := time.Now().Add(-150 * time.Minute)
		page, err := f.service.Query(ctx, operator, ledgerapp.QueryTransactionsRequest{From: &from})
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := f.service.Query(ctx, operator, ledgerapp.QueryTransactionsRequest{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.Equal(t, int64(3), page.Total)
	})
}

func TestLedgerRecompute(t *testing.T) {
	f := setupLedgerFixture(t)
	ctx := context.Background()
	operator := f.actor(identity.RoleOperator)
	manager := f.actor(identity.RoleManager)
	item := f.createItem(t, "DRIFT-001", nil)

	_, err := f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
		ItemID:   item.ID,
		Type:     "receive",
		Quantity: dec("80"),
	})
	require.NoError(t, err)

	t.Run("healthy item is a no-op", func(t *testing.T) {
		result, err := f.service.Recompute(ctx, manager, item.ID)
		require.NoError(t, err)
		assert.False(t, result.Corrected)
		assert.True(t, result.Drift.IsZero())
		assert.True(t, result.ComputedStock.Equal(dec("80")))
	})

	t.Run("drifted cache is rebuilt from the ledger", func(t *testing.T) {
		// Corrupt the cache behind the service's back.
		require.NoError(t, f.db.Model(&catalog.Item{}).
			Where("id = ?", item.ID).
			Update("current_stock", dec("75")).Error)

		result, err := f.service.Recompute(ctx, manager, item.ID)
		require.NoError(t, err)
		assert.True(t, result.Corrected)
		assert.True(t, result.PreviousStock.Equal(dec("75")))
		assert.True(t, result.ComputedStock.Equal(dec("80")))
		assert.True(t, result.Drift.Equal(dec("5")))

		stock, _, err := f.service.ItemStock(ctx, operator, item.ID)
		require.NoError(t, err)
		assert.True(t, stock.Equal(dec("80")))
	})

	t.Run("recompute is idempotent", func(t *testing.T) {
		result, err := f.service.Recompute(ctx, manager, item.ID)
		require.NoError(t, err)
		assert.False(t, result.Corrected)
	})

	t.Run("operator cannot recompute", func(t *testing.T) {
		_, err := f.service.Recompute(ctx, operator, item.ID)
		assertDomainCode(t, err, "FORBIDDEN")
	})
}

func TestLedgerAppendIdempotency(t *testing.T) {
	f := setupLedgerFixture(t)
	ctx := context.Background()
	operator := f.actor(identity.RoleOperator)
	item := f.createItem(t, "IDEM-001", nil)
	f.service.SetIdempotencyStore(cache.NewInMemoryIdempotencyStore(time.Minute))

	first, err := f.service.Append(ctx, operator, "req-42", ledgerapp.AppendTransactionRequest{
		ItemID:   item.ID,
		Type:     "receive",
		Quantity: dec("25"),
	})
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := f.service.Append(ctx, operator, "req-42", ledgerapp.AppendTransactionRequest{
		ItemID:   item.ID,
		Type:     "receive",
		Quantity: dec("25"),
	})
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Transaction.ID, second.Transaction.ID)

	// The retried request must not double-count stock.
	stock, _, err := f.service.ItemStock(ctx, operator, item.ID)
	require.NoError(t, err)
	assert.True(t, stock.Equal(dec("25")))

	count, err := f.txRepo.CountByItem(ctx, f.tenantID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// A different key appends normally.
	third, err := f.service.Append(ctx, operator, "req-43", ledgerapp.AppendTransactionRequest{
		ItemID:   item.ID,
		Type:     "receive",
		Quantity: dec("25"),
	})
	require.NoError(t, err)
	assert.False(t, third.Replayed)
	assert.True(t, third.CurrentStock.Equal(dec("50")))
}

func TestLedgerLowStockReport(t *testing.T) {
	f := setupLedgerFixture(t)
	ctx := context.Background()
	operator := f.actor(identity.RoleOperator)

	low := f.createItem(t, "LOW-001", decPtr("20"))
	ok := f.createItem(t, "OK-001", decPtr("5"))
	f.createItem(t, "NOPOINT-001", nil)

	_, err := f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
		ItemID:   low.ID,
		Type:     "receive",
		Quantity: dec("15"),
	})
	require.NoError(t, err)
	_, err = f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
		ItemID:   ok.ID,
		Type:     "receive",
		Quantity: dec("50"),
	})
	require.NoError(t, err)

	report, err := f.service.LowStockReport(ctx, operator, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, "LOW-001", report.Items[0].SKU)
	assert.True(t, report.Items[0].CurrentStock.Equal(dec("15")))
}

func TestLedgerTenantWritability(t *testing.T) {
	f := setupLedgerFixture(t)
	ctx := context.Background()
	operator := f.actor(identity.RoleOperator)
	item := f.createItem(t, "FROZEN-001", nil)

	tenantRepo := persistence.NewGormTenantRepository(f.db)
	tenant, err := tenantRepo.FindByID(ctx, f.tenantID)
	require.NoError(t, err)
	tenant.Deactivate()
	require.NoError(t, tenantRepo.Save(ctx, tenant))

	_, err = f.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
		ItemID:   item.ID,
		Type:     "receive",
		Quantity: dec("1"),
	})
	assertDomainCode(t, err, "INVALID_STATE")
}
