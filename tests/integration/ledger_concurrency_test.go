package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	ledgerapp "github.com/craftledger/backend/internal/application/ledger"
	"github.com/craftledger/backend/internal/domain/catalog"
	"github.com/craftledger/backend/internal/domain/identity"
	"github.com/craftledger/backend/internal/domain/ledger"
	"github.com/craftledger/backend/internal/domain/shared"
	"github.com/craftledger/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ledgerStack struct {
	db       *TestDB
	service  *ledgerapp.LedgerService
	itemRepo *persistence.GormItemRepository
	txRepo   *persistence.GormTransactionRepository
	tenantID uuid.UUID
}

func newLedgerStack(t *testing.T) *ledgerStack {
	t.Helper()

	testDB := NewTestDB(t)

	tenantRepo := persistence.NewGormTenantRepository(testDB.DB)
	itemRepo := persistence.NewGormItemRepository(testDB.DB)
	txRepo := persistence.NewGormTransactionRepository(testDB.DB)
	scope := persistence.NewGormTransactionScope(testDB.DB)

	tenant, err := identity.NewTenant("workshop", "Workshop")
	require.NoError(t, err)
	tenant.Activate()
	require.NoError(t, tenantRepo.Save(context.Background(), tenant))

	service := ledgerapp.NewLedgerService(scope, txRepo, itemRepo, tenantRepo, zap.NewNop())
	service.SetRetryPolicy(5, 5*time.Millisecond)

	return &ledgerStack{
		db:       testDB,
		service:  service,
		itemRepo: itemRepo,
		txRepo:   txRepo,
		tenantID: tenant.ID,
	}
}

func (s *ledgerStack) actor(role identity.Role) identity.Actor {
	return identity.Actor{UserID: uuid.New(), TenantID: s.tenantID, Role: role}
}

func (s *ledgerStack) createItem(t *testing.T, sku string) *catalog.Item {
	t.Helper()
	item, err := catalog.NewItem(s.tenantID, sku, "Flour", catalog.ItemTypeRawMaterial, "kg")
	require.NoError(t, err)
	require.NoError(t, s.itemRepo.Create(context.Background(), item))
	return item
}

// TestLedgerAppend_ConcurrentConsumers verifies that the row lock taken
// during append serializes concurrent writers: with 100 units on hand,
// two simultaneous consumptions of 60 must not both succeed.
func TestLedgerAppend_ConcurrentConsumers(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	stack := newLedgerStack(t)
	ctx := context.Background()
	operator := stack.actor(identity.RoleOperator)
	item := stack.createItem(t, "FLOUR-01")

	unitCost := decimal.RequireFromString("2.50")
	_, err := stack.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
		ItemID:   item.ID,
		Type:     string(ledger.TransactionTypeReceive),
		Quantity: decimal.NewFromInt(100),
		UnitCost: &unitCost,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = stack.service.Append(ctx, operator, "", ledgerapp.AppendTransactionRequest{
				ItemID:   item.ID,
				Type:     string(ledger.TransactionTypeConsume),
				Quantity: decimal.NewFromInt(-60),
			})
		}(i)
	}
	close(start)
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one of the two consumers must be rejected")

	stock, _, err := stack.service.ItemStock(ctx, operator, item.ID)
	require.NoError(t, err)
	assert.True(t, stock.Equal(decimal.NewFromInt(40)), "expected 40, got %s", stock)

	// The cache must agree with the fold over the ledger rows.
	sum, err := stack.txRepo.SumQuantityByItem(ctx, stack.tenantID, item.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(stock))
}

// TestLedgerVoid_ReversalUniqueIndex exercises the partial unique index
// on reversal_of: even a writer that bypasses the service cannot record
// a second reversal for the same transaction.
func TestLedgerVoid_ReversalUniqueIndex(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	stack := newLedgerStack(t)
	ctx := context.Background()
	manager := stack.actor(identity.RoleManager)
	item := stack.createItem(t, "SUGAR-01")

	appendResult, err := stack.service.Append(ctx, manager, "", ledgerapp.AppendTransactionRequest{
		ItemID:   item.ID,
		Type:     string(ledger.TransactionTypeReceive),
		Quantity: decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	_, err = stack.service.Void(ctx, manager, appendResult.Transaction.ID, ledgerapp.VoidTransactionRequest{
		Reason: "wrong count",
	})
	require.NoError(t, err)

	original, err := stack.txRepo.FindByID(ctx, stack.tenantID, appendResult.Transaction.ID)
	require.NoError(t, err)

	duplicate, err := ledger.NewReversal(original, manager.UserID, "duplicate attempt")
	require.NoError(t, err)
	err = stack.txRepo.Create(ctx, duplicate)
	assert.Error(t, err, "second reversal row must violate the unique index")
}

// TestLedgerTenantIsolation confirms that one tenant's actors can
// neither read nor append against another tenant's items.
func TestLedgerTenantIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	stack := newLedgerStack(t)
	ctx := context.Background()
	item := stack.createItem(t, "BUTTER-01")

	otherTenant, err := identity.NewTenant("rival", "Rival Workshop")
	require.NoError(t, err)
	otherTenant.Activate()
	tenantRepo := persistence.NewGormTenantRepository(stack.db.DB)
	require.NoError(t, tenantRepo.Save(ctx, otherTenant))

	intruder := identity.Actor{UserID: uuid.New(), TenantID: otherTenant.ID, Role: identity.RoleAdmin}

	_, err = stack.service.Append(ctx, intruder, "", ledgerapp.AppendTransactionRequest{
		ItemID:   item.ID,
		Type:     string(ledger.TransactionTypeReceive),
		Quantity: decimal.NewFromInt(10),
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TENANT_MISMATCH", domainErr.Code)

	_, _, err = stack.service.ItemStock(ctx, intruder, item.ID)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TENANT_MISMATCH", domainErr.Code)
}
