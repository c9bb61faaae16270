package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestItem(t *testing.T) *Item {
	t.Helper()
	item, err := NewItem(uuid.New(), "FLOUR-001", "Bread Flour", ItemTypeRawMaterial, "kg")
	require.NoError(t, err)
	return item
}

func TestNewItem(t *testing.T) {
	t.Run("valid item", func(t *testing.T) {
		tenantID := uuid.New()
		item, err := NewItem(tenantID, "FLOUR-001", "Bread Flour", ItemTypeRawMaterial, "kg")
		require.NoError(t, err)
		assert.Equal(t, tenantID, item.TenantID)
		assert.Equal(t, "FLOUR-001", item.SKU)
		assert.Equal(t, ItemStatusActive, item.Status)
		assert.True(t, item.CurrentStock.IsZero())
		assert.Nil(t, item.ReorderPoint)
		assert.True(t, item.CanTransact())
	})

	t.Run("empty tenant", func(t *testing.T) {
		_, err := NewItem(uuid.Nil, "SKU-1", "Name", ItemTypeRawMaterial, "kg")
		assert.Error(t, err)
	})

	t.Run("empty sku", func(t *testing.T) {
		_, err := NewItem(uuid.New(), "  ", "Name", ItemTypeRawMaterial, "kg")
		assert.Error(t, err)
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := NewItem(uuid.New(), "SKU-1", "Name", ItemType("service"), "kg")
		assert.Error(t, err)
	})

	t.Run("empty unit of measure", func(t *testing.T) {
		_, err := NewItem(uuid.New(), "SKU-1", "Name", ItemTypeFinishedGood, "")
		assert.Error(t, err)
	})
}

func TestItemApplyStockDelta(t *testing.T) {
	t.Run("positive delta increases stock", func(t *testing.T) {
		item := newTestItem(t)
		err := item.ApplyStockDelta(decimal.NewFromInt(100))
		require.NoError(t, err)
		assert.True(t, item.CurrentStock.Equal(decimal.NewFromInt(100)))
	})

	t.Run("negative delta decreases stock", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.ApplyStockDelta(decimal.NewFromInt(100)))
		require.NoError(t, item.ApplyStockDelta(decimal.NewFromInt(-95)))
		assert.True(t, item.CurrentStock.Equal(decimal.NewFromInt(5)))
	})

	t.Run("delta below zero is rejected and stock unchanged", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.ApplyStockDelta(decimal.NewFromInt(5)))

		err := item.ApplyStockDelta(decimal.NewFromInt(-10))
		assert.Error(t, err)
		assert.True(t, item.CurrentStock.Equal(decimal.NewFromInt(5)))
	})

	t.Run("draining to exactly zero is allowed", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.ApplyStockDelta(decimal.NewFromInt(10)))
		require.NoError(t, item.ApplyStockDelta(decimal.NewFromInt(-10)))
		assert.True(t, item.CurrentStock.IsZero())
	})

	t.Run("zero delta is rejected", func(t *testing.T) {
		item := newTestItem(t)
		err := item.ApplyStockDelta(decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("fractional quantities", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.ApplyStockDelta(decimal.RequireFromString("2.5")))
		require.NoError(t, item.ApplyStockDelta(decimal.RequireFromString("-1.25")))
		assert.True(t, item.CurrentStock.Equal(decimal.RequireFromString("1.25")))
	})
}

func TestItemIsLowStock(t *testing.T) {
	t.Run("no reorder point set", func(t *testing.T) {
		item := newTestItem(t)
		assert.False(t, item.IsLowStock())
	})

	t.Run("above reorder point", func(t *testing.T) {
		item := newTestItem(t)
		rp := decimal.NewFromInt(10)
		require.NoError(t, item.SetReorderPoint(&rp))
		require.NoError(t, item.ApplyStockDelta(decimal.NewFromInt(100)))
		assert.False(t, item.IsLowStock())
	})

	t.Run("exactly at reorder point", func(t *testing.T) {
		item := newTestItem(t)
		rp := decimal.NewFromInt(10)
		require.NoError(t, item.SetReorderPoint(&rp))
		require.NoError(t, item.ApplyStockDelta(decimal.NewFromInt(10)))
		assert.True(t, item.IsLowStock())
	})

	t.Run("below reorder point", func(t *testing.T) {
		item := newTestItem(t)
		rp := decimal.NewFromInt(10)
		require.NoError(t, item.SetReorderPoint(&rp))
		require.NoError(t, item.ApplyStockDelta(decimal.NewFromInt(5)))
		assert.True(t, item.IsLowStock())
	})

	t.Run("negative reorder point is rejected", func(t *testing.T) {
		item := newTestItem(t)
		rp := decimal.NewFromInt(-1)
		assert.Error(t, item.SetReorderPoint(&rp))
	})
}

func TestItemLifecycle(t *testing.T) {
	t.Run("deactivate blocks transactions", func(t *testing.T) {
		item := newTestItem(t)
		item.Deactivate()
		assert.Equal(t, ItemStatusInactive, item.Status)
		assert.False(t, item.CanTransact())
	})

	t.Run("reactivate inactive item", func(t *testing.T) {
		item := newTestItem(t)
		item.Deactivate()
		require.NoError(t, item.Reactivate())
		assert.True(t, item.CanTransact())
	})

	t.Run("discontinued is terminal", func(t *testing.T) {
		item := newTestItem(t)
		item.Discontinue()
		assert.Equal(t, ItemStatusDiscontinued, item.Status)
		assert.False(t, item.CanTransact())
		assert.Error(t, item.Reactivate())
	})
}

func TestItemUpdate(t *testing.T) {
	item := newTestItem(t)

	err := item.Update("Whole Wheat Flour", "baking", "kg")
	require.NoError(t, err)
	assert.Equal(t, "Whole Wheat Flour", item.Name)
	assert.Equal(t, "baking", item.Category)

	assert.Error(t, item.Update("", "baking", "kg"))
	assert.Error(t, item.Update("Name", "baking", ""))
}

func TestItemSetUnitCost(t *testing.T) {
	item := newTestItem(t)

	err := item.SetUnitCost(decimal.RequireFromString("2.50"))
	require.NoError(t, err)
	require.NotNil(t, item.UnitCost)
	assert.True(t, item.UnitCost.Equal(decimal.RequireFromString("2.50")))

	assert.Error(t, item.SetUnitCost(decimal.NewFromInt(-1)))
}
