package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTenant(t *testing.T) {
	t.Run("valid tenant starts in trial", func(t *testing.T) {
		tenant, err := NewTenant("acme-foods", "Acme Foods")
		require.NoError(t, err)
		assert.Equal(t, "acme-foods", tenant.Slug)
		assert.Equal(t, "Acme Foods", tenant.Name)
		assert.Equal(t, TenantStatusTrial, tenant.Status)
		assert.True(t, tenant.IsWritable())
	})

	t.Run("invalid slugs", func(t *testing.T) {
		for _, slug := range []string{"", "Acme", "acme_foods", "-acme", "acme-", "acme foods"} {
			_, err := NewTenant(slug, "Acme")
			assert.Error(t, err, "slug %q should be rejected", slug)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := NewTenant("acme", "")
		assert.Error(t, err)
	})
}

func TestTenantLifecycle(t *testing.T) {
	tenant, err := NewTenant("acme", "Acme")
	require.NoError(t, err)

	tenant.Activate()
	assert.Equal(t, TenantStatusActive, tenant.Status)
	assert.True(t, tenant.IsWritable())

	tenant.Deactivate()
	assert.Equal(t, TenantStatusInactive, tenant.Status)
	assert.False(t, tenant.IsWritable())
}

func TestTenantRename(t *testing.T) {
	tenant, err := NewTenant("acme", "Acme")
	require.NoError(t, err)

	err = tenant.Rename("Acme Manufacturing")
	require.NoError(t, err)
	assert.Equal(t, "Acme Manufacturing", tenant.Name)

	err = tenant.Rename("")
	assert.Error(t, err)
}
