package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMembership(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("valid invitation", func(t *testing.T) {
		m, err := NewMembership(tenantID, userID, RoleOperator)
		require.NoError(t, err)
		assert.Equal(t, tenantID, m.TenantID)
		assert.Equal(t, userID, m.UserID)
		assert.Equal(t, RoleOperator, m.Role)
		assert.Nil(t, m.JoinedAt)
		assert.False(t, m.IsJoined())
		assert.True(t, m.Active)
		assert.False(t, m.InvitedAt.IsZero())
	})

	t.Run("empty tenant", func(t *testing.T) {
		_, err := NewMembership(uuid.Nil, userID, RoleOperator)
		assert.Error(t, err)
	})

	t.Run("empty user", func(t *testing.T) {
		_, err := NewMembership(tenantID, uuid.Nil, RoleOperator)
		assert.Error(t, err)
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := NewMembership(tenantID, userID, Role("root"))
		assert.Error(t, err)
	})
}

func TestNewJoinedMembership(t *testing.T) {
	m, err := NewJoinedMembership(uuid.New(), uuid.New(), RoleAdmin)
	require.NoError(t, err)
	assert.True(t, m.IsJoined())
	require.NotNil(t, m.JoinedAt)
	assert.False(t, m.JoinedAt.Before(m.InvitedAt))
}

func TestMembershipAccept(t *testing.T) {
	t.Run("accept pending invitation", func(t *testing.T) {
		m, err := NewMembership(uuid.New(), uuid.New(), RoleManager)
		require.NoError(t, err)

		err = m.Accept()
		require.NoError(t, err)
		assert.True(t, m.IsJoined())
		require.NotNil(t, m.JoinedAt)
		assert.False(t, m.JoinedAt.Before(m.InvitedAt))
	})

	t.Run("accept twice fails", func(t *testing.T) {
		m, err := NewJoinedMembership(uuid.New(), uuid.New(), RoleManager)
		require.NoError(t, err)

		err = m.Accept()
		assert.Error(t, err)
	})
}

func TestMembershipChangeRole(t *testing.T) {
	m, err := NewJoinedMembership(uuid.New(), uuid.New(), RoleOperator)
	require.NoError(t, err)
	initialVersion := m.Version

	err = m.ChangeRole(RoleManager)
	require.NoError(t, err)
	assert.Equal(t, RoleManager, m.Role)
	// Mutators never touch the version; the repository bumps it on save.
	assert.Equal(t, initialVersion, m.Version)

	err = m.ChangeRole(Role("root"))
	assert.Error(t, err)
	assert.Equal(t, RoleManager, m.Role)
}

func TestMembershipDeactivate(t *testing.T) {
	m, err := NewJoinedMembership(uuid.New(), uuid.New(), RoleOperator)
	require.NoError(t, err)

	m.Deactivate()
	assert.False(t, m.Active)
}
