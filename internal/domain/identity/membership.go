package identity

import (
	"time"

	"github.com/craftledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Membership binds a user identity to exactly one tenant with one role.
// The (tenant, user) pair is unique. JoinedAt stays nil until the
// invitation is accepted and is never earlier than InvitedAt.
type Membership struct {
	shared.BaseAggregateRoot
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_membership_tenant_user,priority:1"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_membership_tenant_user,priority:2"`
	Role      Role       `gorm:"type:varchar(20);not null"`
	InvitedAt time.Time  `gorm:"not null"`
	JoinedAt  *time.Time `gorm:""`
	Active    bool       `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Membership) TableName() string {
	return "memberships"
}

// NewMembership creates a pending invitation for a user to join a tenant
func NewMembership(tenantID, userID uuid.UUID, role Role) (*Membership, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be one of admin, manager, operator")
	}

	return &Membership{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TenantID:          tenantID,
		UserID:            userID,
		Role:              role,
		InvitedAt:         time.Now(),
		Active:            true,
	}, nil
}

// NewJoinedMembership creates a membership that is accepted immediately,
// used for the founding admin at tenant signup.
func NewJoinedMembership(tenantID, userID uuid.UUID, role Role) (*Membership, error) {
	m, err := NewMembership(tenantID, userID, role)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	m.JoinedAt = &now
	return m, nil
}

// Accept marks the invitation as accepted
func (m *Membership) Accept() error {
	if m.JoinedAt != nil {
		return shared.NewDomainError("INVALID_STATE", "Membership has already been accepted")
	}
	now := time.Now()
	if now.Before(m.InvitedAt) {
		now = m.InvitedAt
	}
	m.JoinedAt = &now
	m.UpdatedAt = time.Now()
	return nil
}

// IsJoined returns true once the invitation has been accepted
func (m *Membership) IsJoined() bool {
	return m.JoinedAt != nil
}

// ChangeRole assigns a new role to the member
func (m *Membership) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Role must be one of admin, manager, operator")
	}
	m.Role = role
	m.UpdatedAt = time.Now()
	return nil
}

// Deactivate revokes the member's access without deleting history
func (m *Membership) Deactivate() {
	m.Active = false
	m.UpdatedAt = time.Now()
}
