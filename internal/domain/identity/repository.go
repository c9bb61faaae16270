package identity

import (
	"context"

	"github.com/craftledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantRepository provides persistence for Tenant aggregates
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	Save(ctx context.Context, tenant *Tenant) error
}

// UserRepository provides persistence for User aggregates
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) error
}

// MembershipRepository provides persistence for Membership aggregates
type MembershipRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Membership, error)
	// FindByTenantAndUser resolves the single membership for a (tenant, user) pair.
	FindByTenantAndUser(ctx context.Context, tenantID, userID uuid.UUID) (*Membership, error)
	// FindByUser returns all memberships for a user across tenants.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Membership, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Membership, int64, error)
	// CountActiveAdmins counts joined, active admin memberships. Used to
	// keep every tenant with at least one admin.
	CountActiveAdmins(ctx context.Context, tenantID uuid.UUID) (int64, error)
	Save(ctx context.Context, membership *Membership) error
}
