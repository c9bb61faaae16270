package identity

import (
	"time"

	"github.com/craftledger/backend/internal/domain/identity"
	"github.com/craftledger/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
)

// SignupRequest creates a new tenant with its founding admin user
type SignupRequest struct {
	TenantSlug  string `json:"tenant_slug" binding:"required,max=63"`
	TenantName  string `json:"tenant_name" binding:"required,max=200"`
	Email       string `json:"email" binding:"required,email,max=200"`
	DisplayName string `json:"display_name" binding:"required,max=100"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest authenticates a user against one tenant
type LoginRequest struct {
	TenantSlug string `json:"tenant_slug" binding:"required,max=63"`
	Email      string `json:"email" binding:"required,email,max=200"`
	Password   string `json:"password" binding:"required,max=72"`
}

// RefreshRequest exchanges a refresh token for a new pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse carries the issued tokens plus the resolved identity
type AuthResponse struct {
	Tokens     *auth.TokenPair `json:"tokens"`
	UserID     uuid.UUID       `json:"user_id"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	TenantSlug string          `json:"tenant_slug"`
	Role       string          `json:"role"`
}

// InviteMemberRequest invites an existing user into the actor's tenant
type InviteMemberRequest struct {
	Email string `json:"email" binding:"required,email,max=200"`
	Role  string `json:"role" binding:"required,role"`
}

// ChangeRoleRequest assigns a new role to a member
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,role"`
}

// ListMembersRequest represents member listing query parameters
type ListMembersRequest struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=20"`
}

// MembershipResponse represents a membership in API responses
type MembershipResponse struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Role      string     `json:"role"`
	InvitedAt time.Time  `json:"invited_at"`
	JoinedAt  *time.Time `json:"joined_at,omitempty"`
	Active    bool       `json:"active"`
}

// ToMembershipResponse converts a domain membership to a response DTO
func ToMembershipResponse(m *identity.Membership) MembershipResponse {
	return MembershipResponse{
		ID:        m.ID,
		TenantID:  m.TenantID,
		UserID:    m.UserID,
		Role:      m.Role.String(),
		InvitedAt: m.InvitedAt,
		JoinedAt:  m.JoinedAt,
		Active:    m.Active,
	}
}
