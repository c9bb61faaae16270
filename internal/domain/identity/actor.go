package identity

import (
	"github.com/craftledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Actor is the resolved caller identity passed explicitly into every
// application service: who is acting, in which tenant, with what role.
// Services never read tenant or role from ambient state.
type Actor struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     Role
}

// Require returns nil if the actor is authenticated and its role
// permits the operation. Missing identity maps to UNAUTHORIZED, a
// known identity without the permission maps to FORBIDDEN.
func (a Actor) Require(op Operation) error {
	if a.UserID == uuid.Nil || a.TenantID == uuid.Nil {
		return shared.ErrUnauthorized
	}
	if !a.Role.Can(op) {
		return shared.ErrForbidden
	}
	return nil
}
