package identity

import (
	"context"
	"errors"

	"github.com/craftledger/backend/internal/domain/identity"
	"github.com/craftledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MembershipService handles member invitation and lifecycle within a
// tenant. Every tenant must keep at least one active admin.
type MembershipService struct {
	membershipRepo identity.MembershipRepository
	userRepo       identity.UserRepository
	logger         *zap.Logger
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(
	membershipRepo identity.MembershipRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *MembershipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MembershipService{
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		logger:         logger,
	}
}

// Invite invites an existing user into the actor's tenant. An inviter
// cannot grant the admin role unless they are an admin themselves.
func (s *MembershipService) Invite(ctx context.Context, actor identity.Actor, req InviteMemberRequest) (*MembershipResponse, error) {
	if err := actor.Require(identity.OpInviteMember); err != nil {
		return nil, err
	}
	role := identity.Role(req.Role)
	if role == identity.RoleAdmin && actor.Role != identity.RoleAdmin {
		return nil, shared.ErrForbidden
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, shared.NewDomainError("INVALID_STATE", "User account is deactivated")
	}

	existing, err := s.membershipRepo.FindByTenantAndUser(ctx, actor.TenantID, user.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "User is already a member of this tenant")
	}

	membership, err := identity.NewMembership(actor.TenantID, user.ID, role)
	if err != nil {
		return nil, err
	}
	if err := s.membershipRepo.Save(ctx, membership); err != nil {
		return nil, err
	}

	s.logger.Info("member invited",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", role.String()))

	response := ToMembershipResponse(membership)
	return &response, nil
}

// Accept lets the invited user accept their own pending invitation
func (s *MembershipService) Accept(ctx context.Context, userID, membershipID uuid.UUID) (*MembershipResponse, error) {
	membership, err := s.membershipRepo.FindByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if membership.UserID != userID {
		return nil, shared.ErrForbidden
	}
	if !membership.Active {
		return nil, shared.NewDomainError("INVALID_STATE", "Invitation has been revoked")
	}

	if err := membership.Accept(); err != nil {
		return nil, err
	}
	if err := s.membershipRepo.Save(ctx, membership); err != nil {
		return nil, err
	}

	response := ToMembershipResponse(membership)
	return &response, nil
}

// List returns the tenant's memberships, paginated
func (s *MembershipService) List(ctx context.Context, actor identity.Actor, req ListMembersRequest) (*shared.Paginated[MembershipResponse], error) {
	if err := actor.Require(identity.OpInviteMember); err != nil {
		return nil, err
	}

	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 && req.PageSize <= 100 {
		filter.PageSize = req.PageSize
	}

	memberships, total, err := s.membershipRepo.FindAllForTenant(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]MembershipResponse, len(memberships))
	for i := range memberships {
		responses[i] = ToMembershipResponse(&memberships[i])
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// ChangeRole assigns a new role to a member of the actor's tenant
func (s *MembershipService) ChangeRole(ctx context.Context, actor identity.Actor, membershipID uuid.UUID, req ChangeRoleRequest) (*MembershipResponse, error) {
	if err := actor.Require(identity.OpManageMembers); err != nil {
		return nil, err
	}

	membership, err := s.membershipRepo.FindByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if membership.TenantID != actor.TenantID {
		return nil, shared.ErrTenantMismatch
	}

	role := identity.Role(req.Role)
	if membership.Role == identity.RoleAdmin && role != identity.RoleAdmin {
		if err := s.requireAnotherAdmin(ctx, actor.TenantID); err != nil {
			return nil, err
		}
	}

	if err := membership.ChangeRole(role); err != nil {
		return nil, err
	}
	if err := s.membershipRepo.Save(ctx, membership); err != nil {
		return nil, err
	}

	response := ToMembershipResponse(membership)
	return &response, nil
}

// Deactivate revokes a member's access to the actor's tenant
func (s *MembershipService) Deactivate(ctx context.Context, actor identity.Actor, membershipID uuid.UUID) (*MembershipResponse, error) {
	if err := actor.Require(identity.OpManageMembers); err != nil {
		return nil, err
	}

	membership, err := s.membershipRepo.FindByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if membership.TenantID != actor.TenantID {
		return nil, shared.ErrTenantMismatch
	}
	if membership.Role == identity.RoleAdmin {
		if err := s.requireAnotherAdmin(ctx, actor.TenantID); err != nil {
			return nil, err
		}
	}

	membership.Deactivate()
	if err := s.membershipRepo.Save(ctx, membership); err != nil {
		return nil, err
	}

	s.logger.Info("member deactivated",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("membership_id", membership.ID.String()))

	response := ToMembershipResponse(membership)
	return &response, nil
}

// requireAnotherAdmin fails unless the tenant would still have an
// admin after removing one.
func (s *MembershipService) requireAnotherAdmin(ctx context.Context, tenantID uuid.UUID) error {
	count, err := s.membershipRepo.CountActiveAdmins(ctx, tenantID)
	if err != nil {
		return err
	}
	if count <= 1 {
		return shared.NewDomainError("INVALID_STATE", "Tenant must keep at least one active admin")
	}
	return nil
}
