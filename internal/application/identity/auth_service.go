package identity

import (
	"context"
	"errors"

	"github.com/craftledger/backend/internal/domain/identity"
	"github.com/craftledger/backend/internal/domain/shared"
	"github.com/craftledger/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService handles signup, login and token refresh. Credentials
// identify a user; the (tenant, membership) pair decides what the
// issued token can do.
type AuthService struct {
	userRepo       identity.UserRepository
	tenantRepo     identity.TenantRepository
	membershipRepo identity.MembershipRepository
	jwtService     *auth.JWTService
	logger         *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo identity.UserRepository,
	tenantRepo identity.TenantRepository,
	membershipRepo identity.MembershipRepository,
	jwtService *auth.JWTService,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:       userRepo,
		tenantRepo:     tenantRepo,
		membershipRepo: membershipRepo,
		jwtService:     jwtService,
		logger:         logger,
	}
}

// Signup provisions a new tenant with its founding admin. The tenant
// starts in trial status and the admin membership is joined
// immediately, no invitation round-trip.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if existing, err := s.tenantRepo.FindBySlug(ctx, req.TenantSlug); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	} else if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A tenant with this slug already exists")
	}
	if existing, err := s.userRepo.FindByEmail(ctx, req.Email); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	} else if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A user with this email already exists")
	}

	tenant, err := identity.NewTenant(req.TenantSlug, req.TenantName)
	if err != nil {
		return nil, err
	}
	user, err := identity.NewUser(req.Email, req.DisplayName, req.Password)
	if err != nil {
		return nil, err
	}
	membership, err := identity.NewJoinedMembership(tenant.ID, user.ID, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	if err := s.membershipRepo.Save(ctx, membership); err != nil {
		return nil, err
	}

	s.logger.Info("tenant signed up",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("tenant_slug", tenant.Slug),
		zap.String("user_id", user.ID.String()))

	return s.issueTokens(tenant, user.ID, membership.Role)
}

// Login authenticates a user for one tenant and issues a token pair
// bound to the user's role in that tenant.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid credentials")
		}
		return nil, err
	}
	if !user.Active || !user.CheckPassword(req.Password) {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid credentials")
	}

	tenant, err := s.tenantRepo.FindBySlug(ctx, req.TenantSlug)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid credentials")
		}
		return nil, err
	}

	membership, err := s.membershipRepo.FindByTenantAndUser(ctx, tenant.ID, user.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("UNAUTHORIZED", "No membership in this tenant")
		}
		return nil, err
	}
	if !membership.Active || !membership.IsJoined() {
		return nil, shared.NewDomainError("UNAUTHORIZED", "No active membership in this tenant")
	}

	return s.issueTokens(tenant, user.ID, membership.Role)
}

// Refresh exchanges a valid refresh token for a new pair. The role is
// re-resolved from the membership so role changes and revocations take
// effect here.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid refresh token")
	}

	tenantID, err := claims.GetTenantUUID()
	if err != nil {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid refresh token")
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid refresh token")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || !user.Active {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid refresh token")
	}
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid refresh token")
	}
	membership, err := s.membershipRepo.FindByTenantAndUser(ctx, tenant.ID, user.ID)
	if err != nil || !membership.Active || !membership.IsJoined() {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Membership no longer active")
	}

	return s.issueTokens(tenant, userID, membership.Role)
}

func (s *AuthService) issueTokens(tenant *identity.Tenant, userID uuid.UUID, role identity.Role) (*AuthResponse, error) {
	tokens, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID: tenant.ID,
		UserID:   userID,
		Role:     role.String(),
	})
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		Tokens:     tokens,
		UserID:     userID,
		TenantID:   tenant.ID,
		TenantSlug: tenant.Slug,
		Role:       role.String(),
	}, nil
}
