package handler

import (
	identityapp "github.com/craftledger/backend/internal/application/identity"
	"github.com/craftledger/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MembershipHandler handles tenant membership endpoints
type MembershipHandler struct {
	BaseHandler
	membershipService *identityapp.MembershipService
}

// NewMembershipHandler creates a new MembershipHandler
func NewMembershipHandler(membershipService *identityapp.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: membershipService}
}

// RegisterRoutes registers membership routes on the given group
func (h *MembershipHandler) RegisterRoutes(rg *gin.RouterGroup) {
	members := rg.Group("/members")
	members.POST("", h.Invite)
	members.GET("", h.List)
	members.POST("/:id/accept", h.Accept)
	members.PUT("/:id/role", h.ChangeRole)
	members.POST("/:id/deactivate", h.Deactivate)
}

// Invite invites an existing user into the actor's tenant
func (h *MembershipHandler) Invite(c *gin.Context) {
	var req identityapp.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.membershipService.Invite(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns the tenant's memberships
func (h *MembershipHandler) List(c *gin.Context) {
	var req identityapp.ListMembersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.membershipService.List(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Accept joins the calling user to a pending invitation
func (h *MembershipHandler) Accept(c *gin.Context) {
	membershipID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid membership ID")
		return
	}

	actor := middleware.GetActor(c)
	resp, err := h.membershipService.Accept(c.Request.Context(), actor.UserID, membershipID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ChangeRole assigns a new role to a member
func (h *MembershipHandler) ChangeRole(c *gin.Context) {
	membershipID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid membership ID")
		return
	}

	var req identityapp.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.membershipService.ChangeRole(c.Request.Context(), middleware.GetActor(c), membershipID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Deactivate revokes a member's access to the tenant
func (h *MembershipHandler) Deactivate(c *gin.Context) {
	membershipID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid membership ID")
		return
	}

	resp, err := h.membershipService.Deactivate(c.Request.Context(), middleware.GetActor(c), membershipID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
