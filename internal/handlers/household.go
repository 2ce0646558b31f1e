package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ensemble/internal/dto"
	apierrors "github.com/yukikurage/ensemble/internal/errors"
	"github.com/yukikurage/ensemble/internal/middleware"
	"github.com/yukikurage/ensemble/internal/services"
)

type HouseholdHandler struct {
	householdService *services.HouseholdService
	dispatcher       Dispatcher
}

func NewHouseholdHandler(householdService *services.HouseholdService, dispatcher Dispatcher) *HouseholdHandler {
	return &HouseholdHandler{
		householdService: householdService,
		dispatcher:       dispatcher,
	}
}

// CreateHousehold creates a household with the caller as its admin
func (h *HouseholdHandler) CreateHousehold(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateHouseholdRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req CreateHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	household, member, err := h.householdService.CreateHousehold(userID, req.Name)
	if err != nil {
		respondHouseholdError(c, err)
		return
	}

	success(c, http.StatusCreated, gin.H{
		"household": dto.ToHouseholdDTO(*household),
		"member":    dto.ToMemberDTO(*member),
	})
}

// ListHouseholds returns every household the user belongs to
func (h *HouseholdHandler) ListHouseholds(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.householdService.ListHouseholds(userID)
	if err != nil {
		respondHouseholdError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"households": dto.ToMembershipDTOs(memberships),
	})
}

// GetHousehold returns the household with its members
func (h *HouseholdHandler) GetHousehold(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	household, err := h.householdService.GetHousehold(actor)
	if err != nil {
		respondHouseholdError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"household": dto.ToHouseholdDTO(*household),
		"member_id": actor.Member.ID,
		"role":      actor.Member.Role,
	})
}

// JoinHousehold files a join request using an invite code
func (h *HouseholdHandler) JoinHousehold(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type JoinRequest struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, events, err := h.householdService.Join(userID, middleware.GetUserName(c), req.InviteCode)
	if err != nil {
		respondHouseholdError(c, err)
		return
	}
	dispatch(h.dispatcher, events)

	success(c, http.StatusOK, gin.H{
		"household": dto.ToHouseholdDTO(*result.Household),
		"request":   dto.ToJoinRequestDTO(*result.Request),
	})
}

// ListJoinRequests returns the pending join requests (admin only)
func (h *HouseholdHandler) ListJoinRequests(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	requests, err := h.householdService.ListPendingRequests(actor)
	if err != nil {
		respondHouseholdError(c, err)
		return
	}

	out := make([]dto.JoinRequestDTO, len(requests))
	for i, r := range requests {
		out[i] = dto.ToJoinRequestDTO(r)
	}
	c.JSON(http.StatusOK, gin.H{"requests": out})
}

// ApproveJoinRequest turns a pending request into a member (admin only)
func (h *HouseholdHandler) ApproveJoinRequest(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	member, events, err := h.householdService.ApproveRequest(actor, c.Param("requestId"))
	if err != nil {
		respondHouseholdError(c, err)
		return
	}
	dispatch(h.dispatcher, events)

	success(c, http.StatusOK, gin.H{"member": dto.ToMemberDTO(*member)})
}

// RejectJoinRequest marks a pending request as rejected (admin only)
func (h *HouseholdHandler) RejectJoinRequest(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.householdService.RejectRequest(actor, c.Param("requestId")); err != nil {
		respondHouseholdError(c, err)
		return
	}

	noContentSuccess(c)
}

// RegenerateInviteCode replaces the household invite code (admin only)
func (h *HouseholdHandler) RegenerateInviteCode(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	household, err := h.householdService.RegenerateInviteCode(actor)
	if err != nil {
		respondHouseholdError(c, err)
		return
	}

	success(c, http.StatusOK, gin.H{"invite_code": household.InviteCode})
}

func respondHouseholdError(c *gin.Context, err error) {
	if respondValidationError(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrInvalidInviteCode),
		errors.Is(err, services.ErrHouseholdNotFound),
		errors.Is(err, services.ErrJoinRequestNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAlreadyMember):
		apierrors.AlreadyExists(c, err.Error())
	case errors.Is(err, services.ErrJoinRequestRejected):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrJoinRequestHandled):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrAdminRequired):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
