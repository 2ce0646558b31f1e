package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ensemble/internal/dto"
	apierrors "github.com/yukikurage/ensemble/internal/errors"
	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/services"
)

type MemberHandler struct {
	memberService *services.MemberService
	dispatcher    Dispatcher
}

func NewMemberHandler(memberService *services.MemberService, dispatcher Dispatcher) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
		dispatcher:    dispatcher,
	}
}

// ListMembers returns the household members
func (h *MemberHandler) ListMembers(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	members, err := h.memberService.ListMembers(actor)
	if err != nil {
		respondMemberError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": dto.ToMemberDTOs(members)})
}

// AddMember adds a child or pet profile
func (h *MemberHandler) AddMember(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	type AddMemberRequest struct {
		Nickname string  `json:"nickname" binding:"required"`
		Type     string  `json:"type"`
		Age      *int    `json:"age"`
		PetType  *string `json:"pet_type"`
		Color    string  `json:"color"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	memberType, err := models.ParseMemberType(req.Type)
	if err != nil {
		invalidField(c, "type", err)
		return
	}
	petType, err := parsePetType(req.PetType)
	if err != nil {
		invalidField(c, "pet_type", err)
		return
	}

	member, events, err := h.memberService.AddMember(actor, services.AddMemberInput{
		Nickname: req.Nickname,
		Type:     memberType,
		Age:      req.Age,
		PetType:  petType,
		Color:    req.Color,
	})
	if err != nil {
		respondMemberError(c, err)
		return
	}
	dispatch(h.dispatcher, events)

	success(c, http.StatusCreated, gin.H{"member": dto.ToMemberDTO(*member)})
}

// UpdateMember edits a member profile
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	type UpdateMemberRequest struct {
		Nickname *string `json:"nickname"`
		Age      *int    `json:"age"`
		PetType  *string `json:"pet_type"`
		Color    *string `json:"color"`
	}

	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	petType, err := parsePetType(req.PetType)
	if err != nil {
		invalidField(c, "pet_type", err)
		return
	}

	member, err := h.memberService.UpdateMember(actor, c.Param("memberId"), services.UpdateMemberInput{
		Nickname: req.Nickname,
		Age:      req.Age,
		PetType:  petType,
		Color:    req.Color,
	})
	if err != nil {
		respondMemberError(c, err)
		return
	}

	success(c, http.StatusOK, gin.H{"member": dto.ToMemberDTO(*member)})
}

// DeleteMember removes a member from the household
func (h *MemberHandler) DeleteMember(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.memberService.DeleteMember(actor, c.Param("memberId")); err != nil {
		respondMemberError(c, err)
		return
	}

	noContentSuccess(c)
}

func parsePetType(raw *string) (*models.PetType, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	pt, err := models.ParsePetType(*raw)
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

func respondMemberError(c *gin.Context, err error) {
	if respondValidationError(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrPermissionDenied),
		errors.Is(err, services.ErrCannotDeleteSelf),
		errors.Is(err, services.ErrAdminRequired):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
