package services

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/notify"
	"github.com/yukikurage/ensemble/internal/repository"
	"github.com/yukikurage/ensemble/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrInvalidInviteCode       = errors.New("invalid invite code")
	ErrAlreadyMember           = errors.New("you are already a member of this household")
	ErrJoinRequestRejected     = errors.New("your request to join this household was rejected")
	ErrJoinRequestNotFound     = errors.New("join request not found")
	ErrJoinRequestHandled      = errors.New("join request has already been handled")
	ErrFailedToCreateHousehold = errors.New("failed to create household")
)

// MemberPalette holds the colours handed out to new member profiles. The
// household creator always receives the first one.
var MemberPalette = []string{
	"#7EB5E8", "#7DD4A8", "#F5D06C", "#F09A8F",
	"#E89FCE", "#B5A4E8", "#78D4D0", "#F5B98F",
}

// ApprovedMemberColor is the colour of adults admitted through a join request.
const ApprovedMemberColor = "#10b981"

// HouseholdService handles households, invite codes and join requests.
type HouseholdService struct {
	householdRepo repository.HouseholdRepository
	memberRepo    repository.MemberRepository
	log           *logrus.Logger
}

// NewHouseholdService creates a new HouseholdService
func NewHouseholdService(householdRepo repository.HouseholdRepository, memberRepo repository.MemberRepository, log *logrus.Logger) *HouseholdService {
	return &HouseholdService{
		householdRepo: householdRepo,
		memberRepo:    memberRepo,
		log:           log,
	}
}

func randomColor() string {
	return MemberPalette[rand.IntN(len(MemberPalette))]
}

// CreateHousehold creates a household and makes the user its first admin.
func (s *HouseholdService) CreateHousehold(userID, name string) (*models.Household, *models.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, invalid("name", ErrNameRequired)
	}

	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, nil, ErrFailedToCreateHousehold
	}

	household := &models.Household{
		Name:       name,
		InviteCode: code,
	}
	admin := &models.Member{
		UserID: &userID,
		Role:   models.RoleAdmin,
		Type:   models.MemberTypeAdult,
		Color:  MemberPalette[0],
	}

	if err := s.householdRepo.CreateWithAdmin(household, admin); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFailedToCreateHousehold, err)
	}

	s.log.WithFields(logrus.Fields{
		"household_id": household.ID,
		"user_id":      userID,
	}).Info("household created")

	return household, admin, nil
}

// ListHouseholds lists the memberships of a user with their households.
func (s *HouseholdService) ListHouseholds(userID string) ([]models.Member, error) {
	memberships, err := s.householdRepo.ListMembershipsByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list households: %w", err)
	}
	return memberships, nil
}

// GetHousehold returns the actor's household with its members.
func (s *HouseholdService) GetHousehold(actor Actor) (*models.Household, error) {
	household, err := s.findHousehold(actor.HouseholdID())
	if err != nil {
		return nil, err
	}

	members, err := s.memberRepo.ListByHousehold(household.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	household.Members = members

	// Only admins see the invite code.
	if !actor.IsAdmin() {
		household.InviteCode = ""
	}
	return household, nil
}

// ResolveMember finds the member row of a user inside a household.
func (s *HouseholdService) ResolveMember(householdID, userID string) (*models.Member, error) {
	member, err := s.memberRepo.FindByUser(householdID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotHouseholdMember
		}
		return nil, fmt.Errorf("failed to verify household membership: %w", err)
	}
	return member, nil
}

// JoinResult describes the state of a user's join request after Join.
type JoinResult struct {
	Household *models.Household
	Request   *models.JoinRequest
}

// Join files a join request for the household behind the invite code and
// tells its admins. Asking again while a request is pending is a no-op.
func (s *HouseholdService) Join(userID, userName, inviteCode string) (*JoinResult, []notify.Event, error) {
	household, err := s.householdRepo.FindByInviteCode(strings.TrimSpace(inviteCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, invalid("invite_code", ErrInvalidInviteCode)
		}
		return nil, nil, fmt.Errorf("failed to find household: %w", err)
	}

	if _, err := s.memberRepo.FindByUser(household.ID, userID); err == nil {
		return nil, nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to check membership: %w", err)
	}

	req, err := s.householdRepo.FindJoinRequest(userID, household.ID)
	switch {
	case err == nil:
		switch req.Status {
		case models.JoinRequestPending:
			return &JoinResult{Household: household, Request: req}, nil, nil
		case models.JoinRequestRejected:
			return nil, nil, ErrJoinRequestRejected
		case models.JoinRequestApproved:
			// Approved earlier but removed since: the unique index forces reuse of the row.
			if err := s.householdRepo.UpdateJoinRequestStatus(req.ID, models.JoinRequestPending); err != nil {
				return nil, nil, fmt.Errorf("failed to reopen join request: %w", err)
			}
			req.Status = models.JoinRequestPending
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		req = &models.JoinRequest{
			UserID:      userID,
			HouseholdID: household.ID,
			Status:      models.JoinRequestPending,
		}
		if err := s.householdRepo.CreateJoinRequest(req); err != nil {
			return nil, nil, fmt.Errorf("failed to create join request: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("failed to find join request: %w", err)
	}

	admins, err := s.memberRepo.ListAdmins(household.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list admins: %w", err)
	}

	events := []notify.Event{{
		Kind:        models.NotificationJoinRequest,
		HouseholdID: household.ID,
		Recipients:  notify.Recipients(admins, userID),
		ResourceID:  req.ID,
		ActorName:   userName,
		Subject:     household.Name,
	}}

	return &JoinResult{Household: household, Request: req}, events, nil
}

// ListPendingRequests lists the join requests awaiting a decision.
func (s *HouseholdService) ListPendingRequests(actor Actor) ([]models.JoinRequest, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}

	requests, err := s.householdRepo.ListPendingJoinRequests(actor.HouseholdID())
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	return requests, nil
}

// ApproveRequest admits the requesting user as an adult member.
func (s *HouseholdService) ApproveRequest(actor Actor, requestID string) (*models.Member, []notify.Event, error) {
	req, err := s.pendingRequest(actor, requestID)
	if err != nil {
		return nil, nil, err
	}

	userID := req.UserID
	member := &models.Member{
		HouseholdID: req.HouseholdID,
		UserID:      &userID,
		Role:        models.RoleMember,
		Type:        models.MemberTypeAdult,
		Color:       ApprovedMemberColor,
	}

	if err := s.householdRepo.ApproveJoinRequest(req, member); err != nil {
		if errors.Is(err, repository.ErrJoinRequestNotPending) {
			return nil, nil, ErrJoinRequestHandled
		}
		return nil, nil, fmt.Errorf("failed to approve join request: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"household_id": req.HouseholdID,
		"request_id":   req.ID,
		"approved_by":  actor.UserID,
	}).Info("join request approved")

	events := []notify.Event{{
		Kind:        models.NotificationJoinAccepted,
		HouseholdID: req.HouseholdID,
		Recipients:  []string{req.UserID},
		ResourceID:  req.HouseholdID,
		ActorName:   actor.Name,
		Subject:     req.Household.Name,
	}}

	return member, events, nil
}

// RejectRequest declines a pending join request.
func (s *HouseholdService) RejectRequest(actor Actor, requestID string) error {
	req, err := s.pendingRequest(actor, requestID)
	if err != nil {
		return err
	}

	if err := s.householdRepo.UpdateJoinRequestStatus(req.ID, models.JoinRequestRejected); err != nil {
		return fmt.Errorf("failed to reject join request: %w", err)
	}
	return nil
}

// RegenerateInviteCode replaces the household's invite code.
func (s *HouseholdService) RegenerateInviteCode(actor Actor) (*models.Household, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}

	household, err := s.findHousehold(actor.HouseholdID())
	if err != nil {
		return nil, err
	}

	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite code: %w", err)
	}
	household.InviteCode = code

	if err := s.householdRepo.Update(household); err != nil {
		return nil, fmt.Errorf("failed to update invite code: %w", err)
	}
	return household, nil
}

func (s *HouseholdService) pendingRequest(actor Actor, requestID string) (*models.JoinRequest, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}

	req, err := s.householdRepo.FindJoinRequestByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJoinRequestNotFound
		}
		return nil, fmt.Errorf("failed to find join request: %w", err)
	}
	if req.HouseholdID != actor.HouseholdID() {
		return nil, ErrJoinRequestNotFound
	}
	if req.Status != models.JoinRequestPending {
		return nil, ErrJoinRequestHandled
	}
	return req, nil
}

func (s *HouseholdService) findHousehold(id string) (*models.Household, error) {
	household, err := s.householdRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHouseholdNotFound
		}
		return nil, fmt.Errorf("failed to find household: %w", err)
	}
	return household, nil
}
