package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/notify"
	"github.com/yukikurage/ensemble/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidColor = errors.New("color must be a hex value like #7EB5E8")
	ErrInvalidAge   = errors.New("age must be between 0 and 150")
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// MemberService manages member profiles inside a household.
type MemberService struct {
	memberRepo repository.MemberRepository
	log        *logrus.Logger
}

// NewMemberService creates a new MemberService
func NewMemberService(memberRepo repository.MemberRepository, log *logrus.Logger) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		log:        log,
	}
}

// AddMemberInput describes a child or pet profile.
type AddMemberInput struct {
	Nickname string
	Type     models.MemberType
	Age      *int
	PetType  *models.PetType
	Color    string
}

// UpdateMemberInput represents a partial member update. Nil means unchanged.
type UpdateMemberInput struct {
	Nickname *string
	Age      *int
	PetType  *models.PetType
	Color    *string
}

func (in UpdateMemberInput) onlyColor() bool {
	return in.Nickname == nil && in.Age == nil && in.PetType == nil
}

// ListMembers lists the members of the actor's household.
func (s *MemberService) ListMembers(actor Actor) ([]models.Member, error) {
	members, err := s.memberRepo.ListByHousehold(actor.HouseholdID())
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// AddMember adds a profile without an account. Adults join through invite codes.
func (s *MemberService) AddMember(actor Actor, input AddMemberInput) (*models.Member, []notify.Event, error) {
	switch input.Type {
	case models.MemberTypeChild, models.MemberTypePet:
	case models.MemberTypeAdult:
		return nil, nil, invalid("type", ErrInvalidMemberType)
	default:
		return nil, nil, invalid("type", fmt.Errorf("unknown member type %q", input.Type))
	}

	nickname := strings.TrimSpace(input.Nickname)
	if nickname == "" {
		return nil, nil, invalid("nickname", ErrNameRequired)
	}
	if err := validateAge(input.Age); err != nil {
		return nil, nil, err
	}

	color := input.Color
	if color == "" {
		color = randomColor()
	} else if !colorPattern.MatchString(color) {
		return nil, nil, invalid("color", ErrInvalidColor)
	}

	member := &models.Member{
		HouseholdID: actor.HouseholdID(),
		Role:        models.RoleMember,
		Type:        input.Type,
		Nickname:    nickname,
		Age:         input.Age,
		Color:       color,
	}
	if input.Type == models.MemberTypePet {
		member.PetType = input.PetType
	}

	if err := s.memberRepo.Create(member); err != nil {
		return nil, nil, fmt.Errorf("failed to create member: %w", err)
	}

	household, err := s.memberRepo.ListByHousehold(actor.HouseholdID())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list members: %w", err)
	}

	events := []notify.Event{{
		Kind:        models.NotificationMemberAdded,
		HouseholdID: actor.HouseholdID(),
		Recipients:  notify.Recipients(household, actor.UserID),
		ResourceID:  member.ID,
		ActorName:   actor.Name,
		Subject:     member.Nickname,
		MemberType:  member.Type,
	}}

	return member, events, nil
}

// UpdateMember edits a member profile. Adults with an account may edit
// themselves; admins may only recolour other adults. Child and pet profiles
// are editable by anyone in the household.
func (s *MemberService) UpdateMember(actor Actor, memberID string, input UpdateMemberInput) (*models.Member, error) {
	member, err := s.findMember(actor, memberID)
	if err != nil {
		return nil, err
	}

	if member.HasAccount() && member.ID != actor.Member.ID {
		if !actor.IsAdmin() || !input.onlyColor() {
			return nil, ErrPermissionDenied
		}
	}

	if input.Nickname != nil {
		nickname := strings.TrimSpace(*input.Nickname)
		if nickname == "" && !member.HasAccount() {
			return nil, invalid("nickname", ErrNameRequired)
		}
		member.Nickname = nickname
	}
	if input.Age != nil {
		if err := validateAge(input.Age); err != nil {
			return nil, err
		}
		member.Age = input.Age
	}
	if input.PetType != nil && member.Type == models.MemberTypePet {
		member.PetType = input.PetType
	}
	if input.Color != nil {
		if !colorPattern.MatchString(*input.Color) {
			return nil, invalid("color", ErrInvalidColor)
		}
		member.Color = *input.Color
	}

	if err := s.memberRepo.Update(member); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	return member, nil
}

// DeleteMember removes a member. Nobody can remove themselves and only admins
// can remove adults with an account.
func (s *MemberService) DeleteMember(actor Actor, memberID string) error {
	member, err := s.findMember(actor, memberID)
	if err != nil {
		return err
	}

	if member.ID == actor.Member.ID {
		return ErrCannotDeleteSelf
	}
	if member.HasAccount() && !actor.IsAdmin() {
		return ErrAdminRequired
	}

	if err := s.memberRepo.Delete(member.ID); err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"household_id": member.HouseholdID,
		"member_id":    member.ID,
		"deleted_by":   actor.UserID,
	}).Info("member removed")
	return nil
}

func (s *MemberService) findMember(actor Actor, memberID string) (*models.Member, error) {
	member, err := s.memberRepo.FindByID(memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	if member.HouseholdID != actor.HouseholdID() {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

func validateAge(age *int) error {
	if age != nil && (*age < 0 || *age > 150) {
		return invalid("age", ErrInvalidAge)
	}
	return nil
}
