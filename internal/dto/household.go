package dto

import (
	"time"

	"github.com/yukikurage/ensemble/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// HouseholdDTO represents a household in API responses
type HouseholdDTO struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	InviteCode string      `json:"invite_code,omitempty"`
	Members    []MemberDTO `json:"members,omitempty"`
}

// MemberDTO represents a household member in API responses
type MemberDTO struct {
	ID          string            `json:"id"`
	HouseholdID string            `json:"household_id"`
	UserID      *string           `json:"user_id"`
	Name        string            `json:"name"`
	Nickname    string            `json:"nickname,omitempty"`
	Role        models.MemberRole `json:"role"`
	Type        models.MemberType `json:"type"`
	Age         *int              `json:"age,omitempty"`
	PetType     *models.PetType   `json:"pet_type,omitempty"`
	Color       string            `json:"color"`
}

// MembershipDTO is a household seen from one of its members
type MembershipDTO struct {
	Household HouseholdDTO      `json:"household"`
	MemberID  string            `json:"member_id"`
	Role      models.MemberRole `json:"role"`
}

// JoinRequestDTO represents a join request in API responses
type JoinRequestDTO struct {
	ID          string                   `json:"id"`
	HouseholdID string                   `json:"household_id"`
	Status      models.JoinRequestStatus `json:"status"`
	User        *UserDTO                 `json:"user,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}
}

// ToHouseholdDTO converts a Household model to HouseholdDTO
func ToHouseholdDTO(household models.Household) HouseholdDTO {
	dto := HouseholdDTO{
		ID:         household.ID,
		Name:       household.Name,
		InviteCode: household.InviteCode,
	}
	if len(household.Members) > 0 {
		dto.Members = ToMemberDTOs(household.Members)
	}
	return dto
}

// ToMemberDTO converts a Member model to MemberDTO
func ToMemberDTO(member models.Member) MemberDTO {
	return MemberDTO{
		ID:          member.ID,
		HouseholdID: member.HouseholdID,
		UserID:      member.UserID,
		Name:        member.DisplayName(),
		Nickname:    member.Nickname,
		Role:        member.Role,
		Type:        member.Type,
		Age:         member.Age,
		PetType:     member.PetType,
		Color:       member.Color,
	}
}

// ToMemberDTOs converts a slice of members
func ToMemberDTOs(members []models.Member) []MemberDTO {
	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = ToMemberDTO(m)
	}
	return dtos
}

// ToMembershipDTOs converts the member rows of a user into their households
func ToMembershipDTOs(memberships []models.Member) []MembershipDTO {
	dtos := make([]MembershipDTO, 0, len(memberships))
	for _, m := range memberships {
		if m.Household == nil {
			continue
		}
		household := ToHouseholdDTO(*m.Household)
		if m.Role != models.RoleAdmin {
			household.InviteCode = ""
		}
		dtos = append(dtos, MembershipDTO{
			Household: household,
			MemberID:  m.ID,
			Role:      m.Role,
		})
	}
	return dtos
}

// ToJoinRequestDTO converts a JoinRequest model to JoinRequestDTO
func ToJoinRequestDTO(req models.JoinRequest) JoinRequestDTO {
	dto := JoinRequestDTO{
		ID:          req.ID,
		HouseholdID: req.HouseholdID,
		Status:      req.Status,
		CreatedAt:   req.CreatedAt,
	}
	if req.User.ID != "" {
		user := ToUserDTO(req.User)
		dto.User = &user
	}
	return dto
}
