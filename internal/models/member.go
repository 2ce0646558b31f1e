package models

import (
	"time"

	"gorm.io/gorm"
)

// Member is a participant profile inside a household. Adults carry a UserID;
// child and pet profiles do not.
type Member struct {
	ID          string     `gorm:"type:varchar(36);primarykey" json:"id"`
	HouseholdID string     `gorm:"type:varchar(36);not null;index" json:"household_id"`
	UserID      *string    `gorm:"type:varchar(36);index" json:"user_id"`
	Role        MemberRole `gorm:"type:varchar(20);not null;default:'MEMBER'" json:"role"`
	Type        MemberType `gorm:"type:varchar(20);not null;default:'ADULT'" json:"type"`
	Nickname    string     `gorm:"type:varchar(100)" json:"nickname"`
	Age         *int       `json:"age,omitempty"`
	PetType     *PetType   `gorm:"type:varchar(20)" json:"pet_type,omitempty"`
	Color       string     `gorm:"type:varchar(7)" json:"color"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Household *Household `gorm:"foreignKey:HouseholdID" json:"household,omitempty"`
}

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// HasAccount reports whether the member is backed by a user account.
func (m Member) HasAccount() bool {
	return m.UserID != nil && *m.UserID != ""
}

// DisplayName prefers the household nickname over the account name.
func (m Member) DisplayName() string {
	if m.Nickname != "" {
		return m.Nickname
	}
	if m.User != nil {
		return m.User.Name
	}
	return ""
}
