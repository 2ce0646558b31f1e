package models

import (
	"time"

	"gorm.io/gorm"
)

type Household struct {
	ID         string         `gorm:"type:varchar(36);primarykey" json:"id"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	InviteCode string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"invite_code"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members []Member `gorm:"foreignKey:HouseholdID" json:"members,omitempty"`
}

func (h *Household) BeforeCreate(tx *gorm.DB) error {
	ensureID(&h.ID)
	return nil
}

// JoinRequest is a pending ask to join a household, decided by an admin.
type JoinRequest struct {
	ID          string            `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID      string            `gorm:"type:varchar(36);not null;uniqueIndex:idx_join_user_household" json:"user_id"`
	HouseholdID string            `gorm:"type:varchar(36);not null;uniqueIndex:idx_join_user_household" json:"household_id"`
	Status      JoinRequestStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	// Relations
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Household Household `gorm:"foreignKey:HouseholdID" json:"-"`
}

func (r *JoinRequest) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
