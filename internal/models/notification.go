package models

import (
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	ID          string           `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID      string           `gorm:"type:varchar(36);not null;index" json:"user_id"`
	HouseholdID string           `gorm:"type:varchar(36);not null" json:"household_id"`
	Kind        NotificationKind `gorm:"column:type;type:varchar(32);not null" json:"type"`
	Title       string           `gorm:"type:varchar(255);not null" json:"title"`
	Message     string           `gorm:"type:text;not null" json:"message"`
	ResourceID  *string          `gorm:"type:varchar(36)" json:"resource_id,omitempty"`
	Read        bool             `gorm:"column:is_read;not null;default:false" json:"read"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
