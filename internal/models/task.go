package models

import (
	"time"

	"gorm.io/gorm"
)

type Task struct {
	ID          string         `gorm:"type:varchar(36);primarykey" json:"id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description *string        `gorm:"type:text" json:"description"`
	Emoji       *string        `gorm:"type:varchar(16)" json:"emoji"`
	Recurrence  Recurrence     `gorm:"type:varchar(20);not null;default:'NONE'" json:"recurrence"`
	Status      TaskStatus     `gorm:"type:varchar(20);not null;default:'TODO';index" json:"status"`
	DueDate     *time.Time     `gorm:"index" json:"due_date"`
	Visibility  Visibility     `gorm:"type:varchar(20);not null;default:'HOUSEHOLD'" json:"visibility"`
	CompletedAt *time.Time     `json:"completed_at"`
	CompletedBy *string        `gorm:"type:varchar(36)" json:"completed_by"`
	HouseholdID string         `gorm:"type:varchar(36);not null;index" json:"household_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Assignees []TaskAssignee `gorm:"foreignKey:TaskID" json:"assignees,omitempty"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// AssigneeMemberIDs lists the member ids of the loaded assignees.
func (t Task) AssigneeMemberIDs() []string {
	ids := make([]string, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		ids = append(ids, a.MemberID)
	}
	return ids
}

type TaskAssignee struct {
	TaskID   string `gorm:"type:varchar(36);primarykey" json:"task_id"`
	MemberID string `gorm:"type:varchar(36);primarykey" json:"member_id"`

	// Relations
	Member Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}
