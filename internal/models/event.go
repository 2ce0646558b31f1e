package models

import (
	"time"

	"gorm.io/gorm"
)

// EventSeries groups the events created from one multi-date request.
type EventSeries struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *EventSeries) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

type Event struct {
	ID          string        `gorm:"type:varchar(36);primarykey" json:"id"`
	Title       string        `gorm:"type:varchar(255);not null" json:"title"`
	Description *string       `gorm:"type:text" json:"description"`
	StartTime   time.Time     `gorm:"not null;index" json:"start_time"`
	EndTime     time.Time     `gorm:"not null" json:"end_time"`
	Category    EventCategory `gorm:"type:varchar(20);not null" json:"category"`
	Visibility  Visibility    `gorm:"type:varchar(20);not null;default:'HOUSEHOLD'" json:"visibility"`
	HouseholdID string        `gorm:"type:varchar(36);not null;index" json:"household_id"`
	SeriesID    *string       `gorm:"type:varchar(36);index" json:"series_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Relations
	Participants []EventParticipant `gorm:"foreignKey:EventID" json:"participants,omitempty"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// ParticipantMemberIDs lists the member ids of the loaded participants.
func (e Event) ParticipantMemberIDs() []string {
	ids := make([]string, 0, len(e.Participants))
	for _, p := range e.Participants {
		ids = append(ids, p.MemberID)
	}
	return ids
}

type EventParticipant struct {
	EventID  string `gorm:"type:varchar(36);primarykey" json:"event_id"`
	MemberID string `gorm:"type:varchar(36);primarykey" json:"member_id"`

	// Relations
	Member Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}
