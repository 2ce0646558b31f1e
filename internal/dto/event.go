package dto

import (
	"time"

	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/series"
)

// EventDTO represents an event occurrence in API responses
type EventDTO struct {
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	Description    *string              `json:"description"`
	StartTime      time.Time            `json:"start_time"`
	EndTime        time.Time            `json:"end_time"`
	AllDay         bool                 `json:"all_day"`
	Category       models.EventCategory `json:"category"`
	Visibility     models.Visibility    `json:"visibility"`
	HouseholdID    string               `json:"household_id"`
	SeriesID       *string              `json:"series_id"`
	ParticipantIDs []string             `json:"participant_ids"`
	Participants   []MemberDTO          `json:"participants,omitempty"`
}

// ToEventDTO converts an Event model to EventDTO. loc decides the all-day flag.
func ToEventDTO(event models.Event, loc *time.Location) EventDTO {
	dto := EventDTO{
		ID:             event.ID,
		Title:          event.Title,
		Description:    event.Description,
		StartTime:      event.StartTime,
		EndTime:        event.EndTime,
		AllDay:         series.IsAllDay(series.TimeOfDayOf(event.StartTime, loc), series.TimeOfDayOf(event.EndTime, loc)),
		Category:       event.Category,
		Visibility:     event.Visibility,
		HouseholdID:    event.HouseholdID,
		SeriesID:       event.SeriesID,
		ParticipantIDs: event.ParticipantMemberIDs(),
	}
	for _, p := range event.Participants {
		if p.Member.ID != "" {
			dto.Participants = append(dto.Participants, ToMemberDTO(p.Member))
		}
	}
	return dto
}

// ToEventDTOs converts a slice of events
func ToEventDTOs(events []models.Event, loc *time.Location) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i, ev := range events {
		dtos[i] = ToEventDTO(ev, loc)
	}
	return dtos
}
