package dto

import (
	"time"

	"github.com/yukikurage/ensemble/internal/models"
)

// NotificationDTO represents a notification in API responses
type NotificationDTO struct {
	ID          string                  `json:"id"`
	HouseholdID string                  `json:"household_id"`
	Type        models.NotificationKind `json:"type"`
	Title       string                  `json:"title"`
	Message     string                  `json:"message"`
	ResourceID  *string                 `json:"resource_id,omitempty"`
	Read        bool                    `json:"read"`
	CreatedAt   time.Time               `json:"created_at"`
}

// ToNotificationDTOs converts a slice of notifications
func ToNotificationDTOs(list []models.Notification) []NotificationDTO {
	dtos := make([]NotificationDTO, len(list))
	for i, n := range list {
		dtos[i] = NotificationDTO{
			ID:          n.ID,
			HouseholdID: n.HouseholdID,
			Type:        n.Kind,
			Title:       n.Title,
			Message:     n.Message,
			ResourceID:  n.ResourceID,
			Read:        n.Read,
			CreatedAt:   n.CreatedAt,
		}
	}
	return dtos
}
