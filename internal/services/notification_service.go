package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/ensemble/internal/constants"
	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/repository"
	"gorm.io/gorm"
)

// NotificationService reads and acknowledges a user's notifications.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
	}
}

// Inbox is the latest page of notifications plus the unread total.
type Inbox struct {
	Notifications []models.Notification
	Unread        int64
}

// List returns the latest notifications of a user, newest first.
func (s *NotificationService) List(userID string) (*Inbox, error) {
	list, err := s.notificationRepo.ListForUser(userID, constants.NotificationPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.notificationRepo.CountUnread(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	return &Inbox{Notifications: list, Unread: unread}, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(userID, notificationID string) error {
	if err := s.notificationRepo.MarkRead(notificationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks every notification of the user as read.
func (s *NotificationService) MarkAllRead(userID string) error {
	if err := s.notificationRepo.MarkAllRead(userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
