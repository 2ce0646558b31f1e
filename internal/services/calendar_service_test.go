package services

import (
	"strings"
	"time"

	"github.com/yukikurage/ensemble/internal/models"
)

func (s *ServiceTestSuite) TestCalendarExport() {
	s.createSwimming("2025-05-05", "2025-05-12")
	_, _, err := s.eventService(false).CreateEvent(s.alice, CreateEventInput{
		Title:     "School trip",
		Category:  models.CategorySchool,
		Dates:     []string{"2025-05-20"},
		StartTime: "00:00",
		EndTime:   "23:59",
	})
	s.Require().NoError(err)

	due := time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC)
	s.createChore("Laundry", models.RecurrenceWeekly, &due)
	s.createChore("No date", models.RecurrenceNone, nil)

	svc := NewCalendarService(s.events, s.tasks, time.UTC)
	svc.now = s.clock

	feed, err := svc.Export(s.bob, "Martin")
	s.Require().NoError(err)

	s.Contains(feed, "BEGIN:VCALENDAR")
	s.Equal(3+1, strings.Count(feed, "BEGIN:VEVENT"))
	s.Contains(feed, "SUMMARY:Swimming")
	s.Contains(feed, "DTSTART:20250505T170000Z")
	s.Contains(feed, "DTSTART;VALUE=DATE:20250520")
	s.Contains(feed, "SUMMARY:Laundry")
	s.Contains(feed, "RRULE:FREQ=WEEKLY")
	s.NotContains(feed, "No date")
	s.Contains(feed, "X-WR-CALNAME:Martin")
}

func (s *ServiceTestSuite) TestNotificationInbox() {
	svc := NewNotificationService(s.notifications)
	for i := 0; i < 25; i++ {
		s.Require().NoError(s.notifications.Create(&models.Notification{
			UserID:      s.bob.UserID,
			HouseholdID: s.household.ID,
			Kind:        models.NotificationTaskAssigned,
			Title:       "New task assigned",
			Message:     "Alice assigned you a task",
		}))
	}

	inbox, err := svc.List(s.bob.UserID)
	s.Require().NoError(err)
	s.Len(inbox.Notifications, 20)
	s.Equal(int64(25), inbox.Unread)

	s.Require().NoError(svc.MarkRead(s.bob.UserID, inbox.Notifications[0].ID))
	s.ErrorIs(svc.MarkRead(s.alice.UserID, inbox.Notifications[1].ID), ErrNotificationNotFound)

	s.Require().NoError(svc.MarkAllRead(s.bob.UserID))
	inbox, err = svc.List(s.bob.UserID)
	s.Require().NoError(err)
	s.Zero(inbox.Unread)
}
