package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ensemble/internal/metrics"
	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/notify"
	"github.com/yukikurage/ensemble/internal/repository"
	"github.com/yukikurage/ensemble/pkg/logger"
)

// TestNotifications_DispatchedAndRead runs a real dispatcher behind the task handler
func (suite *HandlerTestSuite) TestNotifications_DispatchedAndRead() {
	dispatcher := notify.NewDispatcher(repository.NewNotificationRepository(suite.db), nil, metrics.New(), logger.Discard(), time.UTC)

	c, w := suite.asAlice(http.MethodPost, "/api/households/h/tasks", map[string]interface{}{
		"title":        "Vacuum",
		"assignee_ids": []string{suite.bobMember.ID},
	})
	NewTaskHandler(suite.tasks, dispatcher, nil).CreateTask(c)
	suite.requireSuccess(w, http.StatusCreated)

	handler := NewNotificationHandler(suite.notifications)

	c, w = suite.newContext(http.MethodGet, "/api/notifications", nil, suite.bob)
	handler.ListNotifications(c)
	suite.Require().Equal(http.StatusOK, w.Code)
	response := suite.decode(w)
	suite.EqualValues(1, response["unread"])
	list := response["notifications"].([]interface{})
	suite.Require().Len(list, 1)
	first := list[0].(map[string]interface{})
	suite.Equal("TASK_ASSIGNED", first["type"])
	suite.True(strings.Contains(first["message"].(string), "Vacuum"))
	suite.Equal(false, first["read"])

	c, w = suite.newContext(http.MethodPost, "/api/notifications/x/read", nil, suite.alice)
	c.Params = append(c.Params, gin.Param{Key: "notificationId", Value: first["id"].(string)})
	handler.MarkRead(c)
	suite.requireError(w, http.StatusNotFound, "NOT_FOUND")

	c, w = suite.newContext(http.MethodPost, "/api/notifications/x/read", nil, suite.bob)
	c.Params = append(c.Params, gin.Param{Key: "notificationId", Value: first["id"].(string)})
	handler.MarkRead(c)
	suite.requireSuccess(w, http.StatusOK)

	c, w = suite.newContext(http.MethodGet, "/api/notifications", nil, suite.bob)
	handler.ListNotifications(c)
	suite.EqualValues(0, suite.decode(w)["unread"])
}

// TestNotifications_MarkAllRead tests the bulk acknowledgement
func (suite *HandlerTestSuite) TestNotifications_MarkAllRead() {
	for i := 0; i < 3; i++ {
		suite.Require().NoError(suite.db.Create(&models.Notification{
			UserID:      suite.bob.ID,
			HouseholdID: suite.household.ID,
			Kind:        models.NotificationEventInvite,
			Title:       "Event invitation",
			Message:     "Alice added you to an event",
		}).Error)
	}

	handler := NewNotificationHandler(suite.notifications)

	c, w := suite.newContext(http.MethodPost, "/api/notifications/read-all", nil, suite.bob)
	handler.MarkAllRead(c)
	suite.requireSuccess(w, http.StatusOK)

	var unread int64
	suite.Require().NoError(suite.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", suite.bob.ID, false).
		Count(&unread).Error)
	suite.Zero(unread)
}

// TestNotifications_Unauthenticated tests the session check
func (suite *HandlerTestSuite) TestNotifications_Unauthenticated() {
	c, w := suite.newContext(http.MethodGet, "/api/notifications", nil, nil)
	NewNotificationHandler(suite.notifications).ListNotifications(c)

	suite.requireError(w, http.StatusUnauthorized, "UNAUTHORIZED")
}

// TestExportCalendar tests the iCalendar feed
func (suite *HandlerTestSuite) TestExportCalendar() {
	suite.createEvents(map[string]interface{}{
		"title": "Swimming", "category": "SPORT", "dates": []string{"2025-06-02"},
		"start_time": "18:00", "end_time": "19:00",
	})
	suite.createTask(map[string]interface{}{"title": "Bins", "recurrence": "WEEKLY", "due_date": "2025-06-03"})

	c, w := suite.asBob(http.MethodGet, "/api/households/h/calendar.ics", nil)
	NewCalendarHandler(suite.calendar, suite.households).ExportCalendar(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Header().Get("Content-Type"), "text/calendar")
	body := w.Body.String()
	suite.Contains(body, "BEGIN:VCALENDAR")
	suite.Contains(body, "SUMMARY:Swimming")
	suite.Contains(body, "SUMMARY:Bins")
	suite.Contains(body, "RRULE:FREQ=WEEKLY")
	suite.Contains(body, "X-WR-CALNAME:Martin")
}
