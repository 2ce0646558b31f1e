package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ensemble/internal/models"
)

func (suite *HandlerTestSuite) createEvents(body map[string]interface{}) []interface{} {
	c, w := suite.asAlice(http.MethodPost, "/api/households/h/events", body)
	NewEventHandler(suite.events, suite.dispatcher, nil).CreateEvent(c)
	response := suite.requireSuccess(w, http.StatusCreated)
	return response["events"].([]interface{})
}

func (suite *HandlerTestSuite) TestCreateEvent_SeriesFromDateArray() {
	events := suite.createEvents(map[string]interface{}{
		"title":           "Swimming",
		"category":        "sport",
		"dates":           []string{"2025-06-02", "2025-06-09", "2025-06-16"},
		"start_time":      "18:00",
		"end_time":        "19:00",
		"participant_ids": []string{suite.bobMember.ID},
	})

	suite.Require().Len(events, 3)
	first := events[0].(map[string]interface{})
	suite.Equal("Swimming", first["title"])
	suite.Equal("SPORT", first["category"])
	suite.Equal("2025-06-02T18:00:00Z", first["start_time"])
	suite.NotNil(first["series_id"])
	for _, raw := range events {
		suite.Equal(first["series_id"], raw.(map[string]interface{})["series_id"])
	}

	suite.Equal([]models.NotificationKind{models.NotificationEventInvite}, suite.dispatcher.kinds())
	suite.Equal([]string{suite.bob.ID}, suite.dispatcher.events[0].Recipients)
}

func (suite *HandlerTestSuite) TestCreateEvent_BareDateString() {
	events := suite.createEvents(map[string]interface{}{
		"title":      "Birthday",
		"category":   "LEISURE",
		"dates":      "2025-07-01",
		"start_time": "00:00",
		"end_time":   "23:59",
	})

	suite.Require().Len(events, 1)
	event := events[0].(map[string]interface{})
	suite.Nil(event["series_id"])
	suite.Equal(true, event["all_day"])
}

func (suite *HandlerTestSuite) TestCreateEvent_ValidationFields() {
	cases := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"missing title", map[string]interface{}{"category": "OTHER", "dates": []string{"2025-06-02"}, "start_time": "10:00", "end_time": "11:00"}, "title"},
		{"bad category", map[string]interface{}{"title": "x", "category": "PARTY", "dates": []string{"2025-06-02"}, "start_time": "10:00", "end_time": "11:00"}, "category"},
		{"no dates", map[string]interface{}{"title": "x", "category": "OTHER", "dates": []string{}, "start_time": "10:00", "end_time": "11:00"}, "dates"},
		{"bad time", map[string]interface{}{"title": "x", "category": "OTHER", "dates": []string{"2025-06-02"}, "start_time": "25:00", "end_time": "11:00"}, "start_time"},
		{"end before start", map[string]interface{}{"title": "x", "category": "OTHER", "dates": []string{"2025-06-02"}, "start_time": "12:00", "end_time": "11:00"}, "end_time"},
		{"foreign participant", map[string]interface{}{"title": "x", "category": "OTHER", "dates": []string{"2025-06-02"}, "start_time": "10:00", "end_time": "11:00", "participant_ids": []string{"nope"}}, "member_ids"},
	}

	for _, tc := range cases {
		suite.Run(tc.name, func() {
			c, w := suite.asAlice(http.MethodPost, "/api/households/h/events", tc.body)
			NewEventHandler(suite.events, suite.dispatcher, nil).CreateEvent(c)

			response := suite.requireError(w, http.StatusBadRequest, "INVALID_INPUT")
			suite.Equal(tc.field, response["field"])
		})
	}

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Event{}).Count(&count).Error)
	suite.Zero(count)
}

func (suite *HandlerTestSuite) TestUpdateEvent_SingleAndSeries() {
	events := suite.createEvents(map[string]interface{}{
		"title":      "Swimming",
		"category":   "SPORT",
		"dates":      []string{"2025-06-02", "2025-06-09"},
		"start_time": "18:00",
		"end_time":   "19:00",
	})
	firstID := events[0].(map[string]interface{})["id"].(string)
	suite.dispatcher.events = nil

	c, w := suite.asAlice(http.MethodPut, "/api/households/h/events/"+firstID, map[string]interface{}{
		"date":       "2025-06-03",
		"start_time": "17:00",
	})
	c.Params = append(c.Params, gin.Param{Key: "eventId", Value: firstID})
	NewEventHandler(suite.events, suite.dispatcher, nil).UpdateEvent(c)

	response := suite.requireSuccess(w, http.StatusOK)
	updated := response["events"].([]interface{})
	suite.Require().Len(updated, 1)
	suite.Equal("2025-06-03T17:00:00Z", updated[0].(map[string]interface{})["start_time"])
	suite.Equal([]models.NotificationKind{models.NotificationEventUpdated}, suite.dispatcher.kinds())

	c, w = suite.asAlice(http.MethodPut, "/api/households/h/events/"+firstID, map[string]interface{}{
		"scope": "series",
		"title": "Pool",
	})
	c.Params = append(c.Params, gin.Param{Key: "eventId", Value: firstID})
	NewEventHandler(suite.events, suite.dispatcher, nil).UpdateEvent(c)

	response = suite.requireSuccess(w, http.StatusOK)
	updated = response["events"].([]interface{})
	suite.Require().Len(updated, 2)
	for _, raw := range updated {
		suite.Equal("Pool", raw.(map[string]interface{})["title"])
	}
}

func (suite *HandlerTestSuite) TestUpdateEvent_InvalidScope() {
	events := suite.createEvents(map[string]interface{}{
		"title": "Dentist", "category": "HEALTH", "dates": []string{"2025-06-02"},
		"start_time": "09:00", "end_time": "10:00",
	})
	id := events[0].(map[string]interface{})["id"].(string)

	c, w := suite.asAlice(http.MethodPut, "/api/households/h/events/"+id, map[string]interface{}{"scope": "everything"})
	c.Params = append(c.Params, gin.Param{Key: "eventId", Value: id})
	NewEventHandler(suite.events, suite.dispatcher, nil).UpdateEvent(c)

	response := suite.requireError(w, http.StatusBadRequest, "INVALID_INPUT")
	suite.Equal("scope", response["field"])
}

func (suite *HandlerTestSuite) TestDeleteEvent_WholeSeries() {
	events := suite.createEvents(map[string]interface{}{
		"title": "Swimming", "category": "SPORT", "dates": []string{"2025-06-02", "2025-06-09"},
		"start_time": "18:00", "end_time": "19:00",
	})
	id := events[0].(map[string]interface{})["id"].(string)

	c, w := suite.asAlice(http.MethodDelete, "/api/households/h/events/"+id+"?delete_series=true", nil)
	c.Params = append(c.Params, gin.Param{Key: "eventId", Value: id})
	NewEventHandler(suite.events, suite.dispatcher, nil).DeleteEvent(c)

	suite.requireSuccess(w, http.StatusOK)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Event{}).Count(&count).Error)
	suite.Zero(count)
	suite.Require().NoError(suite.db.Model(&models.EventSeries{}).Count(&count).Error)
	suite.Zero(count)
}

func (suite *HandlerTestSuite) TestGetEvent_HiddenFromNonParticipants() {
	c, w := suite.asAlice(http.MethodPost, "/api/households/h/events", map[string]interface{}{
		"title": "Surprise", "category": "LEISURE", "visibility": "PARTICIPANTS",
		"dates": []string{"2025-06-02"}, "start_time": "18:00", "end_time": "19:00",
	})
	NewEventHandler(suite.events, suite.dispatcher, nil).CreateEvent(c)
	response := suite.requireSuccess(w, http.StatusCreated)
	id := response["events"].([]interface{})[0].(map[string]interface{})["id"].(string)

	c, w = suite.asBob(http.MethodGet, "/api/households/h/events/"+id, nil)
	c.Params = append(c.Params, gin.Param{Key: "eventId", Value: id})
	NewEventHandler(suite.events, suite.dispatcher, nil).GetEvent(c)

	suite.requireError(w, http.StatusNotFound, "NOT_FOUND")
}

func (suite *HandlerTestSuite) TestListEvents_DateRange() {
	suite.createEvents(map[string]interface{}{
		"title": "Swimming", "category": "SPORT",
		"dates":      []string{"2025-06-02", "2025-06-09", "2025-06-16"},
		"start_time": "18:00", "end_time": "19:00",
	})

	c, w := suite.asAlice(http.MethodGet, "/api/households/h/events?from=2025-06-05&to=2025-06-09", nil)
	NewEventHandler(suite.events, suite.dispatcher, nil).ListEvents(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	events := suite.decode(w)["events"].([]interface{})
	suite.Require().Len(events, 1)
	suite.Equal("2025-06-09T18:00:00Z", events[0].(map[string]interface{})["start_time"])

	c, w = suite.asAlice(http.MethodGet, "/api/households/h/events?from=June", nil)
	NewEventHandler(suite.events, suite.dispatcher, nil).ListEvents(c)
	response := suite.requireError(w, http.StatusBadRequest, "INVALID_INPUT")
	suite.Equal("from", response["field"])
}

func (suite *HandlerTestSuite) TestListEvents_Unauthenticated() {
	c, w := suite.newContext(http.MethodGet, "/api/households/h/events", nil, nil)
	NewEventHandler(suite.events, suite.dispatcher, nil).ListEvents(c)

	suite.requireError(w, http.StatusUnauthorized, "UNAUTHORIZED")
}
