package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ensemble/internal/dto"
	apierrors "github.com/yukikurage/ensemble/internal/errors"
	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/series"
	"github.com/yukikurage/ensemble/internal/services"
)

type EventHandler struct {
	eventService *services.EventService
	dispatcher   Dispatcher
	loc          *time.Location
}

func NewEventHandler(eventService *services.EventService, dispatcher Dispatcher, loc *time.Location) *EventHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &EventHandler{
		eventService: eventService,
		dispatcher:   dispatcher,
		loc:          loc,
	}
}

// ListEvents returns the visible events of the household.
// Optional query: from, to (inclusive days) and repeated member_id.
func (h *EventHandler) ListEvents(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var input services.ListEventsInput
	if raw := c.Query("from"); raw != "" {
		from, err := series.ParseDate(raw, h.loc)
		if err != nil {
			invalidField(c, "from", err)
			return
		}
		input.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := series.ParseDate(raw, h.loc)
		if err != nil {
			invalidField(c, "to", err)
			return
		}
		to = to.AddDate(0, 0, 1)
		input.To = &to
	}
	input.MemberIDs = c.QueryArray("member_id")

	events, err := h.eventService.ListEvents(actor, input)
	if err != nil {
		respondEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": dto.ToEventDTOs(events, h.loc)})
}

// GetEvent returns a single event
func (h *EventHandler) GetEvent(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	event, err := h.eventService.GetEvent(actor, c.Param("eventId"))
	if err != nil {
		respondEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": dto.ToEventDTO(*event, h.loc)})
}

// CreateEvent creates one event per requested date. Several dates share a series.
func (h *EventHandler) CreateEvent(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	type CreateEventRequest struct {
		Title          string          `json:"title"`
		Description    *string         `json:"description"`
		Category       string          `json:"category"`
		Visibility     string          `json:"visibility"`
		Dates          json.RawMessage `json:"dates"`
		StartTime      string          `json:"start_time"`
		EndTime        string          `json:"end_time"`
		ParticipantIDs []string        `json:"participant_ids"`
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	category, err := models.ParseEventCategory(req.Category)
	if err != nil {
		invalidField(c, "category", err)
		return
	}
	visibility, err := models.ParseVisibility(req.Visibility)
	if err != nil {
		invalidField(c, "visibility", err)
		return
	}
	dates, err := series.DecodeDates(rawString(req.Dates))
	if err != nil {
		respondEventError(c, err)
		return
	}

	events, domainEvents, err := h.eventService.CreateEvent(actor, services.CreateEventInput{
		Title:          req.Title,
		Description:    req.Description,
		Category:       category,
		Visibility:     visibility,
		Dates:          dates,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		respondEventError(c, err)
		return
	}
	dispatch(h.dispatcher, domainEvents)

	success(c, http.StatusCreated, gin.H{"events": dto.ToEventDTOs(events, h.loc)})
}

// UpdateEvent patches one occurrence, or the whole series with scope=series
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	type UpdateEventRequest struct {
		Scope          string          `json:"scope"`
		Title          *string         `json:"title"`
		Description    *string         `json:"description"`
		Category       *string         `json:"category"`
		Visibility     *string         `json:"visibility"`
		Date           json.RawMessage `json:"date"`
		StartTime      *string         `json:"start_time"`
		EndTime        *string         `json:"end_time"`
		ParticipantIDs *[]string       `json:"participant_ids"`
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	scope, err := series.ParsePropagation(req.Scope)
	if err != nil {
		respondEventError(c, err)
		return
	}

	patch := series.Patch{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if req.Category != nil {
		category, err := models.ParseEventCategory(*req.Category)
		if err != nil {
			invalidField(c, "category", err)
			return
		}
		patch.Category = &category
	}
	if req.Visibility != nil {
		visibility, err := models.ParseVisibility(*req.Visibility)
		if err != nil {
			invalidField(c, "visibility", err)
			return
		}
		patch.Visibility = &visibility
	}
	if len(req.Date) > 0 && string(req.Date) != "null" {
		date := rawString(req.Date)
		patch.Date = &date
	}

	events, domainEvents, err := h.eventService.UpdateEvent(actor, c.Param("eventId"), services.UpdateEventInput{
		Scope:          scope,
		Patch:          patch,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		respondEventError(c, err)
		return
	}
	dispatch(h.dispatcher, domainEvents)

	success(c, http.StatusOK, gin.H{"events": dto.ToEventDTOs(events, h.loc)})
}

// DeleteEvent removes one occurrence, or the whole series with scope=series
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	scope, err := series.ParsePropagation(c.Query("scope"))
	if err != nil {
		respondEventError(c, err)
		return
	}
	wholeSeries := scope == series.PropagateSeries
	if raw := c.Query("delete_series"); raw != "" {
		flag, err := strconv.ParseBool(raw)
		if err != nil {
			invalidField(c, "delete_series", err)
			return
		}
		wholeSeries = wholeSeries || flag
	}

	domainEvents, err := h.eventService.DeleteEvent(actor, c.Param("eventId"), wholeSeries)
	if err != nil {
		respondEventError(c, err)
		return
	}
	dispatch(h.dispatcher, domainEvents)

	noContentSuccess(c)
}

func respondEventError(c *gin.Context, err error) {
	if respondValidationError(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrEventNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
