package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/ensemble/internal/errors"
	"github.com/yukikurage/ensemble/internal/services"
)

type CalendarHandler struct {
	calendarService  *services.CalendarService
	householdService *services.HouseholdService
}

func NewCalendarHandler(calendarService *services.CalendarService, householdService *services.HouseholdService) *CalendarHandler {
	return &CalendarHandler{
		calendarService:  calendarService,
		householdService: householdService,
	}
}

// ExportCalendar serves the household events and dated tasks as an .ics file
func (h *CalendarHandler) ExportCalendar(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	household, err := h.householdService.GetHousehold(actor)
	if err != nil {
		respondHouseholdError(c, err)
		return
	}

	body, err := h.calendarService.Export(actor, household.Name)
	if err != nil {
		apierrors.InternalError(c, "Failed to export calendar")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="ensemble.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
