package services

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/recurrence"
	"github.com/yukikurage/ensemble/internal/repository"
	"github.com/yukikurage/ensemble/internal/series"
)

const calendarProductID = "-//Ensemble//Household Calendar//EN"

// CalendarService renders a household's events and dated tasks as iCalendar.
type CalendarService struct {
	eventRepo repository.EventRepository
	taskRepo  repository.TaskRepository
	loc       *time.Location
	now       Clock
}

// NewCalendarService creates a new CalendarService
func NewCalendarService(eventRepo repository.EventRepository, taskRepo repository.TaskRepository, loc *time.Location) *CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarService{
		eventRepo: eventRepo,
		taskRepo:  taskRepo,
		loc:       loc,
		now:       utcNow,
	}
}

// Export builds the feed the actor is allowed to see. Recurring tasks carry an
// RRULE so calendar clients repeat them from their current due date.
func (s *CalendarService) Export(actor Actor, householdName string) (string, error) {
	events, err := s.eventRepo.List(repository.EventFilter{
		HouseholdID:    actor.HouseholdID(),
		ViewerMemberID: actor.Member.ID,
		ViewerIsAdmin:  actor.IsAdmin(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to list events: %w", err)
	}

	todo := models.TaskStatusTodo
	tasks, _, err := s.taskRepo.List(repository.TaskFilter{
		HouseholdID:    actor.HouseholdID(),
		Status:         &todo,
		ViewerMemberID: actor.Member.ID,
		ViewerIsAdmin:  actor.IsAdmin(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to list tasks: %w", err)
	}

	stamp := s.now()
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(householdName)
	cal.SetXWRTimezone(s.loc.String())

	for _, ev := range events {
		vevent := cal.AddEvent(ev.ID + "@ensemble")
		vevent.SetDtStampTime(stamp)
		vevent.SetSummary(ev.Title)
		if ev.Description != nil && *ev.Description != "" {
			vevent.SetDescription(*ev.Description)
		}
		vevent.SetProperty(ical.ComponentPropertyCategories, string(ev.Category))

		if series.IsAllDay(series.TimeOfDayOf(ev.StartTime, s.loc), series.TimeOfDayOf(ev.EndTime, s.loc)) {
			vevent.SetAllDayStartAt(series.DayOf(ev.StartTime, s.loc))
			vevent.SetAllDayEndAt(series.DayOf(ev.EndTime, s.loc).AddDate(0, 0, 1))
			continue
		}
		vevent.SetStartAt(ev.StartTime.UTC())
		vevent.SetEndAt(ev.EndTime.UTC())
	}

	for _, task := range tasks {
		if task.DueDate == nil {
			continue
		}
		day := series.DayOf(*task.DueDate, s.loc)

		vevent := cal.AddEvent(task.ID + "@ensemble.tasks")
		vevent.SetDtStampTime(stamp)
		vevent.SetSummary(taskSummary(task))
		if task.Description != nil && *task.Description != "" {
			vevent.SetDescription(*task.Description)
		}
		vevent.SetAllDayStartAt(day)
		vevent.SetAllDayEndAt(day.AddDate(0, 0, 1))
		if rule := recurrence.RRule(task.Recurrence); rule != "" {
			vevent.AddRrule(rule)
		}
	}

	return cal.Serialize(), nil
}

func taskSummary(task models.Task) string {
	if task.Emoji != nil && *task.Emoji != "" {
		return *task.Emoji + " " + task.Title
	}
	return task.Title
}
