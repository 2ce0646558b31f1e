package series

import (
	"strings"
	"time"

	"github.com/yukikurage/ensemble/internal/models"
)

// Propagation selects whether an edit or delete touches one occurrence or the
// whole series.
type Propagation string

const (
	PropagateSingle Propagation = "single"
	PropagateSeries Propagation = "series"
)

// ParsePropagation validates the propagation flag; empty means single.
func ParsePropagation(s string) (Propagation, error) {
	switch p := Propagation(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PropagateSingle, nil
	case PropagateSingle, PropagateSeries:
		return p, nil
	}
	return "", invalid("scope", ErrInvalidPropagation)
}

// Patch carries the fields a caller wants to change. Nil means unchanged.
type Patch struct {
	Title       *string
	Description *string
	Category    *models.EventCategory
	Visibility  *models.Visibility
	Date        *string
	StartTime   *string
	EndTime     *string
}

// Change is the result of applying a patch to one stored event.
type Change struct {
	Before models.Event
	After  models.Event
}

// Rescheduled reports whether the start or end moved.
func (c Change) Rescheduled() bool {
	return !c.Before.StartTime.Equal(c.After.StartTime) || !c.Before.EndTime.Equal(c.After.EndTime)
}

type parsedTimes struct {
	start *TimeOfDay
	end   *TimeOfDay
}

func (p Patch) times() (parsedTimes, error) {
	var out parsedTimes
	if p.StartTime != nil {
		tod, err := ParseTimeOfDay(*p.StartTime)
		if err != nil {
			return out, invalid("start_time", err)
		}
		out.start = &tod
	}
	if p.EndTime != nil {
		tod, err := ParseTimeOfDay(*p.EndTime)
		if err != nil {
			return out, invalid("end_time", err)
		}
		out.end = &tod
	}
	return out, nil
}

func (p Patch) applyFields(ev *models.Event) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return invalid("title", ErrTitleRequired)
		}
		ev.Title = title
	}
	if p.Description != nil {
		desc := *p.Description
		ev.Description = &desc
	}
	if p.Category != nil {
		ev.Category = *p.Category
	}
	if p.Visibility != nil {
		ev.Visibility = *p.Visibility
	}
	return nil
}

// ApplySingle edits exactly one event. A new date moves both start and end to
// that day; each keeps its stored time of day unless the patch overrides it.
func ApplySingle(ev models.Event, p Patch, loc *time.Location, strict bool) (Change, error) {
	before := ev
	times, err := p.times()
	if err != nil {
		return Change{}, err
	}
	if err := p.applyFields(&ev); err != nil {
		return Change{}, err
	}

	day := DayOf(ev.StartTime, loc)
	if p.Date != nil {
		day, err = ResolveEditDate(*p.Date, ev.StartTime, loc, strict)
		if err != nil {
			return Change{}, err
		}
	}

	switch {
	case times.start != nil:
		ev.StartTime = Combine(day, *times.start, loc)
	case p.Date != nil:
		ev.StartTime = Combine(day, TimeOfDayOf(before.StartTime, loc), loc)
	}
	switch {
	case times.end != nil:
		ev.EndTime = Combine(day, *times.end, loc)
	case p.Date != nil:
		ev.EndTime = Combine(day, TimeOfDayOf(before.EndTime, loc), loc)
	}

	if !ev.EndTime.After(ev.StartTime) {
		return Change{}, invalid("end_time", ErrEndBeforeStart)
	}
	return Change{Before: before, After: ev}, nil
}

// ApplySeries edits every event of a series. Dates are never moved: a new
// start or end time of day is placed on each occurrence's own day.
func ApplySeries(events []models.Event, p Patch, loc *time.Location) ([]Change, error) {
	times, err := p.times()
	if err != nil {
		return nil, err
	}

	changes := make([]Change, 0, len(events))
	for _, ev := range events {
		before := ev
		if err := p.applyFields(&ev); err != nil {
			return nil, err
		}
		if times.start != nil {
			ev.StartTime = Combine(DayOf(before.StartTime, loc), *times.start, loc)
		}
		if times.end != nil {
			ev.EndTime = Combine(DayOf(before.EndTime, loc), *times.end, loc)
		}
		if !ev.EndTime.After(ev.StartTime) {
			return nil, invalid("end_time", ErrEndBeforeStart)
		}
		changes = append(changes, Change{Before: before, After: ev})
	}
	return changes, nil
}
