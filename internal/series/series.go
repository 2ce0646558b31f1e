// Package series expands multi-date event requests into concrete occurrences
// and applies single-occurrence or whole-series edits to stored events.
package series

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/ensemble/internal/constants"
)

// DateLayout is the calendar-date wire format.
const DateLayout = "2006-01-02"

var (
	ErrNoDates        = errors.New("at least one date is required")
	ErrTooManyDates   = fmt.Errorf("at most %d dates can be scheduled at once", constants.MaxEventDates)
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidTime    = errors.New("invalid time of day, expected HH:mm")
	ErrEndBeforeStart = errors.New("end time must be after start time")
	ErrTitleRequired  = errors.New("title is required")

	ErrInvalidPropagation = errors.New(`scope must be "single" or "series"`)
)

// ValidationError names the request field that was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

var timeOfDayPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):([0-5][0-9])$`)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts H:mm or HH:mm.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := timeOfDayPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return TimeOfDay{}, ErrInvalidTime
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// TimeOfDayOf reads the wall-clock part of t in loc.
func TimeOfDayOf(t time.Time, loc *time.Location) TimeOfDay {
	local := t.In(loc)
	return TimeOfDay{Hour: local.Hour(), Minute: local.Minute()}
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// IsAllDay reports the 00:00-23:59 display convention.
func IsAllDay(start, end TimeOfDay) bool {
	return start == TimeOfDay{} && end == TimeOfDay{Hour: 23, Minute: 59}
}

// ParseDate accepts a YYYY-MM-DD date or an RFC 3339 timestamp and returns
// midnight of that calendar day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return DayOf(ts, loc), nil
	}
	return time.Time{}, ErrInvalidDate
}

// DayOf truncates t to midnight of its calendar day in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// Combine places a time of day on a calendar day.
func Combine(day time.Time, tod TimeOfDay, loc *time.Location) time.Time {
	local := day.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), tod.Hour, tod.Minute, 0, 0, loc)
}

// Occurrence is one concrete start/end pair produced by Expand.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// Plan is the expansion of a creation request.
type Plan struct {
	// NeedsSeries is set when more than one occurrence was produced.
	NeedsSeries bool
	Occurrences []Occurrence
}

// Expand turns the requested dates and shared times of day into occurrences.
// Duplicate dates are dropped, keeping the first position.
func Expand(dates []string, startTime, endTime string, loc *time.Location) (Plan, error) {
	if len(dates) == 0 {
		return Plan{}, invalid("dates", ErrNoDates)
	}
	if len(dates) > constants.MaxEventDates {
		return Plan{}, invalid("dates", ErrTooManyDates)
	}

	start, err := ParseTimeOfDay(startTime)
	if err != nil {
		return Plan{}, invalid("start_time", err)
	}
	end, err := ParseTimeOfDay(endTime)
	if err != nil {
		return Plan{}, invalid("end_time", err)
	}

	seen := make(map[string]struct{}, len(dates))
	occurrences := make([]Occurrence, 0, len(dates))
	for _, raw := range dates {
		day, err := ParseDate(raw, loc)
		if err != nil {
			return Plan{}, invalid("dates", fmt.Errorf("%w: %q", err, raw))
		}
		key := day.Format(DateLayout)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		occ := Occurrence{Start: Combine(day, start, loc), End: Combine(day, end, loc)}
		if !occ.End.After(occ.Start) {
			return Plan{}, invalid("end_time", ErrEndBeforeStart)
		}
		occurrences = append(occurrences, occ)
	}

	return Plan{
		NeedsSeries: len(occurrences) > 1,
		Occurrences: occurrences,
	}, nil
}

// DecodeDates reads the dates field, which is either a JSON array of strings or
// a single bare date.
func DecodeDates(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, invalid("dates", ErrNoDates)
	}
	var dates []string
	if err := json.Unmarshal([]byte(raw), &dates); err == nil {
		return dates, nil
	}
	if strings.HasPrefix(raw, "[") {
		return nil, invalid("dates", ErrInvalidDate)
	}
	return []string{raw}, nil
}

// ResolveEditDate interprets the date sent with a single-occurrence edit. The
// value is either a JSON array of date strings, of which the first is used, or
// a bare date. When nothing usable is found the current day is kept, unless
// strict is set, in which case a validation error is returned.
func ResolveEditDate(raw string, current time.Time, loc *time.Location, strict bool) (time.Time, error) {
	fallback := DayOf(current, loc)

	var candidate string
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		if len(list) > 0 {
			candidate = list[0]
		}
	} else {
		candidate = raw
	}

	if candidate != "" {
		if day, err := ParseDate(candidate, loc); err == nil {
			return day, nil
		}
	}
	if strict {
		return time.Time{}, invalid("date", fmt.Errorf("%w: %q", ErrInvalidDate, raw))
	}
	return fallback, nil
}
