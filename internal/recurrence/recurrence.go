// Package recurrence implements the TODO/DONE toggle of household tasks and
// the due-date rollover of recurring ones.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"github.com/yukikurage/ensemble/internal/models"
)

var (
	ErrTaskArchived      = errors.New("archived tasks cannot be toggled")
	ErrNotRecurring      = errors.New("task does not recur")
	ErrUnknownRecurrence = errors.New("unknown recurrence")
	ErrUnknownTaskStatus = errors.New("unknown task status")
)

// NextDueDate advances the due date by one recurrence interval. Without a due
// date the interval is counted from now. MONTHLY uses calendar-month
// arithmetic, so Jan 31 rolls to Mar 3 (or Mar 2 in a leap year).
func NextDueDate(rec models.Recurrence, due *time.Time, now time.Time) (time.Time, error) {
	base := now
	if due != nil {
		base = *due
	}

	switch rec {
	case models.RecurrenceDaily:
		return base.AddDate(0, 0, 1), nil
	case models.RecurrenceWeekly:
		return base.AddDate(0, 0, 7), nil
	case models.RecurrenceMonthly:
		return base.AddDate(0, 1, 0), nil
	case models.RecurrenceNone:
		return time.Time{}, ErrNotRecurring
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownRecurrence, rec)
}

// Transition is the outcome of a toggle, ready to be written back to the task.
type Transition struct {
	Status      models.TaskStatus
	DueDate     *time.Time
	CompletedAt *time.Time
	CompletedBy *string

	// Completed is set when the toggle counted as a completion, including a
	// recurring task that rolled over.
	Completed bool
	// RolledOver is set when a recurring task was reset to TODO with a new due date.
	RolledOver bool
}

// FinalDone reports whether the task now rests in DONE.
func (t Transition) FinalDone() bool {
	return t.Status == models.TaskStatusDone
}

// Toggle computes the next state of a task. current is the status the caller
// believes the task has; the target is its complement. Completing a recurring
// task records the completion but keeps it TODO with the due date rolled forward.
func Toggle(task models.Task, current models.TaskStatus, actorMemberID string, now time.Time) (Transition, error) {
	var target models.TaskStatus
	switch current {
	case models.TaskStatusTodo:
		target = models.TaskStatusDone
	case models.TaskStatusDone:
		target = models.TaskStatusTodo
	case models.TaskStatusArchived:
		return Transition{}, ErrTaskArchived
	default:
		return Transition{}, fmt.Errorf("%w: %q", ErrUnknownTaskStatus, current)
	}
	if task.Status == models.TaskStatusArchived {
		return Transition{}, ErrTaskArchived
	}

	if target == models.TaskStatusTodo {
		return Transition{
			Status:  models.TaskStatusTodo,
			DueDate: task.DueDate,
		}, nil
	}

	completedAt := now
	actor := actorMemberID
	tr := Transition{
		Status:      models.TaskStatusDone,
		DueDate:     task.DueDate,
		CompletedAt: &completedAt,
		CompletedBy: &actor,
		Completed:   true,
	}

	switch task.Recurrence {
	case models.RecurrenceNone:
		return tr, nil
	case models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly:
		next, err := NextDueDate(task.Recurrence, task.DueDate, now)
		if err != nil {
			return Transition{}, err
		}
		tr.Status = models.TaskStatusTodo
		tr.DueDate = &next
		tr.RolledOver = true
		return tr, nil
	}
	return Transition{}, fmt.Errorf("%w: %q", ErrUnknownRecurrence, task.Recurrence)
}

// Apply writes the transition onto the task.
func (t Transition) Apply(task *models.Task) {
	task.Status = t.Status
	task.DueDate = t.DueDate
	task.CompletedAt = t.CompletedAt
	task.CompletedBy = t.CompletedBy
}

// RRule renders the recurrence as an iCalendar RRULE value, or "" for NONE.
func RRule(rec models.Recurrence) string {
	var freq rrule.Frequency
	switch rec {
	case models.RecurrenceDaily:
		freq = rrule.DAILY
	case models.RecurrenceWeekly:
		freq = rrule.WEEKLY
	case models.RecurrenceMonthly:
		freq = rrule.MONTHLY
	default:
		return ""
	}
	return (&rrule.ROption{Freq: freq}).RRuleString()
}
