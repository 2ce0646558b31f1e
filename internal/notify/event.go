// Package notify turns domain events produced by the services into stored
// notifications and optional NATS messages.
package notify

import (
	"fmt"
	"time"

	"github.com/yukikurage/ensemble/internal/models"
)

// Event is a domain event returned by a service operation. It names who should
// be told about what; rendering and delivery are left to the Dispatcher.
type Event struct {
	Kind        models.NotificationKind
	HouseholdID string
	// Recipients are user ids.
	Recipients []string
	ResourceID string

	ActorName string
	// Subject is the title of the event or task, the household name, or the
	// added member's name, depending on Kind.
	Subject string
	// MemberType qualifies MEMBER_ADDED.
	MemberType models.MemberType
	OldTime    *time.Time
	NewTime    *time.Time
}

const timeLayout = "02/01/2006 15:04"
const dateLayout = "02/01/2006"

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func formatTime(t *time.Time, layout string, loc *time.Location) string {
	if t == nil {
		return "an unknown date"
	}
	return t.In(loc).Format(layout)
}

// Render produces the title and message stored for a notification.
func Render(ev Event, loc *time.Location) (title, message string, err error) {
	actor := orDefault(ev.ActorName, "A member")

	switch ev.Kind {
	case models.NotificationJoinRequest:
		return "New join request",
			fmt.Sprintf("%s wants to join your household.", orDefault(ev.ActorName, "A user")), nil
	case models.NotificationJoinAccepted:
		return "Request accepted!",
			fmt.Sprintf("Welcome to the %s household!", ev.Subject), nil
	case models.NotificationMemberAdded:
		what := "a child"
		if ev.MemberType == models.MemberTypePet {
			what = "a pet"
		}
		return "New member added",
			fmt.Sprintf("%s added %s: %s", actor, what, ev.Subject), nil
	case models.NotificationEventInvite:
		return "Event invitation",
			fmt.Sprintf("%s added you to the event %q", actor, ev.Subject), nil
	case models.NotificationEventUpdated:
		return "Event rescheduled",
			fmt.Sprintf("The event %q moved from %s to %s.", ev.Subject,
				formatTime(ev.OldTime, timeLayout, loc), formatTime(ev.NewTime, timeLayout, loc)), nil
	case models.NotificationEventDeleted:
		return "Event cancelled",
			fmt.Sprintf("The event %q was deleted by %s.", ev.Subject, orDefault(ev.ActorName, "a member")), nil
	case models.NotificationTaskAssigned:
		return "New task assigned",
			fmt.Sprintf("%s assigned you the task %q", actor, ev.Subject), nil
	case models.NotificationTaskUpdated:
		return "Task updated",
			fmt.Sprintf("The due date of the task %q changed to %s.", ev.Subject,
				formatTime(ev.NewTime, dateLayout, loc)), nil
	case models.NotificationTaskCompleted:
		return "Task completed",
			fmt.Sprintf("%s completed the task %q", actor, ev.Subject), nil
	}
	return "", "", fmt.Errorf("unknown notification kind %q", ev.Kind)
}

// Recipients lists the user ids behind the given members, skipping profiles
// without an account and the acting user. Order is preserved and ids are
// de-duplicated.
func Recipients(members []models.Member, actorUserID string) []string {
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		if !m.HasAccount() || *m.UserID == actorUserID {
			continue
		}
		if _, dup := seen[*m.UserID]; dup {
			continue
		}
		seen[*m.UserID] = struct{}{}
		out = append(out, *m.UserID)
	}
	return out
}
