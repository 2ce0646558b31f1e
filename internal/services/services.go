package services

import (
	"errors"
	"strings"
	"time"

	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/series"
)

var (
	ErrHouseholdNotFound    = errors.New("household not found")
	ErrNotHouseholdMember   = errors.New("user is not a member of the household")
	ErrAdminRequired        = errors.New("only household admins can perform this action")
	ErrMemberNotFound       = errors.New("member not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrUnknownMembers       = errors.New("one or more members do not belong to the household")
	ErrTitleRequired        = errors.New("title is required")
	ErrNameRequired         = errors.New("name is required")
	ErrPermissionDenied     = errors.New("you do not have permission to modify this member")
	ErrCannotDeleteSelf     = errors.New("you cannot remove yourself from the household")
	ErrInvalidMemberType    = errors.New("only child and pet profiles can be added directly")
	ErrNotificationNotFound = errors.New("notification not found")
)

// Actor is the authenticated user acting inside one household.
type Actor struct {
	UserID string
	Name   string
	Member *models.Member
}

// HouseholdID returns the household the actor is acting in.
func (a Actor) HouseholdID() string {
	return a.Member.HouseholdID
}

// IsAdmin reports whether the actor administers the household.
func (a Actor) IsAdmin() bool {
	return a.Member.Role == models.RoleAdmin
}

// Clock returns the current time. Services are built with a UTC wall clock and
// tests replace it.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

func invalid(field string, err error) error {
	return &series.ValidationError{Field: field, Err: err}
}

func requireTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalid("title", ErrTitleRequired)
	}
	return title, nil
}

// uniqueStrings removes duplicates and blanks while keeping the first position.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		if v == "" {
			continue
		}
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}

func membersByID(members []models.Member) map[string]models.Member {
	out := make(map[string]models.Member, len(members))
	for _, m := range members {
		out[m.ID] = m
	}
	return out
}
