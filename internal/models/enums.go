package models

import (
	"fmt"
	"strings"
)

// EventCategory tags an event for display and filtering.
type EventCategory string

const (
	CategoryChore       EventCategory = "CHORE"
	CategoryAppointment EventCategory = "APPOINTMENT"
	CategoryActivity    EventCategory = "ACTIVITY"
	CategoryMeal        EventCategory = "MEAL"
	CategoryOther       EventCategory = "OTHER"
	CategorySchool      EventCategory = "SCHOOL"
	CategoryWork        EventCategory = "WORK"
	CategoryHealth      EventCategory = "HEALTH"
	CategorySport       EventCategory = "SPORT"
	CategoryLeisure     EventCategory = "LEISURE"
)

// ParseEventCategory validates a category coming from a request.
func ParseEventCategory(s string) (EventCategory, error) {
	switch c := EventCategory(strings.ToUpper(strings.TrimSpace(s))); c {
	case CategoryChore, CategoryAppointment, CategoryActivity, CategoryMeal, CategoryOther,
		CategorySchool, CategoryWork, CategoryHealth, CategorySport, CategoryLeisure:
		return c, nil
	}
	return "", fmt.Errorf("unknown event category %q", s)
}

// Visibility decides who sees an event or task.
type Visibility string

const (
	VisibilityHousehold    Visibility = "HOUSEHOLD"
	VisibilityParticipants Visibility = "PARTICIPANTS"
)

// ParseVisibility validates a visibility value; empty means HOUSEHOLD.
func ParseVisibility(s string) (Visibility, error) {
	if strings.TrimSpace(s) == "" {
		return VisibilityHousehold, nil
	}
	switch v := Visibility(strings.ToUpper(strings.TrimSpace(s))); v {
	case VisibilityHousehold, VisibilityParticipants:
		return v, nil
	}
	return "", fmt.Errorf("unknown visibility %q", s)
}

// Recurrence is the roll-forward interval of a task.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "NONE"
	RecurrenceDaily   Recurrence = "DAILY"
	RecurrenceWeekly  Recurrence = "WEEKLY"
	RecurrenceMonthly Recurrence = "MONTHLY"
)

// ParseRecurrence validates a recurrence value; empty means NONE.
func ParseRecurrence(s string) (Recurrence, error) {
	if strings.TrimSpace(s) == "" {
		return RecurrenceNone, nil
	}
	switch r := Recurrence(strings.ToUpper(strings.TrimSpace(s))); r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return r, nil
	}
	return "", fmt.Errorf("unknown recurrence %q", s)
}

type TaskStatus string

const (
	TaskStatusTodo     TaskStatus = "TODO"
	TaskStatusDone     TaskStatus = "DONE"
	TaskStatusArchived TaskStatus = "ARCHIVED"
)

func ParseTaskStatus(s string) (TaskStatus, error) {
	switch st := TaskStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case TaskStatusTodo, TaskStatusDone, TaskStatusArchived:
		return st, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

type MemberRole string

const (
	RoleAdmin  MemberRole = "ADMIN"
	RoleMember MemberRole = "MEMBER"
)

// MemberType distinguishes adults with accounts from child and pet profiles.
type MemberType string

const (
	MemberTypeAdult MemberType = "ADULT"
	MemberTypeChild MemberType = "CHILD"
	MemberTypePet   MemberType = "PET"
)

// ParseMemberType validates a member type; empty means CHILD.
func ParseMemberType(s string) (MemberType, error) {
	if strings.TrimSpace(s) == "" {
		return MemberTypeChild, nil
	}
	switch t := MemberType(strings.ToUpper(strings.TrimSpace(s))); t {
	case MemberTypeAdult, MemberTypeChild, MemberTypePet:
		return t, nil
	}
	return "", fmt.Errorf("unknown member type %q", s)
}

type PetType string

const (
	PetDog     PetType = "DOG"
	PetCat     PetType = "CAT"
	PetBird    PetType = "BIRD"
	PetFish    PetType = "FISH"
	PetRabbit  PetType = "RABBIT"
	PetHamster PetType = "HAMSTER"
	PetOther   PetType = "OTHER"
)

func ParsePetType(s string) (PetType, error) {
	switch p := PetType(strings.ToUpper(strings.TrimSpace(s))); p {
	case PetDog, PetCat, PetBird, PetFish, PetRabbit, PetHamster, PetOther:
		return p, nil
	}
	return "", fmt.Errorf("unknown pet type %q", s)
}

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "PENDING"
	JoinRequestApproved JoinRequestStatus = "APPROVED"
	JoinRequestRejected JoinRequestStatus = "REJECTED"
)

// NotificationKind tags a stored notification.
type NotificationKind string

const (
	NotificationJoinRequest   NotificationKind = "JOIN_REQUEST"
	NotificationJoinAccepted  NotificationKind = "JOIN_ACCEPTED"
	NotificationMemberAdded   NotificationKind = "MEMBER_ADDED"
	NotificationEventInvite   NotificationKind = "EVENT_INVITE"
	NotificationEventUpdated  NotificationKind = "EVENT_UPDATED"
	NotificationEventDeleted  NotificationKind = "EVENT_DELETED"
	NotificationTaskAssigned  NotificationKind = "TASK_ASSIGNED"
	NotificationTaskUpdated   NotificationKind = "TASK_UPDATED"
	NotificationTaskCompleted NotificationKind = "TASK_COMPLETED"
)
