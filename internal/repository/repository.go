package repository

import (
	"time"

	"github.com/yukikurage/ensemble/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)
}

// HouseholdRepository defines the interface for household and join request data access
type HouseholdRepository interface {
	// CreateWithAdmin creates a household and its first admin member in one transaction
	CreateWithAdmin(household *models.Household, admin *models.Member) error

	// FindByID finds a household by ID
	FindByID(id string) (*models.Household, error)

	// FindByInviteCode finds a household by invite code
	FindByInviteCode(code string) (*models.Household, error)

	// Update updates a household
	Update(household *models.Household) error

	// ListMembershipsByUserID lists the member rows of a user, with their household
	ListMembershipsByUserID(userID string) ([]models.Member, error)

	// CreateJoinRequest stores a new pending join request
	CreateJoinRequest(req *models.JoinRequest) error

	// FindJoinRequest finds the join request of a user for a household
	FindJoinRequest(userID, householdID string) (*models.JoinRequest, error)

	// FindJoinRequestByID finds a join request with its user and household
	FindJoinRequestByID(id string) (*models.JoinRequest, error)

	// ListPendingJoinRequests lists the pending requests of a household
	ListPendingJoinRequests(householdID string) ([]models.JoinRequest, error)

	// ApproveJoinRequest creates the member and marks the request approved atomically
	ApproveJoinRequest(req *models.JoinRequest, member *models.Member) error

	// UpdateJoinRequestStatus sets the status of a join request
	UpdateJoinRequestStatus(id string, status models.JoinRequestStatus) error
}

// MemberRepository defines the interface for household member data access
type MemberRepository interface {
	// Create creates a new member
	Create(member *models.Member) error

	// FindByID finds a member by ID, with its user
	FindByID(id string) (*models.Member, error)

	// FindByUser finds the member row of a user inside a household
	FindByUser(householdID, userID string) (*models.Member, error)

	// ListByHousehold lists all members of a household, with their users
	ListByHousehold(householdID string) ([]models.Member, error)

	// ListByIDs lists the members of a household among the given IDs
	ListByIDs(householdID string, ids []string) ([]models.Member, error)

	// ListAdmins lists the admin members of a household
	ListAdmins(householdID string) ([]models.Member, error)

	// Update updates a member
	Update(member *models.Member) error

	// Delete removes a member along with its participant and assignee rows
	Delete(id string) error
}

// EventRepository defines the interface for event and series data access
type EventRepository interface {
	// CreateOccurrences stores an optional series anchor, its events and their
	// participants in one transaction
	CreateOccurrences(series *models.EventSeries, events []models.Event, participantIDs []string) error

	// FindByID finds an event with its participants
	FindByID(id string) (*models.Event, error)

	// ListBySeries lists every event of a series with participants, ordered by start
	ListBySeries(seriesID string) ([]models.Event, error)

	// SaveChanges writes edited events and, when participantIDs is non-nil,
	// replaces their participants, in one transaction
	SaveChanges(events []models.Event, participantIDs *[]string) error

	// Delete removes a single event
	Delete(id string) error

	// DeleteSeries removes every event of a series and the series anchor
	DeleteSeries(seriesID string) error

	// List retrieves events with filtering
	List(filter EventFilter) ([]models.Event, error)

}

// EventFilter holds filtering options for listing events
type EventFilter struct {
	HouseholdID string
	From        *time.Time
	To          *time.Time
	// MemberIDs keeps events with at least one of these participants
	MemberIDs []string
	// ViewerMemberID limits PARTICIPANTS events to those the viewer takes part
	// in, unless ViewerIsAdmin is set
	ViewerMemberID string
	ViewerIsAdmin  bool
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a task and its assignees in one transaction
	Create(task *models.Task, assigneeIDs []string) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id string, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update saves a task and, when assigneeIDs is non-nil, replaces its assignees
	Update(task *models.Task, assigneeIDs *[]string) error

	// Delete soft deletes a task and removes its assignees
	Delete(id string) error

	// ArchiveCompleted moves non-recurring DONE tasks completed before the cutoff to ARCHIVED
	ArchiveCompleted(before time.Time) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	HouseholdID     string
	Status          *models.TaskStatus
	IncludeArchived bool
	AssigneeID      *string
	ViewerMemberID  string
	ViewerIsAdmin   bool
	Page            int
	PageSize        int
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// Create stores a notification
	Create(n *models.Notification) error

	// ListForUser lists the latest notifications of a user, newest first
	ListForUser(userID string, limit int) ([]models.Notification, error)

	// CountUnread counts the unread notifications of a user
	CountUnread(userID string) (int64, error)

	// MarkRead marks one notification of a user as read
	MarkRead(id, userID string) error

	// MarkAllRead marks every notification of a user as read
	MarkAllRead(userID string) error
}
