package constants

import "time"

// Session and context keys
const (
	SessionCookieName   = "ensemble_session"
	ContextKeyUserID    = "user_id"
	ContextKeyUserName  = "user_name"
	ContextKeyRequestID = "request_id"
	ContextKeyHousehold = "household"
	ContextKeyMember    = "member"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Limits
const (
	MinPasswordLength    = 6
	MinDisplayNameLength = 2
	InviteCodeLength     = 12
	NotificationPageSize = 20
	MaxAIGeneratedTasks  = 20
	MaxEventDates        = 366
)

// DefaultArchiveAfter is how long a completed one-off task stays DONE before archival.
const DefaultArchiveAfter = 30 * 24 * time.Hour
