package constants

// Session / context keys
const (
	ContextKeyUserID  = "user_id"
	SessionCookieName = "pm_session"
)

// Pagination
const (
	MinPage         = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 8
)

// Project keys ("PROJ" in "PROJ-42")
const (
	MinProjectKeyLength = 2
	MaxProjectKeyLength = 10
)

// AI task drafting
const (
	MaxAIGeneratedTasks = 20
)
