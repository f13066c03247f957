package constants

// Session
const (
	SessionCookieName = "calendar_session"
	ContextKeyUserID  = "user_id"
	// SessionMaxAge is the session cookie lifetime in seconds.
	SessionMaxAge = 86400 * 7
)

// Validation
const (
	MinPasswordLength = 8
	MinUsernameLength = 2
	MaxUsernameLength = 50
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Reminders
const (
	// ReminderScanSpec is the cron spec for the due-reminder scan.
	ReminderScanSpec = "@every 1m"
	// DefaultReminderHour is the hour of day used for date-only reminders.
	DefaultReminderHour = 9
)

// Calendar bootstrap
const (
	// MaxBootstrapRetries bounds extra attempts when the calendar list
	// fetch fails before falling back to auto-provisioning.
	MaxBootstrapRetries = 1
	// DefaultCalendarName is the name of the auto-provisioned personal calendar.
	DefaultCalendarName = "マイカレンダー"
)

// Reports
const (
	// SelfReportLabel buckets the requesting user's own tasks in weekly reports.
	SelfReportLabel = "self"
)

const MaxAISuggestedTasks = 20
