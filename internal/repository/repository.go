package repository

import (
	"time"

	"github.com/yukikurage/shared-calendar-api/internal/models"
	"github.com/yukikurage/shared-calendar-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// Update updates a user's profile fields
	Update(user *models.User) error
}

// CalendarRepository defines the interface for calendar and membership data access
type CalendarRepository interface {
	// CreateWithOwner creates a calendar and its active owner membership
	// within a single transaction.
	CreateWithOwner(calendar *models.Calendar, ownerID uint64) error

	// FindByID finds a calendar by ID
	FindByID(id uint64) (*models.Calendar, error)

	// Update updates a calendar
	Update(calendar *models.Calendar) error

	// AddMember adds a membership row
	AddMember(member *models.CalendarMember) error

	// FindMember finds the membership row for a (calendar, user) pair
	FindMember(calendarID, userID uint64) (*models.CalendarMember, error)

	// FindMembershipByID finds a membership row by its primary key
	FindMembershipByID(id uint64) (*models.CalendarMember, error)

	// UpdateMember updates a membership row
	UpdateMember(member *models.CalendarMember) error

	// RemoveMember deletes a membership row by its primary key
	RemoveMember(id uint64) error

	// ListActiveMembers lists active members of a calendar
	ListActiveMembers(calendarID uint64) ([]models.CalendarMember, error)

	// ListPendingForUser lists pending invitations addressed to a user
	ListPendingForUser(userID uint64) ([]models.CalendarMember, error)

	// ListActiveMembershipsOf lists a user's active memberships with calendars preloaded
	ListActiveMembershipsOf(userID uint64) ([]models.CalendarMember, error)

	// ListActiveCalendarIDs lists the IDs of calendars the user actively belongs to
	ListActiveCalendarIDs(userID uint64) ([]uint64, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// ListByCalendar retrieves all tasks of a calendar ordered by date ascending
	ListByCalendar(calendarID uint64) ([]models.Task, error)

	// ListIncompleteByCalendars retrieves incomplete tasks across calendars
	ListIncompleteByCalendars(calendarIDs []uint64) ([]models.Task, error)

	// ListIncomplete retrieves all incomplete tasks
	ListIncomplete() ([]models.Task, error)

	// ListCompletedInRange retrieves completed tasks of a calendar with
	// date in [from, to)
	ListCompletedInRange(calendarID uint64, from, to time.Time) ([]models.Task, error)

	// Update updates a task
	Update(task *models.Task) error

	// UpdatePosition updates only a task's per-day position
	UpdatePosition(id uint64, position int) error

	// Delete soft deletes a task
	Delete(id uint64) error
}

// NotificationRepository defines the interface for notification log access
type NotificationRepository interface {
	// CreateBatch inserts one log row per recipient
	CreateBatch(entries []models.NotificationLog) error

	// ListByUser lists a page of a user's notifications, newest first
	ListByUser(userID uint64, params utils.PaginationParams) ([]models.NotificationLog, int64, error)

	// MarkRead marks a single notification as read
	MarkRead(id, userID uint64) error

	// MarkAllRead marks all of a user's notifications as read
	MarkAllRead(userID uint64) error
}
