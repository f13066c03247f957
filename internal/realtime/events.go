package realtime

import "time"

// Action is the kind of row change being announced.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Table names used in change events.
const (
	TableTasks         = "todos"
	TableMemberships   = "calendar_members"
	TableProfiles      = "profiles"
	TableNotifications = "notifications"
)

// ChangeEvent announces a row-level change. Consumers do not receive row
// payloads; an event is an invalidate-and-reload signal for the named
// table. OriginUserID lets a client skip events caused by its own writes.
type ChangeEvent struct {
	Table        string    `json:"table"`
	Action       Action    `json:"action"`
	CalendarID   uint64    `json:"calendar_id,omitempty"`
	TargetUserID uint64    `json:"target_user_id,omitempty"`
	OriginUserID uint64    `json:"origin_user_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher is the write side of the change feed. The zero-value-safe
// NopPublisher keeps callers working when no feed is wired (tests).
type Publisher interface {
	Publish(event ChangeEvent)
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(ChangeEvent) {}
