package models

import "time"

type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

type MembershipStatus string

const (
	// StatusPending marks an invitation that has not been accepted yet.
	StatusPending MembershipStatus = "pending"
	// StatusActive marks a confirmed membership. The absence of a row
	// means the user is not a member at all.
	StatusActive MembershipStatus = "active"
)

// CalendarMember is one user's membership state on one calendar.
// A (calendar, user) pair has at most one row; duplicate invites hit
// the unique index and surface as a conflict.
type CalendarMember struct {
	ID         uint64           `gorm:"primarykey" json:"id"`
	CalendarID uint64           `gorm:"not null;uniqueIndex:idx_calendar_user" json:"calendar_id"`
	UserID     uint64           `gorm:"not null;uniqueIndex:idx_calendar_user" json:"user_id"`
	Role       MemberRole       `gorm:"type:varchar(20);not null" json:"role"`
	Status     MembershipStatus `gorm:"type:varchar(20);not null" json:"status"`
	InvitedBy  uint64           `json:"invited_by"`
	JoinedAt   *time.Time       `json:"joined_at"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`

	// Relations
	Calendar Calendar `gorm:"foreignKey:CalendarID" json:"calendar,omitempty"`
	User     User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Inviter  User     `gorm:"foreignKey:InvitedBy" json:"inviter,omitempty"`
}
