package models

import (
	"time"

	"gorm.io/gorm"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities for per-day sorting: high < medium < low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Label returns the user-facing Japanese label for the priority.
func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "高"
	case PriorityMedium:
		return "中"
	default:
		return "低"
	}
}

// Valid reports whether p is one of the known priority values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ReminderKind is the resolved reminder variant of a task. The three
// reminder columns are mutually exclusive in intent; when several are
// set, monthly wins over a fixed date, which wins over a time of day.
type ReminderKind int

const (
	ReminderNone ReminderKind = iota
	ReminderTimeOfDay
	ReminderFixedDate
	ReminderMonthly
)

type Task struct {
	ID                 uint64         `gorm:"primarykey" json:"id"`
	CalendarID         uint64         `gorm:"not null" json:"calendar_id"`
	CreatorID          uint64         `gorm:"not null" json:"creator_id"`
	CreatedByUsername  string         `gorm:"type:varchar(50);not null" json:"created_by_username"`
	Title              string         `gorm:"not null" json:"title"`
	Date               time.Time      `gorm:"type:date;not null" json:"date"`
	Completed          bool           `gorm:"not null;default:false" json:"completed"`
	Priority           Priority       `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	Position           int            `gorm:"not null;default:0" json:"position"`
	ReminderTime       *string        `gorm:"type:varchar(5)" json:"reminder_time"`
	ReminderDate       *time.Time     `gorm:"type:date" json:"reminder_date"`
	IsMonthlyRecurring bool           `gorm:"not null;default:false" json:"is_monthly_recurring"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Creator  User     `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Calendar Calendar `gorm:"foreignKey:CalendarID" json:"calendar,omitempty"`
}

// ReminderKind resolves which reminder variant applies to the task.
func (t *Task) ReminderKind() ReminderKind {
	switch {
	case t.IsMonthlyRecurring:
		return ReminderMonthly
	case t.ReminderDate != nil:
		return ReminderFixedDate
	case t.ReminderTime != nil && *t.ReminderTime != "":
		return ReminderTimeOfDay
	default:
		return ReminderNone
	}
}

// SameDay reports whether the task's date falls on the given calendar day.
func (t *Task) SameDay(day time.Time) bool {
	y1, m1, d1 := t.Date.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
