package models

import "time"

// NotificationLog is one user's copy of an activity message. Mutating
// task actions fan out one row per active member of the calendar.
type NotificationLog struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	UserID    uint64    `gorm:"not null;index" json:"user_id"`
	Message   string    `gorm:"type:varchar(500);not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}
