package models

import (
	"time"

	"gorm.io/gorm"
)

type Calendar struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	CreatedBy uint64         `gorm:"not null" json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members []CalendarMember `gorm:"foreignKey:CalendarID" json:"members,omitempty"`
	Tasks   []Task           `gorm:"foreignKey:CalendarID" json:"tasks,omitempty"`
}
