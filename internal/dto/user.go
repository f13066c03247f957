package dto

import (
	"time"

	"github.com/yukikurage/shared-calendar-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID         uint64 `json:"id"`
	Username   string `json:"username"`
	AvatarSeed string `json:"avatar_seed"`
}

// NotificationDTO represents a notification log entry in API responses
type NotificationDTO struct {
	ID        uint64    `json:"id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:         user.ID,
		Username:   user.Username,
		AvatarSeed: user.AvatarSeed,
	}
}

// ToNotificationDTO converts a NotificationLog model to NotificationDTO
func ToNotificationDTO(n models.NotificationLog) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

// ToNotificationDTOs converts a slice of notification logs
func ToNotificationDTOs(logs []models.NotificationLog) []NotificationDTO {
	dtos := make([]NotificationDTO, len(logs))
	for i, n := range logs {
		dtos[i] = ToNotificationDTO(n)
	}
	return dtos
}
