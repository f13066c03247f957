package repository

import (
	"github.com/yukikurage/shared-calendar-api/internal/database"
	"github.com/yukikurage/shared-calendar-api/internal/models"
	"github.com/yukikurage/shared-calendar-api/internal/utils"
	"gorm.io/gorm"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

// CreateBatch inserts one log row per recipient
func (r *GormNotificationRepository) CreateBatch(entries []models.NotificationLog) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.Create(&entries).Error
}

// ListByUser lists a page of a user's notifications, newest first
func (r *GormNotificationRepository) ListByUser(userID uint64, params utils.PaginationParams) ([]models.NotificationLog, int64, error) {
	query := r.db.Model(&models.NotificationLog{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.NotificationLog
	if err := query.Order("created_at DESC").
		Scopes(database.Paginate(params)).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// MarkRead marks a single notification as read
func (r *GormNotificationRepository) MarkRead(id, userID uint64) error {
	result := r.db.Model(&models.NotificationLog{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead marks all of a user's notifications as read
func (r *GormNotificationRepository) MarkAllRead(userID uint64) error {
	return r.db.Model(&models.NotificationLog{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}
