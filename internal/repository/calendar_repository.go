package repository

import (
	"time"

	"github.com/yukikurage/shared-calendar-api/internal/models"
	"gorm.io/gorm"
)

// GormCalendarRepository is a GORM implementation of CalendarRepository
type GormCalendarRepository struct {
	db *gorm.DB
}

// NewCalendarRepository creates a new CalendarRepository
func NewCalendarRepository(db *gorm.DB) CalendarRepository {
	return &GormCalendarRepository{db: db}
}

// CreateWithOwner creates a calendar and the owner's active membership atomically.
// The owner's row is created active, never pending.
func (r *GormCalendarRepository) CreateWithOwner(calendar *models.Calendar, ownerID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(calendar).Error; err != nil {
			return err
		}

		now := time.Now()
		member := &models.CalendarMember{
			CalendarID: calendar.ID,
			UserID:     ownerID,
			Role:       models.RoleOwner,
			Status:     models.StatusActive,
			InvitedBy:  ownerID,
			JoinedAt:   &now,
		}

		return tx.Create(member).Error
	})
}

// FindByID finds a calendar by ID
func (r *GormCalendarRepository) FindByID(id uint64) (*models.Calendar, error) {
	var calendar models.Calendar
	if err := r.db.First(&calendar, id).Error; err != nil {
		return nil, err
	}
	return &calendar, nil
}

// Update updates a calendar
func (r *GormCalendarRepository) Update(calendar *models.Calendar) error {
	return r.db.Save(calendar).Error
}

// AddMember adds a membership row
func (r *GormCalendarRepository) AddMember(member *models.CalendarMember) error {
	return r.db.Create(member).Error
}

// FindMember finds the membership row for a (calendar, user) pair
func (r *GormCalendarRepository) FindMember(calendarID, userID uint64) (*models.CalendarMember, error) {
	var member models.CalendarMember
	if err := r.db.Where("calendar_id = ? AND user_id = ?", calendarID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindMembershipByID finds a membership row by its primary key
func (r *GormCalendarRepository) FindMembershipByID(id uint64) (*models.CalendarMember, error) {
	var member models.CalendarMember
	if err := r.db.First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateMember updates a membership row
func (r *GormCalendarRepository) UpdateMember(member *models.CalendarMember) error {
	return r.db.Save(member).Error
}

// RemoveMember deletes a membership row by its primary key
func (r *GormCalendarRepository) RemoveMember(id uint64) error {
	return r.db.Delete(&models.CalendarMember{}, id).Error
}

// ListActiveMembers lists active members of a calendar with users preloaded
func (r *GormCalendarRepository) ListActiveMembers(calendarID uint64) ([]models.CalendarMember, error) {
	var members []models.CalendarMember
	if err := r.db.Preload("User").
		Where("calendar_id = ? AND status = ?", calendarID, models.StatusActive).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListPendingForUser lists pending invitations addressed to a user,
// joined to the inviting user and the calendar.
func (r *GormCalendarRepository) ListPendingForUser(userID uint64) ([]models.CalendarMember, error) {
	var members []models.CalendarMember
	if err := r.db.Preload("Calendar").Preload("Inviter").
		Where("user_id = ? AND status = ?", userID, models.StatusPending).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListActiveMembershipsOf lists a user's active memberships with calendars preloaded
func (r *GormCalendarRepository) ListActiveMembershipsOf(userID uint64) ([]models.CalendarMember, error) {
	var memberships []models.CalendarMember
	if err := r.db.Preload("Calendar").
		Where("user_id = ? AND status = ?", userID, models.StatusActive).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListActiveCalendarIDs lists the IDs of calendars the user actively belongs to
func (r *GormCalendarRepository) ListActiveCalendarIDs(userID uint64) ([]uint64, error) {
	var ids []uint64
	if err := r.db.Model(&models.CalendarMember{}).
		Where("user_id = ? AND status = ?", userID, models.StatusActive).
		Pluck("calendar_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
