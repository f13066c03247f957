package repository

import (
	"time"

	"github.com/yukikurage/shared-calendar-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// ListByCalendar retrieves all tasks of a calendar ordered by date ascending.
// Per-day ordering by priority and position is derived client-side.
func (r *GormTaskRepository) ListByCalendar(calendarID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Where("calendar_id = ?", calendarID).
		Order("date ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListIncompleteByCalendars retrieves incomplete tasks across calendars
func (r *GormTaskRepository) ListIncompleteByCalendars(calendarIDs []uint64) ([]models.Task, error) {
	if len(calendarIDs) == 0 {
		return []models.Task{}, nil
	}

	var tasks []models.Task
	if err := r.db.Where("calendar_id IN ? AND completed = ?", calendarIDs, false).
		Order("date ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListIncomplete retrieves all incomplete tasks
func (r *GormTaskRepository) ListIncomplete() ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Where("completed = ?", false).
		Order("date ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListCompletedInRange retrieves completed tasks of a calendar with date in [from, to)
func (r *GormTaskRepository) ListCompletedInRange(calendarID uint64, from, to time.Time) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.
		Where("calendar_id = ? AND completed = ? AND date >= ? AND date < ?",
			calendarID, true, from, to).
		Order("date ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// UpdatePosition updates only a task's per-day position
func (r *GormTaskRepository) UpdatePosition(id uint64, position int) error {
	return r.db.Model(&models.Task{}).
		Where("id = ?", id).
		Update("position", position).Error
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Task{}, id).Error
}
