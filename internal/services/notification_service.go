package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/shared-calendar-api/internal/models"
	"github.com/yukikurage/shared-calendar-api/internal/realtime"
	"github.com/yukikurage/shared-calendar-api/internal/repository"
	"github.com/yukikurage/shared-calendar-api/internal/utils"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService writes and serves the per-user activity log.
type NotificationService struct {
	notifRepo    repository.NotificationRepository
	calendarRepo repository.CalendarRepository
	publisher    realtime.Publisher
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notifRepo repository.NotificationRepository, calendarRepo repository.CalendarRepository, publisher realtime.Publisher) *NotificationService {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &NotificationService{
		notifRepo:    notifRepo,
		calendarRepo: calendarRepo,
		publisher:    publisher,
	}
}

// FanOut writes one log row per active member of the calendar,
// including the acting user, and announces each row on the change feed.
func (s *NotificationService) FanOut(calendarID, actorID uint64, message string) error {
	members, err := s.calendarRepo.ListActiveMembers(calendarID)
	if err != nil {
		return fmt.Errorf("failed to list recipients: %w", err)
	}

	entries := make([]models.NotificationLog, 0, len(members))
	for _, m := range members {
		entries = append(entries, models.NotificationLog{
			UserID:  m.UserID,
			Message: message,
		})
	}

	if err := s.notifRepo.CreateBatch(entries); err != nil {
		return fmt.Errorf("failed to write notifications: %w", err)
	}

	for _, e := range entries {
		s.publisher.Publish(realtime.ChangeEvent{
			Table:        realtime.TableNotifications,
			Action:       realtime.ActionInsert,
			TargetUserID: e.UserID,
			OriginUserID: actorID,
		})
	}

	return nil
}

// NotifyUser writes a single log row for one user.
func (s *NotificationService) NotifyUser(userID, actorID uint64, message string) error {
	if err := s.notifRepo.CreateBatch([]models.NotificationLog{{
		UserID:  userID,
		Message: message,
	}}); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}

	s.publisher.Publish(realtime.ChangeEvent{
		Table:        realtime.TableNotifications,
		Action:       realtime.ActionInsert,
		TargetUserID: userID,
		OriginUserID: actorID,
	})

	return nil
}

// List returns a page of the user's notifications, newest first.
func (s *NotificationService) List(userID uint64, params utils.PaginationParams) ([]models.NotificationLog, int64, error) {
	entries, total, err := s.notifRepo.ListByUser(userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return entries, total, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(id, userID uint64) error {
	if err := s.notifRepo.MarkRead(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks all of the user's notifications as read.
func (s *NotificationService) MarkAllRead(userID uint64) error {
	if err := s.notifRepo.MarkAllRead(userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
