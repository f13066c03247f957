package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Task indexes for per-calendar listing and reminder scans
		{"tasks", "idx_tasks_calendar_id", "calendar_id"},
		{"tasks", "idx_tasks_creator_id", "creator_id"},
		{"tasks", "idx_tasks_date", "date"},
		{"tasks", "idx_tasks_completed", "completed"},
		{"tasks", "idx_tasks_reminder_date", "reminder_date"},

		// Calendar member indexes
		{"calendar_members", "idx_calendar_members_calendar_id", "calendar_id"},
		{"calendar_members", "idx_calendar_members_user_id", "user_id"},
		{"calendar_members", "idx_calendar_members_status", "status"},

		// Notification log indexes
		{"notification_logs", "idx_notification_logs_user_id", "user_id"},
		{"notification_logs", "idx_notification_logs_created_at", "created_at"},
	}

	for _, idx := range indexes {
		// Check if index already exists
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Count(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
