package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
}

// AddIndexes adds the composite indexes used by the list queries
func AddIndexes(db *gorm.DB, log *logrus.Logger) error {
	indexes := []index{
		// Calendar range scans per household
		{"events", "idx_events_household_start", "household_id, start_time"},
		// Task board ordering per household
		{"tasks", "idx_tasks_household_status_due", "household_id, status, due_date"},
		// Participant and assignee lookups by member
		{"event_participants", "idx_event_participants_member", "member_id"},
		{"task_assignees", "idx_task_assignees_member", "member_id"},
		// Notification inbox
		{"notifications", "idx_notifications_user_created", "user_id, created_at"},
		// Pending join requests per household
		{"join_requests", "idx_join_requests_household_status", "household_id, status"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.WithField("index", idx.name).Debug("Index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithFields(logrus.Fields{
			"index":   idx.name,
			"table":   idx.table,
			"columns": idx.columns,
		}).Info("Created index")
	}

	return nil
}

// MigrateDatabase runs the migrations that AutoMigrate does not cover
func MigrateDatabase(db *gorm.DB, log *logrus.Logger) error {
	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
