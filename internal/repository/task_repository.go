package repository

import (
	"time"

	"github.com/yukikurage/ensemble/internal/database"
	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

func assigneeRows(taskID string, memberIDs []string) []models.TaskAssignee {
	rows := make([]models.TaskAssignee, len(memberIDs))
	for i, memberID := range memberIDs {
		rows[i] = models.TaskAssignee{TaskID: taskID, MemberID: memberID}
	}
	return rows
}

func toUTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Create creates a task and its assignees in a transaction
func (r *GormTaskRepository) Create(task *models.Task, assigneeIDs []string) error {
	task.DueDate = toUTC(task.DueDate)
	task.CompletedAt = toUTC(task.CompletedAt)

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return err
		}

		if len(assigneeIDs) == 0 {
			return nil
		}
		rows := assigneeRows(task.ID, assigneeIDs)
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return err
		}
		task.Assignees = rows
		return nil
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id string, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination. Open tasks come first,
// then by due date (undated last), then newest first.
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{}).Where("tasks.household_id = ?", filter.HouseholdID)

	// Apply filters
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	} else if !filter.IncludeArchived {
		query = query.Where("tasks.status <> ?", models.TaskStatusArchived)
	}
	if filter.AssigneeID != nil {
		assigneeSubQuery := r.db.Model(&models.TaskAssignee{}).
			Select("1").
			Where("task_assignees.task_id = tasks.id").
			Where("task_assignees.member_id = ?", *filter.AssigneeID)
		query = query.Where("EXISTS (?)", assigneeSubQuery)
	}
	if !filter.ViewerIsAdmin {
		viewerSubQuery := r.db.Model(&models.TaskAssignee{}).
			Select("1").
			Where("task_assignees.task_id = tasks.id").
			Where("task_assignees.member_id = ?", filter.ViewerMemberID)
		query = query.Where(
			r.db.Where("tasks.visibility = ?", models.VisibilityHousehold).
				Or("EXISTS (?)", viewerSubQuery),
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.
		Order("CASE tasks.status WHEN 'TODO' THEN 0 WHEN 'DONE' THEN 1 ELSE 2 END").
		Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date ASC").
		Order("tasks.created_at DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{Page: filter.Page, Limit: filter.PageSize}))
	}

	if err := listQuery.Preload("Assignees.Member").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update saves a task and, when requested, replaces its assignees
func (r *GormTaskRepository) Update(task *models.Task, assigneeIDs *[]string) error {
	task.DueDate = toUTC(task.DueDate)
	task.CompletedAt = toUTC(task.CompletedAt)

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(task).Error; err != nil {
			return err
		}

		if assigneeIDs == nil {
			return nil
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}
		rows := assigneeRows(task.ID, *assigneeIDs)
		if len(rows) > 0 {
			if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
				return err
			}
		}
		task.Assignees = rows
		return nil
	})
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).Delete(&models.Task{}).Error
	})
}

// ArchiveCompleted archives one-off tasks that have been DONE since before the cutoff
func (r *GormTaskRepository) ArchiveCompleted(before time.Time) (int64, error) {
	result := r.db.Model(&models.Task{}).
		Where("status = ? AND recurrence = ? AND completed_at < ?",
			models.TaskStatusDone, models.RecurrenceNone, before.UTC()).
		Update("status", models.TaskStatusArchived)
	return result.RowsAffected, result.Error
}
