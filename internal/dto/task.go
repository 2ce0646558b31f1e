package dto

import (
	"time"

	"github.com/yukikurage/ensemble/internal/models"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Emoji       *string           `json:"emoji"`
	Recurrence  models.Recurrence `json:"recurrence"`
	Status      models.TaskStatus `json:"status"`
	DueDate     *time.Time        `json:"due_date"`
	Visibility  models.Visibility `json:"visibility"`
	CompletedAt *time.Time        `json:"completed_at"`
	CompletedBy *string           `json:"completed_by"`
	HouseholdID string            `json:"household_id"`
	AssigneeIDs []string          `json:"assignee_ids"`
	Assignees   []MemberDTO       `json:"assignees,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Emoji:       task.Emoji,
		Recurrence:  task.Recurrence,
		Status:      task.Status,
		DueDate:     task.DueDate,
		Visibility:  task.Visibility,
		CompletedAt: task.CompletedAt,
		CompletedBy: task.CompletedBy,
		HouseholdID: task.HouseholdID,
		AssigneeIDs: task.AssigneeMemberIDs(),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	for _, a := range task.Assignees {
		if a.Member.ID != "" {
			dto.Assignees = append(dto.Assignees, ToMemberDTO(a.Member))
		}
	}
	return dto
}

// ToTaskListResponse converts tasks to a paginated response
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
