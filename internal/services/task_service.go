package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/ensemble/internal/constants"
	"github.com/yukikurage/ensemble/internal/metrics"
	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/notify"
	"github.com/yukikurage/ensemble/internal/recurrence"
	"github.com/yukikurage/ensemble/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
	ErrAITooManyTasks         = fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
)

// TaskService handles household tasks and the completion toggle
type TaskService struct {
	taskRepo   repository.TaskRepository
	memberRepo repository.MemberRepository
	aiService  *AIService
	metrics    *metrics.Metrics
	log        *logrus.Logger
	now        Clock
}

// NewTaskService creates a new TaskService. aiService and m may be nil.
func NewTaskService(
	taskRepo repository.TaskRepository,
	memberRepo repository.MemberRepository,
	aiService *AIService,
	m *metrics.Metrics,
	log *logrus.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		memberRepo: memberRepo,
		aiService:  aiService,
		metrics:    m,
		log:        log,
		now:        utcNow,
	}
}

// WithClock replaces the wall clock, for tests.
func (s *TaskService) WithClock(now Clock) *TaskService {
	s.now = now
	return s
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status          *models.TaskStatus
	IncludeArchived bool
	AssignedToMe    bool
	AssigneeID      *string
	Page            int
	PageSize        int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description *string
	Emoji       *string
	Recurrence  models.Recurrence
	Visibility  models.Visibility
	DueDate     *time.Time
	AssigneeIDs []string
}

// UpdateTaskInput represents input for updating a task. AssigneeIDs nil leaves
// the assignees untouched.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Emoji        *string
	Recurrence   *models.Recurrence
	Visibility   *models.Visibility
	DueDate      *time.Time
	ClearDueDate bool
	AssigneeIDs  *[]string
}

// ListTasks returns the tasks of the actor's household visible to them
func (s *TaskService) ListTasks(actor Actor, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		HouseholdID:     actor.HouseholdID(),
		Status:          input.Status,
		IncludeArchived: input.IncludeArchived,
		AssigneeID:      input.AssigneeID,
		ViewerMemberID:  actor.Member.ID,
		ViewerIsAdmin:   actor.IsAdmin(),
		Page:            input.Page,
		PageSize:        input.PageSize,
	}
	if input.AssignedToMe {
		filter.AssigneeID = &actor.Member.ID
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with its assignees
func (s *TaskService) GetTask(actor Actor, taskID string) (*models.Task, error) {
	return s.findVisibleTask(actor, taskID)
}

// CreateTask creates a new task and tells its assignees
func (s *TaskService) CreateTask(actor Actor, input CreateTaskInput) (*models.Task, []notify.Event, error) {
	title, err := requireTitle(input.Title)
	if err != nil {
		return nil, nil, err
	}

	assignees, err := resolveMembers(s.memberRepo, actor.HouseholdID(), input.AssigneeIDs)
	if err != nil {
		return nil, nil, err
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		Emoji:       input.Emoji,
		Recurrence:  input.Recurrence,
		Status:      models.TaskStatusTodo,
		DueDate:     input.DueDate,
		Visibility:  input.Visibility,
		HouseholdID: actor.HouseholdID(),
	}
	if task.Recurrence == "" {
		task.Recurrence = models.RecurrenceNone
	}
	if task.Visibility == "" {
		task.Visibility = models.VisibilityHousehold
	}

	if err := s.taskRepo.Create(task, memberIDs(assignees)); err != nil {
		return nil, nil, fmt.Errorf("failed to create task: %w", err)
	}

	events := []notify.Event{{
		Kind:        models.NotificationTaskAssigned,
		HouseholdID: actor.HouseholdID(),
		Recipients:  notify.Recipients(assignees, actor.UserID),
		ResourceID:  task.ID,
		ActorName:   actor.Name,
		Subject:     task.Title,
	}}

	return task, events, nil
}

// UpdateTask updates an existing task. Assignees are told when the due date moves.
func (s *TaskService) UpdateTask(actor Actor, taskID string, input UpdateTaskInput) (*models.Task, []notify.Event, error) {
	task, err := s.findVisibleTask(actor, taskID)
	if err != nil {
		return nil, nil, err
	}
	oldDue := task.DueDate

	if input.Title != nil {
		title, err := requireTitle(*input.Title)
		if err != nil {
			return nil, nil, err
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = input.Description
	}
	if input.Emoji != nil {
		task.Emoji = input.Emoji
	}
	if input.Recurrence != nil {
		task.Recurrence = *input.Recurrence
	}
	if input.Visibility != nil {
		task.Visibility = *input.Visibility
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	assignees := assigneeMembers(*task)
	var assigneeIDs *[]string
	if input.AssigneeIDs != nil {
		assignees, err = resolveMembers(s.memberRepo, actor.HouseholdID(), *input.AssigneeIDs)
		if err != nil {
			return nil, nil, err
		}
		ids := memberIDs(assignees)
		assigneeIDs = &ids
	}

	if err := s.taskRepo.Update(task, assigneeIDs); err != nil {
		return nil, nil, fmt.Errorf("failed to update task: %w", err)
	}

	var events []notify.Event
	if dueDateChanged(oldDue, task.DueDate) {
		events = append(events, notify.Event{
			Kind:        models.NotificationTaskUpdated,
			HouseholdID: actor.HouseholdID(),
			Recipients:  notify.Recipients(assignees, actor.UserID),
			ResourceID:  task.ID,
			ActorName:   actor.Name,
			Subject:     task.Title,
			OldTime:     oldDue,
			NewTime:     task.DueDate,
		})
	}

	return task, events, nil
}

// DeleteTask soft deletes a task
func (s *TaskService) DeleteTask(actor Actor, taskID string) error {
	task, err := s.findVisibleTask(actor, taskID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// ToggleTask flips a task between TODO and DONE starting from the status the
// caller saw. Completing a recurring task rolls its due date forward instead.
// Everyone else with an account hears about tasks that end up DONE.
func (s *TaskService) ToggleTask(actor Actor, taskID string, current models.TaskStatus) (*models.Task, []notify.Event, error) {
	task, err := s.findVisibleTask(actor, taskID)
	if err != nil {
		return nil, nil, err
	}
	if current == "" {
		current = task.Status
	}

	transition, err := recurrence.Toggle(*task, current, actor.Member.ID, s.now())
	if err != nil {
		return nil, nil, err
	}
	transition.Apply(task)

	if err := s.taskRepo.Update(task, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to toggle status: %w", err)
	}

	result := "reopened"
	switch {
	case transition.RolledOver:
		result = "rolled_over"
	case transition.Completed:
		result = "done"
	}
	if s.metrics != nil {
		s.metrics.TaskToggles.WithLabelValues(result).Inc()
	}
	s.log.WithFields(logrus.Fields{
		"task_id": task.ID,
		"result":  result,
	}).Debug("task toggled")

	if !transition.FinalDone() {
		return task, nil, nil
	}

	members, err := s.memberRepo.ListByHousehold(actor.HouseholdID())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list members: %w", err)
	}
	events := []notify.Event{{
		Kind:        models.NotificationTaskCompleted,
		HouseholdID: actor.HouseholdID(),
		Recipients:  notify.Recipients(members, actor.UserID),
		ResourceID:  task.ID,
		ActorName:   actor.Name,
		Subject:     task.Title,
	}}

	return task, events, nil
}

// GenerateTasks uses AI to suggest household tasks from free text. Nothing is stored.
func (s *TaskService) GenerateTasks(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, ErrAITooManyTasks
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		if strings.TrimSpace(aiTask.Title) == "" {
			continue
		}
		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}
		rec, err := models.ParseRecurrence(aiTask.Recurrence)
		if err != nil {
			rec = models.RecurrenceNone
		}
		aiTask.Recurrence = string(rec)

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

func (s *TaskService) findVisibleTask(actor Actor, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Assignees.Member")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if task.HouseholdID != actor.HouseholdID() {
		return nil, ErrTaskNotFound
	}
	if task.Visibility == models.VisibilityParticipants && !actor.IsAdmin() && !slices.Contains(task.AssigneeMemberIDs(), actor.Member.ID) {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func assigneeMembers(task models.Task) []models.Member {
	members := make([]models.Member, 0, len(task.Assignees))
	for _, a := range task.Assignees {
		members = append(members, a.Member)
	}
	return members
}

func dueDateChanged(before, after *time.Time) bool {
	switch {
	case before == nil && after == nil:
		return false
	case before == nil || after == nil:
		return true
	}
	return !before.Equal(*after)
}
