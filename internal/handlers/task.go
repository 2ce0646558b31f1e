package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ensemble/internal/dto"
	apierrors "github.com/yukikurage/ensemble/internal/errors"
	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/recurrence"
	"github.com/yukikurage/ensemble/internal/series"
	"github.com/yukikurage/ensemble/internal/services"
	"github.com/yukikurage/ensemble/internal/utils"
)

const generateTimeout = 30 * time.Second

type TaskHandler struct {
	taskService *services.TaskService
	dispatcher  Dispatcher
	loc         *time.Location
}

func NewTaskHandler(taskService *services.TaskService, dispatcher Dispatcher, loc *time.Location) *TaskHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskHandler{
		taskService: taskService,
		dispatcher:  dispatcher,
		loc:         loc,
	}
}

// ListTasks returns the visible tasks of the household
// Can filter by status, assignee_id and assigned_to_me
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	input := services.ListTasksInput{
		Page:     params.Page,
		PageSize: params.Limit,
	}

	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseTaskStatus(raw)
		if err != nil {
			invalidField(c, "status", err)
			return
		}
		input.Status = &status
	}
	if raw := c.Query("include_archived"); raw != "" {
		flag, err := strconv.ParseBool(raw)
		if err != nil {
			invalidField(c, "include_archived", err)
			return
		}
		input.IncludeArchived = flag
	}
	if raw := c.Query("assigned_to_me"); raw != "" {
		flag, err := strconv.ParseBool(raw)
		if err != nil {
			invalidField(c, "assigned_to_me", err)
			return
		}
		input.AssignedToMe = flag
	}
	if raw := c.Query("assignee_id"); raw != "" {
		input.AssigneeID = &raw
	}

	tasks, total, err := h.taskService.ListTasks(actor, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// GetTask returns a single task
func (h *TaskHandler) GetTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(actor, c.Param("taskId"))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": dto.ToTaskDTO(*task)})
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title       string   `json:"title"`
		Description *string  `json:"description"`
		Emoji       *string  `json:"emoji"`
		Recurrence  string   `json:"recurrence"`
		Visibility  string   `json:"visibility"`
		DueDate     string   `json:"due_date"`
		AssigneeIDs []string `json:"assignee_ids"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	rec, err := models.ParseRecurrence(req.Recurrence)
	if err != nil {
		invalidField(c, "recurrence", err)
		return
	}
	visibility, err := models.ParseVisibility(req.Visibility)
	if err != nil {
		invalidField(c, "visibility", err)
		return
	}
	var dueDate *time.Time
	if req.DueDate != "" {
		due, err := h.parseDueDate(req.DueDate)
		if err != nil {
			invalidField(c, "due_date", err)
			return
		}
		dueDate = &due
	}

	task, events, err := h.taskService.CreateTask(actor, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Emoji:       req.Emoji,
		Recurrence:  rec,
		Visibility:  visibility,
		DueDate:     dueDate,
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}
	dispatch(h.dispatcher, events)

	success(c, http.StatusCreated, gin.H{"task": dto.ToTaskDTO(*task)})
}

// UpdateTask patches a task. A null due_date clears it.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title       *string         `json:"title"`
		Description *string         `json:"description"`
		Emoji       *string         `json:"emoji"`
		Recurrence  *string         `json:"recurrence"`
		Visibility  *string         `json:"visibility"`
		DueDate     json.RawMessage `json:"due_date"`
		AssigneeIDs *[]string       `json:"assignee_ids"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Emoji:       req.Emoji,
		AssigneeIDs: req.AssigneeIDs,
	}
	if req.Recurrence != nil {
		rec, err := models.ParseRecurrence(*req.Recurrence)
		if err != nil {
			invalidField(c, "recurrence", err)
			return
		}
		input.Recurrence = &rec
	}
	if req.Visibility != nil {
		visibility, err := models.ParseVisibility(*req.Visibility)
		if err != nil {
			invalidField(c, "visibility", err)
			return
		}
		input.Visibility = &visibility
	}
	if len(req.DueDate) > 0 {
		switch raw := rawString(req.DueDate); raw {
		case "null", "":
			input.ClearDueDate = true
		default:
			due, err := h.parseDueDate(raw)
			if err != nil {
				invalidField(c, "due_date", err)
				return
			}
			input.DueDate = &due
		}
	}

	task, events, err := h.taskService.UpdateTask(actor, c.Param("taskId"), input)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	dispatch(h.dispatcher, events)

	success(c, http.StatusOK, gin.H{"task": dto.ToTaskDTO(*task)})
}

// DeleteTask soft-deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(actor, c.Param("taskId")); err != nil {
		respondTaskError(c, err)
		return
	}

	noContentSuccess(c)
}

// ToggleTask flips a task between TODO and DONE. The optional current_status
// is the status the client displayed; without it the stored status is used.
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	type ToggleTaskRequest struct {
		CurrentStatus string `json:"current_status"`
	}

	var req ToggleTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}
	}

	var current models.TaskStatus
	if req.CurrentStatus != "" {
		status, err := models.ParseTaskStatus(req.CurrentStatus)
		if err != nil {
			invalidField(c, "current_status", err)
			return
		}
		current = status
	}

	task, events, err := h.taskService.ToggleTask(actor, c.Param("taskId"), current)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	dispatch(h.dispatcher, events)

	success(c, http.StatusOK, gin.H{"task": dto.ToTaskDTO(*task)})
}

// GenerateTasks suggests tasks from free text using AI. Nothing is stored.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	if _, ok := actorOrAbort(c); !ok {
		return
	}

	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), generateTimeout)
	defer cancel()

	tasks, err := h.taskService.GenerateTasks(ctx, req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	success(c, http.StatusOK, gin.H{"tasks": tasks})
}

// parseDueDate accepts an RFC 3339 timestamp or a bare date in the household timezone.
func (h *TaskHandler) parseDueDate(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	day, err := series.ParseDate(raw, h.loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.UTC(), nil
}

func respondTaskError(c *gin.Context, err error) {
	if respondValidationError(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, recurrence.ErrTaskArchived):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, recurrence.ErrUnknownTaskStatus),
		errors.Is(err, recurrence.ErrUnknownRecurrence):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks),
		errors.Is(err, services.ErrAITooManyTasks):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
