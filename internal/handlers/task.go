package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/shared-calendar-api/internal/dto"
	apierrors "github.com/yukikurage/shared-calendar-api/internal/errors"
	"github.com/yukikurage/shared-calendar-api/internal/middleware"
	"github.com/yukikurage/shared-calendar-api/internal/models"
	"github.com/yukikurage/shared-calendar-api/internal/services"
	"github.com/yukikurage/shared-calendar-api/internal/views"
)

// TaskHandler coordinates task-related HTTP handlers.
type TaskHandler struct {
	taskService    *services.TaskService
	suggestService *services.SuggestService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService, suggestService *services.SuggestService) *TaskHandler {
	return &TaskHandler{
		taskService:    taskService,
		suggestService: suggestService,
	}
}

// ListTasks returns all tasks of a calendar.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	calendar := c.MustGet("calendar").(models.Calendar)

	tasks, err := h.taskService.ListTasks(calendar.ID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskListResponse{Tasks: dto.ToTaskDTOs(tasks)})
}

// DayView returns one day's tasks in display order with per-creator
// colors. The date query parameter defaults to today.
func (h *TaskHandler) DayView(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	calendar := c.MustGet("calendar").(models.Calendar)

	day := time.Now()
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			apierrors.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	tasks, err := h.taskService.ListTasks(calendar.ID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	dayTasks := views.DayTasks(tasks, day)
	colors := views.CreatorColors(dayTasks)

	c.JSON(http.StatusOK, dto.ToDayViewResponse(day, dayTasks, colors))
}

// CreateTask creates a task in the calendar.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	calendar := c.MustGet("calendar").(models.Calendar)

	type CreateTaskRequest struct {
		Title        string          `json:"title" binding:"required"`
		Date         string          `json:"date"`
		Priority     models.Priority `json:"priority"`
		ReminderTime *string         `json:"reminder_time"`
		ReminderDate *string         `json:"reminder_date"`
		ReminderDay  *int            `json:"reminder_day"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			apierrors.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	var reminderDate *time.Time
	if req.ReminderDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.ReminderDate)
		if err != nil {
			apierrors.BadRequest(c, "Invalid reminder date, expected YYYY-MM-DD")
			return
		}
		reminderDate = &parsed
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		CalendarID:   calendar.ID,
		CreatorID:    userID,
		Title:        req.Title,
		Date:         date,
		Priority:     req.Priority,
		ReminderTime: req.ReminderTime,
		ReminderDate: reminderDate,
		ReminderDay:  req.ReminderDay,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// ToggleCompleted flips a task's completion state.
func (h *TaskHandler) ToggleCompleted(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.ToggleCompleted(taskID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask patches task fields.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title              *string          `json:"title"`
		Priority           *models.Priority `json:"priority"`
		ReminderTime       *string          `json:"reminder_time"`
		ClearReminderTime  bool             `json:"clear_reminder_time"`
		ReminderDate       *string          `json:"reminder_date"`
		ClearReminderDate  bool             `json:"clear_reminder_date"`
		IsMonthlyRecurring *bool            `json:"is_monthly_recurring"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var reminderDate *time.Time
	if req.ReminderDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.ReminderDate)
		if err != nil {
			apierrors.BadRequest(c, "Invalid reminder date, expected YYYY-MM-DD")
			return
		}
		reminderDate = &parsed
	}

	task, err := h.taskService.UpdateTask(taskID, userID, services.UpdateTaskInput{
		Title:              req.Title,
		Priority:           req.Priority,
		ReminderTime:       req.ReminderTime,
		ClearReminderTime:  req.ClearReminderTime,
		ReminderDate:       reminderDate,
		ClearReminderDate:  req.ClearReminderDate,
		IsMonthlyRecurring: req.IsMonthlyRecurring,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task. Only the creator may delete.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(taskID, userID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// ReorderTasks persists a day's display order for the caller's rows.
func (h *TaskHandler) ReorderTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	calendar := c.MustGet("calendar").(models.Calendar)

	type ReorderRequest struct {
		TaskIDs []uint64 `json:"task_ids" binding:"required"`
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	persisted, err := h.taskService.ReorderTasks(services.ReorderInput{
		CalendarID: calendar.ID,
		ActorID:    userID,
		TaskIDs:    req.TaskIDs,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"persisted": persisted})
}

// ListReminders returns the caller's reminder-carrying incomplete tasks
// across all their calendars.
func (h *TaskHandler) ListReminders(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	tasks, err := h.taskService.ListReminders(userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskListResponse{Tasks: dto.ToTaskDTOs(tasks)})
}

// SuggestTasks extracts task candidates from free-form text.
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	type SuggestRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	suggestions, err := h.suggestService.SuggestTasksFromText(c.Request.Context(), req.Text)
	if err != nil {
		if errors.Is(err, services.ErrAIServiceNotConfigured) {
			apierrors.ServiceUnavailable(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to generate suggestions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// parseIDParam parses a numeric URL parameter, responding 400 on failure.
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid ID")
		return 0, false
	}
	return id, true
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleEmpty),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidReminderTime),
		errors.Is(err, services.ErrInvalidReminderDay),
		errors.Is(err, services.ErrTaskCalendarMismatch):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotTaskCreator),
		errors.Is(err, services.ErrNotCalendarMember):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
