package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/shared-calendar-api/internal/constants"
	"github.com/yukikurage/shared-calendar-api/internal/database"
	"github.com/yukikurage/shared-calendar-api/internal/dto"
	"github.com/yukikurage/shared-calendar-api/internal/middleware"
	"github.com/yukikurage/shared-calendar-api/internal/models"
	"github.com/yukikurage/shared-calendar-api/internal/repository"
	"github.com/yukikurage/shared-calendar-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type taskHandlerTestEnv struct {
	db          *gorm.DB
	handler     *TaskHandler
	taskService *services.TaskService
	membership  *services.MembershipService
	users       repository.UserRepository
}

func setupTaskHandlerTestEnv(t *testing.T) taskHandlerTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Calendar{},
		&models.CalendarMember{},
		&models.Task{},
		&models.NotificationLog{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	notifier := services.NewNotificationService(notificationRepo, calendarRepo, nil)
	taskService := services.NewTaskService(taskRepo, calendarRepo, userRepo, notifier, nil)
	membership := services.NewMembershipService(calendarRepo, userRepo, notifier, nil)
	handler := NewTaskHandler(taskService, services.NewSuggestService(""))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return taskHandlerTestEnv{
		db:          db,
		handler:     handler,
		taskService: taskService,
		membership:  membership,
		users:       userRepo,
	}
}

func (env taskHandlerTestEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x"}
	require.NoError(t, env.users.Create(user))
	return user
}

func (env taskHandlerTestEnv) newTaskRouter(userID uint64) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, userID)
	})

	r.GET("/api/calendars/:id/tasks", middleware.RequireCalendarAccess(), env.handler.ListTasks)
	r.GET("/api/calendars/:id/tasks/day", middleware.RequireCalendarAccess(), env.handler.DayView)
	r.POST("/api/calendars/:id/tasks", middleware.RequireCalendarAccess(), env.handler.CreateTask)
	r.PUT("/api/calendars/:id/tasks/reorder", middleware.RequireCalendarAccess(), env.handler.ReorderTasks)
	r.POST("/api/tasks/:id/toggle", middleware.RequireTaskAccess(), env.handler.ToggleCompleted)
	r.PATCH("/api/tasks/:id", middleware.RequireTaskAccess(), env.handler.UpdateTask)
	r.DELETE("/api/tasks/:id", middleware.RequireTaskAccess(), env.handler.DeleteTask)
	r.GET("/api/tasks/reminders", env.handler.ListReminders)
	r.POST("/api/tasks/suggest", env.handler.SuggestTasks)

	return r
}

func TestTaskHandler_CreateTask(t *testing.T) {
	env := setupTaskHandlerTestEnv(t)
	owner := env.createUser(t, "owner")
	calendar, err := env.membership.CreateCalendar(services.CreateCalendarInput{Name: "c", OwnerID: owner.ID})
	require.NoError(t, err)

	r := env.newTaskRouter(owner.ID)
	body, err := json.Marshal(map[string]any{
		"title":    "買い物",
		"date":     "2026-08-29",
		"priority": "high",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/calendars/%d/tasks", calendar.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.TaskDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "買い物", response.Title)
	require.Equal(t, "2026-08-29", response.Date)
	require.Equal(t, models.PriorityHigh, response.Priority)
	require.Equal(t, "owner", response.CreatedByUsername)
}

func TestTaskHandler_CreateTask_BadDate(t *testing.T) {
	env := setupTaskHandlerTestEnv(t)
	owner := env.createUser(t, "owner")
	calendar, err := env.membership.CreateCalendar(services.CreateCalendarInput{Name: "c", OwnerID: owner.ID})
	require.NoError(t, err)

	r := env.newTaskRouter(owner.ID)
	body, err := json.Marshal(map[string]any{
		"title": "x",
		"date":  "29/08/2026",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/calendars/%d/tasks", calendar.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_DayView(t *testing.T) {
	env := setupTaskHandlerTestEnv(t)
	owner := env.createUser(t, "owner")
	partner := env.createUser(t, "partner")
	calendar, err := env.membership.CreateCalendar(services.CreateCalendarInput{Name: "c", OwnerID: owner.ID})
	require.NoError(t, err)
	member, err := env.membership.Invite(services.InviteInput{CalendarID: calendar.ID, InviterID: owner.ID, InviteeUsername: "partner"})
	require.NoError(t, err)
	_, err = env.membership.Approve(member.ID, partner.ID)
	require.NoError(t, err)

	day := time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC)
	_, err = env.taskService.CreateTask(services.CreateTaskInput{
		CalendarID: calendar.ID, CreatorID: owner.ID, Title: "low", Date: day, Priority: models.PriorityLow,
	})
	require.NoError(t, err)
	_, err = env.taskService.CreateTask(services.CreateTaskInput{
		CalendarID: calendar.ID, CreatorID: partner.ID, Title: "high", Date: day, Priority: models.PriorityHigh,
	})
	require.NoError(t, err)
	// A task on another day stays out of the view.
	_, err = env.taskService.CreateTask(services.CreateTaskInput{
		CalendarID: calendar.ID, CreatorID: owner.ID, Title: "tomorrow", Date: day.AddDate(0, 0, 1),
	})
	require.NoError(t, err)

	r := env.newTaskRouter(owner.ID)
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/calendars/%d/tasks/day?date=2026-08-29", calendar.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.DayViewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "2026-08-29", response.Date)
	require.Len(t, response.Tasks, 2)
	require.Equal(t, "high", response.Tasks[0].Title)
	require.Equal(t, "low", response.Tasks[1].Title)
	// Two creators on the day: each gets a color.
	require.Len(t, response.Colors, 2)
}

func TestTaskHandler_ToggleAndDelete(t *testing.T) {
	env := setupTaskHandlerTestEnv(t)
	owner := env.createUser(t, "owner")
	calendar, err := env.membership.CreateCalendar(services.CreateCalendarInput{Name: "c", OwnerID: owner.ID})
	require.NoError(t, err)

	task, err := env.taskService.CreateTask(services.CreateTaskInput{
		CalendarID: calendar.ID, CreatorID: owner.ID, Title: "x", Date: time.Now(),
	})
	require.NoError(t, err)

	r := env.newTaskRouter(owner.ID)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/tasks/%d/toggle", task.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var toggled dto.TaskDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggled))
	require.True(t, toggled.Completed)

	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Deleted task is gone for follow-up requests.
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/tasks/%d/toggle", task.ID), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_Reorder(t *testing.T) {
	env := setupTaskHandlerTestEnv(t)
	owner := env.createUser(t, "owner")
	calendar, err := env.membership.CreateCalendar(services.CreateCalendarInput{Name: "c", OwnerID: owner.ID})
	require.NoError(t, err)

	day := time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC)
	first, err := env.taskService.CreateTask(services.CreateTaskInput{CalendarID: calendar.ID, CreatorID: owner.ID, Title: "a", Date: day})
	require.NoError(t, err)
	second, err := env.taskService.CreateTask(services.CreateTaskInput{CalendarID: calendar.ID, CreatorID: owner.ID, Title: "b", Date: day})
	require.NoError(t, err)

	r := env.newTaskRouter(owner.ID)
	body, err := json.Marshal(map[string]any{"task_ids": []uint64{second.ID, first.ID}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/calendars/%d/tasks/reorder", calendar.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Persisted int `json:"persisted"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, 2, response.Persisted)

	var got models.Task
	require.NoError(t, env.db.First(&got, second.ID).Error)
	require.Equal(t, 0, got.Position)
	got = models.Task{}
	require.NoError(t, env.db.First(&got, first.ID).Error)
	require.Equal(t, 1, got.Position)
}

func TestTaskHandler_Suggest_NotConfigured(t *testing.T) {
	env := setupTaskHandlerTestEnv(t)
	owner := env.createUser(t, "owner")

	r := env.newTaskRouter(owner.ID)
	body, err := json.Marshal(map[string]string{"text": "明日牛乳を買う"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/suggest", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
