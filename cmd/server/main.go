package main

import (
	"fmt"
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/shared-calendar-api/internal/config"
	"github.com/yukikurage/shared-calendar-api/internal/constants"
	"github.com/yukikurage/shared-calendar-api/internal/database"
	"github.com/yukikurage/shared-calendar-api/internal/handlers"
	"github.com/yukikurage/shared-calendar-api/internal/middleware"
	"github.com/yukikurage/shared-calendar-api/internal/models"
	"github.com/yukikurage/shared-calendar-api/internal/realtime"
	"github.com/yukikurage/shared-calendar-api/internal/repository"
	"github.com/yukikurage/shared-calendar-api/internal/scheduler"
	"github.com/yukikurage/shared-calendar-api/internal/services"
)

// reminderSink routes scheduler alerts into the notification log.
type reminderSink struct {
	notifications *services.NotificationService
}

func (s *reminderSink) Notify(userID uint64, title, body string) {
	if err := s.notifications.NotifyUser(userID, 0, fmt.Sprintf("%s: %s", title, body)); err != nil {
		log.Printf("failed to deliver reminder: %v", err)
	}
}

// taskSource feeds the scheduler from the task store.
type taskSource struct {
	tasks repository.TaskRepository
}

func (s *taskSource) IncompleteTasks() ([]models.Task, error) {
	return s.tasks.ListIncomplete()
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Change feed hub
	hub := realtime.NewHub()
	go hub.Run()
	defer hub.Close()

	// Services
	notificationService := services.NewNotificationService(notificationRepo, calendarRepo, hub)
	authService := services.NewAuthService(userRepo, calendarRepo, hub)
	membershipService := services.NewMembershipService(calendarRepo, userRepo, notificationService, hub)
	taskService := services.NewTaskService(taskRepo, calendarRepo, userRepo, notificationService, hub)
	suggestService := services.NewSuggestService(cfg.OpenAIAPIKey)

	// Reminder scheduler
	reminders := scheduler.New(
		&taskSource{tasks: taskRepo},
		&reminderSink{notifications: notificationService},
	)
	if err := reminders.Start(); err != nil {
		log.Fatalf("Failed to start reminder scheduler: %v", err)
	}
	defer reminders.Stop()

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   constants.SessionMaxAge,
		HttpOnly: true,
		Secure:   isProduction, // true in production (HTTPS), false in development
		SameSite: 2,            // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	calendarHandler := handlers.NewCalendarHandler(membershipService)
	taskHandler := handlers.NewTaskHandler(taskService, suggestService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	reportHandler := handlers.NewReportHandler(taskService)
	realtimeHandler := handlers.NewRealtimeHandler(hub, calendarRepo)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Shared Calendar API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
			auth.PATCH("/me", middleware.RequireAuth(), authHandler.UpdateProfile)
		}

		// Calendar routes (protected)
		calendars := api.Group("/calendars")
		calendars.Use(middleware.RequireAuth())
		{
			calendars.POST("", calendarHandler.CreateCalendar)
			calendars.GET("", calendarHandler.ListCalendars)
			calendars.GET("/:id", middleware.RequireCalendarAccess(), calendarHandler.GetCalendar)
			calendars.PUT("/:id", middleware.RequireCalendarAccess(), middleware.RequireCalendarOwner(), calendarHandler.RenameCalendar)
			calendars.GET("/:id/members", middleware.RequireCalendarAccess(), calendarHandler.ListMembers)
			calendars.POST("/:id/invite", middleware.RequireCalendarAccess(), calendarHandler.Invite)
			calendars.GET("/:id/tasks", middleware.RequireCalendarAccess(), taskHandler.ListTasks)
			calendars.GET("/:id/tasks/day", middleware.RequireCalendarAccess(), taskHandler.DayView)
			calendars.POST("/:id/tasks", middleware.RequireCalendarAccess(), taskHandler.CreateTask)
			calendars.PUT("/:id/tasks/reorder", middleware.RequireCalendarAccess(), taskHandler.ReorderTasks)
			calendars.GET("/:id/report/weekly", middleware.RequireCalendarAccess(), reportHandler.WeeklyReport)
			calendars.GET("/:id/report/weekly/transcript", middleware.RequireCalendarAccess(), reportHandler.WeeklyReportTranscript)
		}

		// Invitation routes (protected)
		invitations := api.Group("/invitations")
		invitations.Use(middleware.RequireAuth())
		{
			invitations.GET("", calendarHandler.PendingInvitations)
			invitations.POST("/:id/approve", calendarHandler.Approve)
			invitations.POST("/:id/reject", calendarHandler.Reject)
			invitations.DELETE("/:id", calendarHandler.Unshare)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("/reminders", taskHandler.ListReminders)
			tasks.POST("/suggest", taskHandler.SuggestTasks)
			tasks.POST("/:id/toggle", middleware.RequireTaskAccess(), taskHandler.ToggleCompleted)
			tasks.PATCH("/:id", middleware.RequireTaskAccess(), taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireTaskAccess(), taskHandler.DeleteTask)
		}

		// Notification routes (protected)
		notifications := api.Group("/notifications")
		notifications.Use(middleware.RequireAuth())
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
		}

		// Change feed (protected)
		api.GET("/realtime", middleware.RequireAuth(), realtimeHandler.Subscribe)
	}

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
