package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/ensemble/internal/config"
	"github.com/yukikurage/ensemble/internal/constants"
	"github.com/yukikurage/ensemble/internal/database"
	"github.com/yukikurage/ensemble/internal/handlers"
	"github.com/yukikurage/ensemble/internal/metrics"
	"github.com/yukikurage/ensemble/internal/middleware"
	"github.com/yukikurage/ensemble/internal/notify"
	"github.com/yukikurage/ensemble/internal/repository"
	"github.com/yukikurage/ensemble/internal/services"
	"github.com/yukikurage/ensemble/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid timezone: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(db, log); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	m := metrics.New()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	householdRepo := repository.NewHouseholdRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	eventRepo := repository.NewEventRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Notifications go to the database and, when configured, to NATS
	var publisher notify.Publisher
	if cfg.NATSURL != "" {
		conn, err := notify.ConnectNATS(cfg.NATSURL, log)
		if err != nil {
			log.WithError(err).Warn("NATS unavailable, notifications are stored only")
		} else {
			publisher = conn
			defer conn.Drain()
		}
	}
	dispatcher := notify.NewDispatcher(notificationRepo, publisher, m, log, loc)

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	authService := services.NewAuthService(userRepo)
	householdService := services.NewHouseholdService(householdRepo, memberRepo, log)
	memberService := services.NewMemberService(memberRepo, log)
	eventService := services.NewEventService(eventRepo, memberRepo, m, log, loc, cfg.DateParsing == config.DateParsingStrict)
	taskService := services.NewTaskService(taskRepo, memberRepo, aiService, m, log)
	notificationService := services.NewNotificationService(notificationRepo)
	calendarService := services.NewCalendarService(eventRepo, taskRepo, loc)

	archiver := services.NewArchiver(taskRepo, cfg.ArchiveAfter, m, log)
	if err := archiver.Start(cfg.ArchiveCron); err != nil {
		log.Fatalf("Failed to start archiver: %v", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	householdHandler := handlers.NewHouseholdHandler(householdService, dispatcher)
	memberHandler := handlers.NewMemberHandler(memberService, dispatcher)
	eventHandler := handlers.NewEventHandler(eventService, dispatcher, loc)
	taskHandler := handlers.NewTaskHandler(taskService, dispatcher, loc)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	calendarHandler := handlers.NewCalendarHandler(calendarService, householdService)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(log), m.Middleware())

	store, err := newSessionStore(cfg)
	if err != nil {
		log.Fatalf("Failed to create session store: %v", err)
	}
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Ensemble API is running",
		})
	})
	r.GET("/metrics", m.Handler())

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Notification routes (protected)
		notifications := api.Group("/notifications")
		notifications.Use(middleware.RequireAuth())
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
			notifications.POST("/:notificationId/read", notificationHandler.MarkRead)
		}

		// Household routes (protected)
		households := api.Group("/households")
		households.Use(middleware.RequireAuth())
		{
			households.POST("", householdHandler.CreateHousehold)
			households.GET("", householdHandler.ListHouseholds)
			households.POST("/join", householdHandler.JoinHousehold)
		}

		household := households.Group("/:householdId")
		household.Use(middleware.RequireHouseholdMember(householdService))
		{
			household.GET("", householdHandler.GetHousehold)
			household.GET("/calendar.ics", calendarHandler.ExportCalendar)

			admin := household.Group("")
			admin.Use(middleware.RequireHouseholdAdmin())
			{
				admin.GET("/requests", householdHandler.ListJoinRequests)
				admin.POST("/requests/:requestId/approve", householdHandler.ApproveJoinRequest)
				admin.POST("/requests/:requestId/reject", householdHandler.RejectJoinRequest)
				admin.POST("/invite-code", householdHandler.RegenerateInviteCode)
			}

			household.GET("/members", memberHandler.ListMembers)
			household.POST("/members", memberHandler.AddMember)
			household.PATCH("/members/:memberId", memberHandler.UpdateMember)
			household.DELETE("/members/:memberId", memberHandler.DeleteMember)

			household.GET("/events", eventHandler.ListEvents)
			household.POST("/events", eventHandler.CreateEvent)
			household.GET("/events/:eventId", eventHandler.GetEvent)
			household.PATCH("/events/:eventId", eventHandler.UpdateEvent)
			household.DELETE("/events/:eventId", eventHandler.DeleteEvent)

			household.GET("/tasks", taskHandler.ListTasks)
			household.POST("/tasks", taskHandler.CreateTask)
			household.POST("/tasks/generate", taskHandler.GenerateTasks)
			household.GET("/tasks/:taskId", taskHandler.GetTask)
			household.PATCH("/tasks/:taskId", taskHandler.UpdateTask)
			household.DELETE("/tasks/:taskId", taskHandler.DeleteTask)
			household.POST("/tasks/:taskId/toggle", taskHandler.ToggleTask)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	archiver.Stop(ctx)

	log.Info("Server exited")
}

// newSessionStore picks the cookie store or Redis depending on SESSION_STORE
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case "redis":
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		rs, err := redisStore.NewStore(
			10,        // Redis pool size
			"tcp",     // network type
			redisAddr, // Redis address from config
			"",        // username (empty for default user)
			"",        // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, err
		}
		store = rs
	default:
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
