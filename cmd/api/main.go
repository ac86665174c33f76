package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/artwin/feedback-hub/internal/api/handlers"
	"github.com/artwin/feedback-hub/internal/api/middleware/security"
	"github.com/artwin/feedback-hub/internal/assist"
	"github.com/artwin/feedback-hub/internal/cache/redis"
	"github.com/artwin/feedback-hub/internal/metrics"
	"github.com/artwin/feedback-hub/internal/notify"
	"github.com/artwin/feedback-hub/internal/sheets"
	"github.com/artwin/feedback-hub/internal/storage/sqlite"
	"github.com/artwin/feedback-hub/internal/sync"
	"github.com/artwin/feedback-hub/pkg/config"
	appLogger "github.com/artwin/feedback-hub/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Feedback Hub API Server")

	if cfg.Sentry.DSN != "" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		})
		if err != nil {
			appLogger.Warn("Failed to initialize Sentry", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	store, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer store.Close()

	err = store.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var assistant assist.Assistant = assist.Noop{}
	if cfg.AI.APIKey != "" {
		var analysisCache assist.AnalysisCache
		if cfg.Redis.Enabled {
			cache, err := redis.NewClient(
				cfg.Redis.Host,
				cfg.Redis.Port,
				cfg.Redis.Password,
				cfg.Redis.DB,
				time.Duration(cfg.Redis.TTLHours)*time.Hour,
			)
			if err != nil {
				appLogger.Warn("Redis unavailable, analysis caching disabled", zap.Error(err))
			} else {
				analysisCache = cache
			}
		}
		assistant = assist.NewGateway(
			cfg.AI.APIKey,
			cfg.AI.Model,
			cfg.AI.Temperature,
			cfg.AI.MaxTokens,
			analysisCache,
			redis.Key,
		)
	} else {
		appLogger.Warn("AI API key not set, assist features run in fallback mode")
	}

	orchestrator := sync.NewOrchestrator(store, sheets.NewClient(), notify.NewDispatcher())

	metrics.Init()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Sentry.Environment == "development",
	}))
	app.Use(metrics.Middleware())

	feedbackHandler := handlers.NewFeedbackHandler(orchestrator, assistant)
	adminHandler := handlers.NewAdminHandler(orchestrator, assistant)
	configHandler := handlers.NewConfigHandler(store)
	exportHandler := handlers.NewExportHandler(orchestrator)

	api := app.Group("/api/v1")

	api.Post("/feedback", feedbackHandler.SubmitFeedback)
	api.Post("/assist/classify", feedbackHandler.ClassifyMessage)

	api.Get("/departments/:dept/feedback", adminHandler.ListFeedback)
	api.Patch("/departments/:dept/feedback/:id/status", adminHandler.UpdateStatus)
	api.Post("/departments/:dept/feedback/:id/comments", adminHandler.AddComment)
	api.Post("/departments/:dept/feedback/:id/analyze", adminHandler.AnalyzeFeedback)
	api.Post("/departments/:dept/feedback/:id/draft", adminHandler.DraftReply)
	api.Post("/departments/:dept/report", adminHandler.GenerateReport)

	api.Get("/departments/:dept/sheet-config", configHandler.GetSheetConfig)
	api.Put("/departments/:dept/sheet-config", configHandler.SaveSheetConfig)
	api.Delete("/departments/:dept/sheet-config", configHandler.DeleteSheetConfig)
	api.Get("/telegram-config", configHandler.GetTelegramConfig)
	api.Put("/telegram-config", configHandler.SaveTelegramConfig)

	api.Get("/export/csv", exportHandler.ExportCSV)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
