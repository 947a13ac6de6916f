package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/runcoach/internal/audit"
	"github.com/vcscsvcscs/runcoach/internal/azure"
	"github.com/vcscsvcscs/runcoach/internal/config"
	"github.com/vcscsvcscs/runcoach/internal/handler"
	"github.com/vcscsvcscs/runcoach/internal/middleware"
	"github.com/vcscsvcscs/runcoach/internal/pdf"
	"github.com/vcscsvcscs/runcoach/internal/security"
	"github.com/vcscsvcscs/runcoach/internal/service"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger, err := config.NewLogger(cfg.Server, cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	ctx := context.Background()

	// Storage backends
	deps, err := openDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer deps.Close()

	var encryptor *security.Encryptor
	if cfg.Storage.EncryptionKey != "" {
		key, err := security.ParseKey(cfg.Storage.EncryptionKey)
		if err != nil {
			logger.Fatal("Invalid encryption key", zap.Error(err))
		}
		encryptor, err = security.NewEncryptor(key)
		if err != nil {
			logger.Fatal("Failed to initialize encryptor", zap.Error(err))
		}
		logger.Info("State encryption enabled")
	}

	// Initialize the generation service client
	openAIClient, err := azure.NewOpenAIClient(azure.OpenAIConfig{
		Provider:    cfg.AI.Provider,
		Endpoint:    cfg.AI.Endpoint,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		APIVersion:  cfg.AI.APIVersion,
		Temperature: cfg.AI.Temperature,
		MaxRetries:  cfg.AI.MaxRetries,
		BaseDelay:   cfg.AI.BaseDelay,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize OpenAI client", zap.Error(err))
	}
	generator := service.NewAIPlanGenerator(openAIClient, cfg.AI.PlanWeeks, logger)

	// Initialize services
	auditLogger := audit.NewLogger(deps.auditSink, logger)
	stateService := service.NewStateService(deps.store, encryptor, logger)
	planService := service.NewPlanService(generator, stateService, auditLogger, logger)
	planService.Restore(ctx)

	chatService := service.NewChatService(generator, logger)
	progressService := service.NewProgressService(planService, logger)
	dataService := service.NewDataService(planService, chatService, auditLogger, logger)

	var archive azure.BlobStorage
	if cfg.Storage.Blob.ArchiveReports {
		archive = deps.blobs
	}
	reportService := service.NewReportService(planService, pdf.NewPlanPDFGenerator(logger), archive, auditLogger, logger)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	r := gin.New()

	// Add recovery middleware (must be first)
	r.Use(middleware.RecoveryMiddleware(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID", "X-Archive-Path"},
		AllowCredentials: !containsWildcard(cfg.Server.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLoggingMiddleware(logger))
	r.Use(middleware.ErrorLoggingMiddleware(logger))

	handler.RegisterRoutes(r, handler.Handlers{
		Plan:   handler.NewPlanHandler(planService, progressService, logger),
		Chat:   handler.NewChatHandler(chatService, logger),
		Data:   handler.NewDataHandler(dataService, reportService, logger),
		Health: handler.NewHealthHandler(deps.healthChecks, logger),
	})

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
