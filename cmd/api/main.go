package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "hu-tracker/docs" // This is for Swagger
	"hu-tracker/internal/auth"
	"hu-tracker/internal/config"
	"hu-tracker/internal/database"
	"hu-tracker/internal/docgen"
	"hu-tracker/internal/email"
	"hu-tracker/internal/handlers"
	"hu-tracker/internal/logger"
	"hu-tracker/internal/middleware"
	"hu-tracker/internal/repository"
	"hu-tracker/internal/scheduler"
	"hu-tracker/internal/service"
	"hu-tracker/internal/storage"
	"hu-tracker/internal/workflow"
)

// @title HU Tracker API
// @version 1.0
// @description Backend API tracking habilitation universitaire candidacies from submission to diploma

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level: cfg.Log.Level,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	ctx := context.Background()

	// Initialize database
	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	if err := db.RunMigrations(ctx, cfg.Database.MigrationsPath); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	// File storage
	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	slog.Info("Storage initialized", "driver", cfg.Storage.Driver)

	// Initialize services
	authService := auth.NewService(&cfg.JWT)
	emailService := email.NewService(&cfg.Email)
	engine := workflow.NewEngine(repository.NewStore(db.DB),
		workflow.WithMinRapporteurs(cfg.Workflow.MinRapporteurs))
	authSvc := service.NewAuthService(repository.NewUserRepository(db.DB), authService)
	auditSvc := service.NewAuditService(repository.NewAuditRepository(db.DB))
	documentSvc := service.NewDocumentService(repository.NewDocumentRepository(db.DB), blobs, cfg.Storage.MaxUploadSize)
	renderer := docgen.NewRenderer(institution(cfg.App.Institution))
	generationSvc := service.NewGenerationService(db.DB, renderer, documentSvc, emailService)

	if err := authSvc.EnsureAdmin(ctx, cfg.Admin); err != nil {
		slog.Error("Failed to bootstrap admin user", "error", err)
		os.Exit(1)
	}

	// Reminder jobs
	reminders := scheduler.NewScheduler(scheduler.NewSources(db.DB), emailService, &cfg.Scheduler, cfg.App.Institution.Faculty)
	if err := reminders.Start(); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer reminders.Stop()

	// Initialize middleware
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter, closeLimiter := newRateLimiter(&cfg.RateLimit)
	defer closeLimiter()

	// Setup router
	mux := handlers.NewRouter(handlers.Deps{
		DB:         db.DB,
		Health:     db,
		Version:    cfg.App.Version,
		Engine:     engine,
		JWT:        authService,
		Auth:       authSvc,
		Audit:      auditSvc,
		Documents:  documentSvc,
		Generation: generationSvc,
	})

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.Chain(mux,
		middleware.LoggingMiddleware,
		middleware.SecurityHeaders,
		corsMw.Handler,
		rateLimiter.Limit,
	)

	// Create server
	addr := cfg.Server.Address()
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := getContext(30 * time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
