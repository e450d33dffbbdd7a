package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mfauzirahman/rawatoko/internal"
	"github.com/mfauzirahman/rawatoko/internal/auth"
	"github.com/mfauzirahman/rawatoko/internal/domain"
	"github.com/mfauzirahman/rawatoko/internal/email"
	"github.com/mfauzirahman/rawatoko/internal/engine"
	"github.com/mfauzirahman/rawatoko/internal/export"
	"github.com/mfauzirahman/rawatoko/internal/handler"
	"github.com/mfauzirahman/rawatoko/internal/metrics"
	"github.com/mfauzirahman/rawatoko/internal/middleware"
	"github.com/mfauzirahman/rawatoko/internal/repository"
	"github.com/mfauzirahman/rawatoko/internal/service"
	"github.com/mfauzirahman/rawatoko/internal/storage"
)

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize repositories. Without DATABASE_URL the service runs on
	// in-memory storage seeded from SEED_STORES.
	var (
		reports repository.ReportRepository
		stores  repository.StoreRepository
	)
	if cfg.DatabaseUrl != "" {
		// goose migrations run over database/sql; queries run over pgxpool
		db, err := sql.Open("pgx", cfg.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		if err := internal.RunMigrations(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("connection pool failed: %w", err)
		}
		defer pool.Close()

		reports = repository.NewPostgresReportRepository(pool)
		stores = repository.NewPostgresStoreRepository(pool)
		logger.Info("Database ready")
	} else {
		seeded := make([]domain.Store, 0, len(cfg.SeedStores))
		for _, s := range cfg.SeedStores {
			seeded = append(seeded, domain.Store{ID: s.ID, Name: s.Name, Address: s.Address})
		}
		reports = repository.NewMemoryReportRepository()
		stores = repository.NewMemoryStoreRepository(seeded...)
		logger.Warn("No DATABASE_URL set, using in-memory storage", "seeded_stores", len(seeded))
	}

	// Initialize photo storage
	photos, err := newPhotoStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Photo storage ready", "provider", cfg.StorageProvider)

	// Initialize session directory from the configured token list
	sessions := auth.NewTokenSessions()
	for _, t := range cfg.ActorTokens {
		sessions.Register(t.Token, t.Actor)
	}
	logger.Info("Actor directory loaded", "actors", len(cfg.ActorTokens))

	// Workflow notices go to a shared maintenance inbox when configured
	var notifier email.Notifier = email.NewNoopNotifier()
	if cfg.NotifyEmail != "" {
		notifier = email.NewSMTPNotifier(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		}, cfg.NotifyEmail, logger)
		logger.Info("Email notices enabled", "inbox", cfg.NotifyEmail)
	}

	// Initialize services
	approvalEngine := engine.New(reports, photos)
	reportService := service.NewReportService(reports, stores, approvalEngine, notifier, logger)

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(sessions, logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	securityMw := middleware.NewSecurityHeadersMiddleware(cfg.Env == "production")

	// Initialize handlers
	reportHandler := handler.NewReportHandler(reportService, stores, export.NewPDFGenerator(), logger)
	storeHandler := handler.NewStoreHandler(stores, logger)
	photoHandler := handler.NewPhotoHandler(photos, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics (basic auth when configured)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// API routes behind rate limiting and bearer authentication
	apiMiddlewares := []func(http.Handler) http.Handler{}
	if cfg.RateLimitMax > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow, logger)
		rateLimitMw := middleware.NewRateLimitMiddleware(limiter, logger)
		apiMiddlewares = append(apiMiddlewares, rateLimitMw.Limit)
	}
	apiMiddlewares = append(apiMiddlewares, authMw.WithActor, authMw.RequireActor)
	requireActor := middleware.Stack(apiMiddlewares...)
	reportHandler.RegisterRoutes(mux, requireActor)
	storeHandler.RegisterRoutes(mux, requireActor)
	photoHandler.RegisterRoutes(mux, requireActor)

	// Background refresher for the reports-by-status gauge
	go metrics.RunStatusWorker(ctx, cfg.StatusWorkerInterval, reportService.CountByStatus, logger)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: middleware.Stack(securityMw.Handler, loggingMw.Handler, metrics.Middleware)(mux),
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newPhotoStore selects the photo storage backend from configuration.
func newPhotoStore(cfg *internal.Config, logger *slog.Logger) (storage.PhotoStore, error) {
	switch cfg.StorageProvider {
	case "s3":
		return storage.NewS3PhotoStore(storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			BucketName:      cfg.S3BucketName,
			PublicURL:       cfg.S3PublicURL,
		}, logger)
	default:
		return storage.NewLocalPhotoStore(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
