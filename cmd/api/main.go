package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dressguard/dressguard/internal/api"
	"github.com/dressguard/dressguard/internal/api/handler"
	"github.com/dressguard/dressguard/internal/audit"
	"github.com/dressguard/dressguard/internal/compliance"
	"github.com/dressguard/dressguard/internal/config"
	"github.com/dressguard/dressguard/internal/database"
	"github.com/dressguard/dressguard/internal/face"
	"github.com/dressguard/dressguard/internal/repository"
	"github.com/dressguard/dressguard/internal/violation"
	"github.com/dressguard/dressguard/internal/webhook"
	"github.com/dressguard/dressguard/internal/ws"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting DressGuard API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("detection_provider", cfg.DetectionProvider),
		slog.String("face_provider", cfg.FaceProvider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := face.NewProviders(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create providers: %w", err)
	}

	rules := compliance.NewManager(cfg.ComplianceConfigFile, logger)

	checks := make(map[string]handler.ReadinessCheck)
	if providers.Inference != nil {
		checks["inference"] = providers.Inference.Health
	}

	hub := ws.NewHub(logger)
	sinks := []violation.Sink{hub}

	// History is optional; without DATABASE_URL the API answers 503 on /violations/history
	var history handler.HistoryReader
	if cfg.HistoryEnabled() {
		if cfg.AutoMigrate {
			if err := database.ApplyPending(ctx, cfg.DatabaseURL, cfg.DatabaseName, logger); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
		}

		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		repo := repository.NewViolationRepository(pool)
		history = repo
		sinks = append(sinks, repo)
		checks["database"] = func(ctx context.Context) error {
			return database.HealthCheck(ctx, pool)
		}
		logger.Info("violation history enabled")
	}

	// Background delivery (websocket hub, webhook) outlives the signal context
	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	var notifier *webhook.Notifier
	if cfg.WebhookURL != "" {
		notifierCfg := webhook.DefaultConfig(cfg.WebhookURL)
		notifierCfg.Secret = cfg.WebhookSecret
		notifier, err = webhook.NewNotifier(notifierCfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create webhook notifier: %w", err)
		}
		go notifier.Run(bgCtx)
		sinks = append(sinks, notifier)
	}

	violations, err := violation.New(violation.Config{
		Folder:            cfg.LogFolder,
		Enabled:           cfg.LoggingEnabled,
		Cooldown:          time.Duration(cfg.CooldownSeconds) * time.Second,
		MinFaceConfidence: cfg.MinFaceConfidence,
		MaxPending:        cfg.MaxPending,
		Workers:           cfg.Workers,
		JPEGQuality:       cfg.JPEGQuality,
	}, logger,
		violation.WithAudit(audit.NewSlogLogger(logger)),
		violation.WithSinks(sinks...),
	)
	if err != nil {
		return fmt.Errorf("failed to create violation logger: %w", err)
	}

	go hub.Run(bgCtx)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Version:    version,
		Detector:   providers.Detector,
		Identifier: providers.Identifier,
		Compliance: rules,
		Violations: violations,
		History:    history,
		Hub:        hub,
		Webhook:    notifier,
		Checks:     checks,
		RateLimit:  cfg.RateLimit,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		serveErr = fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	// Queued evidence writes get whatever time is left
	violations.Disable()
	if err := violations.Close(shutdownCtx); err != nil {
		logger.Warn("violation logger did not drain", slog.Any("error", err))
	}
	cancelBackground()

	logger.Info("server stopped")
	return serveErr
}
