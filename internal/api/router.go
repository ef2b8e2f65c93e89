package api

import (
	"log/slog"
	"time"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/dressguard/dressguard/internal/api/docs"
	"github.com/dressguard/dressguard/internal/api/handler"
	"github.com/dressguard/dressguard/internal/api/middleware"
	"github.com/dressguard/dressguard/internal/compliance"
	"github.com/dressguard/dressguard/internal/provider"
	"github.com/dressguard/dressguard/internal/webhook"
	"github.com/dressguard/dressguard/internal/ws"
)

// bodyLimit leaves room for multipart framing around a maximum-size image
const bodyLimit = 12 * 1024 * 1024

// ViolationService is the violation logger as seen by the HTTP layer
type ViolationService interface {
	handler.ViolationController
	handler.ViolationSaver
}

type Dependencies struct {
	Version    string
	Detector   provider.Detector
	Identifier provider.FaceIdentifier
	Compliance *compliance.Manager
	Violations ViolationService
	// History is nil when no database is configured
	History handler.HistoryReader
	Hub     *ws.Hub
	// Webhook is nil when no WEBHOOK_URL is configured
	Webhook *webhook.Notifier
	Checks  map[string]handler.ReadinessCheck
	// RateLimit caps analysis requests per client per minute; zero disables it
	RateLimit int
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "DressGuard API",
		BodyLimit:    bodyLimit,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	version := ""
	var checks map[string]handler.ReadinessCheck
	if r.deps != nil {
		version = r.deps.Version
		checks = r.deps.Checks
	}
	healthHandler := handler.NewHealthHandler(version, checks)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	// events stays a nil interface when there is no hub
	var events handler.EventBroadcaster
	if r.deps.Hub != nil {
		events = r.deps.Hub
	}

	analysisHandler := handler.NewAnalysisHandler(
		r.deps.Detector,
		r.deps.Identifier,
		r.deps.Compliance,
		r.deps.Violations,
		r.logger,
	)
	detect := []fiber.Handler{analysisHandler.Detect}
	frame := []fiber.Handler{analysisHandler.Frame}
	if r.deps.RateLimit > 0 {
		r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Max:    r.deps.RateLimit,
			Window: time.Minute,
		})
		limit := r.rateLimiter.Handler()
		detect = []fiber.Handler{limit, analysisHandler.Detect}
		frame = []fiber.Handler{limit, analysisHandler.Frame}
	}
	r.app.Post("/detect", detect...)
	r.app.Post("/frames", frame...)

	violationHandler := handler.NewViolationHandler(r.deps.Violations, r.deps.History, events, r.logger)
	if r.deps.Webhook != nil {
		violationHandler.WithDeliveries(r.deps.Webhook)
	}
	violations := r.app.Group("/violations")
	violations.Get("/stats", violationHandler.Stats)
	violations.Post("/enable", violationHandler.Enable)
	violations.Post("/disable", violationHandler.Disable)
	violations.Post("/toggle", violationHandler.Toggle)
	violations.Put("/cooldown", violationHandler.SetCooldown)
	violations.Get("/today", violationHandler.Today)
	violations.Get("/history", violationHandler.History)

	complianceHandler := handler.NewComplianceHandler(r.deps.Compliance, r.logger)
	rules := r.app.Group("/compliance")
	rules.Get("/config", complianceHandler.GetConfig)
	rules.Post("/config", complianceHandler.UpdateConfig)
	rules.Post("/add-compliant", complianceHandler.AddCompliant)
	rules.Post("/add-non-compliant", complianceHandler.AddNonCompliant)
	rules.Post("/remove-class", complianceHandler.RemoveClass)
	rules.Get("/detected-classes", complianceHandler.DetectedClasses)

	// WebSocket endpoint
	if r.deps.Hub != nil {
		r.app.Get("/ws/violations", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub))
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones. The hub and
// violation logger are owned by the caller.
func (r *Router) Shutdown() error {
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}
	return r.app.Shutdown()
}
