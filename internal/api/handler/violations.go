package handler

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dressguard/dressguard/internal/domain"
	"github.com/dressguard/dressguard/internal/ledger"
	"github.com/dressguard/dressguard/internal/violation"
	"github.com/dressguard/dressguard/internal/webhook"
	"github.com/dressguard/dressguard/internal/ws"
)

const (
	minCooldownSeconds = 1
	maxCooldownSeconds = 300
	dateLayout         = "2006-01-02"
)

// ViolationController is the runtime control surface of the violation logger
type ViolationController interface {
	Enable()
	Disable()
	Toggle() bool
	Enabled() bool
	SetCooldown(seconds int)
	Stats() violation.Stats
	Snapshot() []ledger.Record
}

// HistoryReader reads the optional violation history store
type HistoryReader interface {
	ListByDate(ctx context.Context, date time.Time) ([]domain.ViolationRecord, error)
	CountByIdentity(ctx context.Context, date time.Time) (map[string]int, error)
}

// DeliveryReporter exposes outbound notification counters
type DeliveryReporter interface {
	Stats() webhook.Stats
}

// EventBroadcaster publishes state changes to live clients
type EventBroadcaster interface {
	Broadcast(eventType ws.EventType, data interface{}) bool
}

type ViolationHandler struct {
	violations ViolationController
	history    HistoryReader
	events     EventBroadcaster
	deliveries DeliveryReporter
	logger     *slog.Logger
	now        func() time.Time
}

// NewViolationHandler creates the handler; history and events may be nil
func NewViolationHandler(violations ViolationController, history HistoryReader, events EventBroadcaster, logger *slog.Logger) *ViolationHandler {
	return &ViolationHandler{
		violations: violations,
		history:    history,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// WithDeliveries adds webhook counters to the stats response
func (h *ViolationHandler) WithDeliveries(d DeliveryReporter) *ViolationHandler {
	h.deliveries = d
	return h
}

// StatsResponse response for the stats endpoint; Webhook is omitted when no
// notifier is configured
type StatsResponse struct {
	violation.Stats
	Webhook *webhook.Stats `json:"webhook,omitempty"`
}

// LoggingStateResponse response for enable, disable and toggle
type LoggingStateResponse struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}

// CooldownRequest request body for the cooldown endpoint
type CooldownRequest struct {
	Seconds int `json:"seconds"`
}

// CooldownResponse response for the cooldown endpoint
type CooldownResponse struct {
	CooldownSeconds int `json:"cooldown_seconds"`
}

// TodayEntry is one ledger row as exposed to clients
type TodayEntry struct {
	Identity string   `json:"identity"`
	Items    []string `json:"items"`
	Filename string   `json:"filename"`
}

// TodayResponse response for the today endpoint
type TodayResponse struct {
	Date    string       `json:"date"`
	Count   int          `json:"count"`
	Entries []TodayEntry `json:"entries"`
}

// HistoryResponse response for the history endpoint
type HistoryResponse struct {
	Date        string                   `json:"date"`
	Count       int                      `json:"count"`
	Violations  []domain.ViolationRecord `json:"violations"`
	PerIdentity map[string]int           `json:"per_identity"`
}

// Stats GET /violations/stats
func (h *ViolationHandler) Stats(c *fiber.Ctx) error {
	resp := StatsResponse{Stats: h.violations.Stats()}
	if h.deliveries != nil {
		deliveries := h.deliveries.Stats()
		resp.Webhook = &deliveries
	}
	return c.JSON(resp)
}

// Enable POST /violations/enable
func (h *ViolationHandler) Enable(c *fiber.Ctx) error {
	h.violations.Enable()
	return h.loggingState(c, "Violation logging enabled")
}

// Disable POST /violations/disable
func (h *ViolationHandler) Disable(c *fiber.Ctx) error {
	h.violations.Disable()
	return h.loggingState(c, "Violation logging disabled")
}

// Toggle POST /violations/toggle
func (h *ViolationHandler) Toggle(c *fiber.Ctx) error {
	if h.violations.Toggle() {
		return h.loggingState(c, "Violation logging enabled")
	}
	return h.loggingState(c, "Violation logging disabled")
}

func (h *ViolationHandler) loggingState(c *fiber.Ctx, message string) error {
	enabled := h.violations.Enabled()
	h.publishState()
	return c.JSON(LoggingStateResponse{Enabled: enabled, Message: message})
}

func (h *ViolationHandler) publishState() {
	if h.events == nil {
		return
	}
	stats := h.violations.Stats()
	h.events.Broadcast(ws.EventLoggingChanged, ws.LoggingChangedData{
		Enabled:         stats.LoggingEnabled,
		CooldownSeconds: stats.CooldownSeconds,
	})
}

// SetCooldown PUT /violations/cooldown
func (h *ViolationHandler) SetCooldown(c *fiber.Ctx) error {
	var req CooldownRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	if req.Seconds < minCooldownSeconds || req.Seconds > maxCooldownSeconds {
		return domain.ErrInvalidCooldown
	}

	h.violations.SetCooldown(req.Seconds)
	h.publishState()

	return c.JSON(CooldownResponse{CooldownSeconds: req.Seconds})
}

// Today GET /violations/today - identities already logged today
func (h *ViolationHandler) Today(c *fiber.Ctx) error {
	records := h.violations.Snapshot()

	entries := make([]TodayEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, TodayEntry{
			Identity: r.Identity,
			Items:    r.Items,
			Filename: filepath.Base(r.Filepath),
		})
	}

	return c.JSON(TodayResponse{
		Date:    h.now().Format(dateLayout),
		Count:   len(entries),
		Entries: entries,
	})
}

// History GET /violations/history?date=YYYY-MM-DD
func (h *ViolationHandler) History(c *fiber.Ctx) error {
	if h.history == nil {
		return domain.ErrHistoryDisabled
	}

	date := h.now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			return domain.ErrValidationFailed.WithError(err)
		}
		date = parsed
	}

	ctx := c.Context()
	records, err := h.history.ListByDate(ctx, date)
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}
	counts, err := h.history.CountByIdentity(ctx, date)
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}

	return c.JSON(HistoryResponse{
		Date:        date.Format(dateLayout),
		Count:       len(records),
		Violations:  records,
		PerIdentity: counts,
	})
}
