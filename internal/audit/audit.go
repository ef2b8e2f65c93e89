package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dressguard/dressguard/internal/domain"
)

// EventType defines the type of auditable event
type EventType string

const (
	EventViolationLogged     EventType = "VIOLATION_LOGGED"
	EventViolationSuperseded EventType = "VIOLATION_SUPERSEDED"
	EventLedgerForgotten     EventType = "LEDGER_FORGOTTEN"
)

// Event is one entry of the violation audit trail
type Event struct {
	ID         uuid.UUID           `json:"id"`
	Timestamp  time.Time           `json:"timestamp"`
	EventType  EventType           `json:"event_type"`
	Filename   string              `json:"filename,omitempty"`
	Items      []string            `json:"items,omitempty"`
	Faces      []domain.FaceResult `json:"faces,omitempty"`
	Detections []domain.Detection  `json:"detections,omitempty"`
	Identities []string            `json:"identities,omitempty"`
	Success    bool                `json:"success"`
	Error      string              `json:"error,omitempty"`
	Metadata   map[string]string   `json:"metadata,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger using slog
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	event = withDefaults(event)

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	l.logger.InfoContext(ctx, "audit_event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.String("filename", event.Filename),
		slog.Bool("success", event.Success),
		slog.String("event_data", string(eventJSON)),
	)

	return nil
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}

// MultiLogger fans an event out to several loggers and returns the first error.
type MultiLogger []Logger

func (m MultiLogger) Log(ctx context.Context, event Event) error {
	event = withDefaults(event)

	var first error
	for _, l := range m {
		if err := l.Log(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func withDefaults(event Event) Event {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return event
}
