package ws

import (
	"time"
)

type EventType string

const (
	EventViolationLogged EventType = "violation.logged"
	EventLoggingChanged  EventType = "logging.changed"
)

type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// ViolationLoggedData is the payload of EventViolationLogged
type ViolationLoggedData struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Identities []string  `json:"identities"`
	Items      []string  `json:"items"`
	LoggedAt   time.Time `json:"logged_at"`
}

// LoggingChangedData is the payload of EventLoggingChanged
type LoggingChangedData struct {
	Enabled         bool `json:"enabled"`
	CooldownSeconds int  `json:"cooldown_seconds"`
}
