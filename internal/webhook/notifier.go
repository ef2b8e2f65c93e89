// Package webhook pushes persisted violations to an external HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/dressguard/dressguard/internal/domain"
)

const (
	EventViolationLogged = "violation.logged"

	SignatureHeader = "X-DressGuard-Signature"
	EventHeader     = "X-DressGuard-Event"
)

var ErrQueueFull = errors.New("webhook queue full")

type Config struct {
	URL         string
	Secret      string
	Timeout     time.Duration
	MaxAttempts int
	QueueSize   int
}

func DefaultConfig(url string) Config {
	return Config{
		URL:         url,
		Timeout:     10 * time.Second,
		MaxAttempts: 3,
		QueueSize:   64,
	}
}

// Event is the JSON body of every delivery
type Event struct {
	Type      string                 `json:"type"`
	Data      domain.ViolationRecord `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// StatusError is a delivery answered with a non-2xx status
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

type Stats struct {
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}

type job struct {
	eventType string
	payload   []byte
}

// Notifier is a violation sink. Record only enqueues; Run delivers in order,
// retrying network errors and 5xx answers with exponential backoff.
type Notifier struct {
	cfg     Config
	client  *http.Client
	queue   chan job
	logger  *slog.Logger
	backoff func(attempt int) time.Duration

	delivered atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

func NewNotifier(cfg Config, logger *slog.Logger) (*Notifier, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid webhook url %q", cfg.URL)
	}

	defaults := DefaultConfig(cfg.URL)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = defaults.QueueSize
	}

	return &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		queue:  make(chan job, cfg.QueueSize),
		logger: logger.With("component", "webhook", "url", u.Redacted()),
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Second
		},
	}, nil
}

// Sign returns the signature header value for payload
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature header value in constant time
func Verify(secret string, payload []byte, signature string) bool {
	return hmac.Equal([]byte(signature), []byte(Sign(secret, payload)))
}

// Record enqueues rec for delivery and never blocks.
func (n *Notifier) Record(_ context.Context, rec domain.ViolationRecord) error {
	payload, err := json.Marshal(Event{
		Type:      EventViolationLogged,
		Data:      rec,
		Timestamp: rec.LoggedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	select {
	case n.queue <- job{eventType: EventViolationLogged, payload: payload}:
		return nil
	default:
		n.dropped.Add(1)
		return ErrQueueFull
	}
}

// Run delivers queued events until ctx is cancelled. Events still queued at
// that point are dropped.
func (n *Notifier) Run(ctx context.Context) {
	n.logger.Info("webhook notifier started")

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("webhook notifier stopped", "undelivered", len(n.queue))
			return
		case j := <-n.queue:
			n.deliver(ctx, j)
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, j job) {
	for attempt := 1; ; attempt++ {
		err := n.send(ctx, j)
		if err == nil {
			n.delivered.Add(1)
			n.logger.Debug("webhook delivered", "event", j.eventType, "attempts", attempt)
			return
		}

		if attempt >= n.cfg.MaxAttempts || !retryable(err) {
			n.failed.Add(1)
			n.logger.Warn("webhook delivery failed", "event", j.eventType, "attempts", attempt, "error", err)
			return
		}

		delay := n.backoff(attempt)
		n.logger.Info("webhook delivery scheduled for retry", "attempts", attempt, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			n.failed.Add(1)
			return
		case <-time.After(delay):
		}
	}
}

func (n *Notifier) send(ctx context.Context, j job) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(j.payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, j.eventType)
	req.Header.Set("User-Agent", "DressGuard-Webhook/1.0")
	if n.cfg.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(n.cfg.Secret, j.payload))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// retryable is false for answers the receiver will give again, 4xx except 429
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}
	return !errors.Is(err, context.Canceled)
}

func (n *Notifier) Stats() Stats {
	return Stats{
		Delivered: n.delivered.Load(),
		Failed:    n.failed.Load(),
		Dropped:   n.dropped.Load(),
	}
}
