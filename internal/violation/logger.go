// Package violation persists evidence of clothing-compliance violations. The
// Logger decides synchronously whether a frame is a new violation and hands
// the expensive work (rendering, disk writes, ledger updates, audit trail) to
// a small worker pool.
package violation

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dressguard/dressguard/internal/audit"
	"github.com/dressguard/dressguard/internal/dedup"
	"github.com/dressguard/dressguard/internal/domain"
	"github.com/dressguard/dressguard/internal/ledger"
	"github.com/dressguard/dressguard/internal/worker"
)

// LedgerFile is the daily ledger stored inside the log folder.
const LedgerFile = "daily_logs.json"

// Sink receives every violation whose evidence reached disk. Errors are
// logged and otherwise ignored.
type Sink interface {
	Record(ctx context.Context, record domain.ViolationRecord) error
}

type Config struct {
	Folder            string
	Enabled           bool
	Cooldown          time.Duration
	MinFaceConfidence float64
	MaxPending        int
	Workers           int
	JPEGQuality       int
}

type Stats struct {
	LoggingEnabled     bool    `json:"logging_enabled"`
	CooldownSeconds    int     `json:"cooldown_seconds"`
	MinFaceConfidence  float64 `json:"min_face_confidence"`
	ActiveViolations   int     `json:"active_violations"`
	PersonsLoggedToday int     `json:"persons_logged_today"`
	PendingTasks       int     `json:"pending_tasks"`
	MaxPendingTasks    int     `json:"max_pending_tasks"`
	LogFolder          string  `json:"log_folder"`
}

type Option func(*Logger)

// WithClock overrides the time source for decisions, filenames and the ledger.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

// WithAudit adds an audit logger next to the text trail in the log folder.
func WithAudit(a audit.Logger) Option {
	return func(l *Logger) {
		l.audit = append(l.audit, a)
	}
}

func WithSinks(sinks ...Sink) Option {
	return func(l *Logger) {
		l.sinks = append(l.sinks, sinks...)
	}
}

type Logger struct {
	cfg     Config
	enabled atomic.Bool
	now     func() time.Time
	logger  *slog.Logger

	// mu guards ledger and dedup.
	mu     sync.Mutex
	ledger *ledger.Ledger
	dedup  *dedup.Deduplicator

	pool  *worker.Pool
	trail *audit.FileLogger
	audit audit.MultiLogger
	sinks []Sink
}

func New(cfg Config, logger *slog.Logger, opts ...Option) (*Logger, error) {
	if cfg.Folder == "" {
		return nil, errors.New("violation log folder is required")
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 90
	}

	l := &Logger{
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With("component", "violation_logger"),
	}
	for _, opt := range opts {
		opt(l)
	}

	trail, err := audit.NewFileLogger(cfg.Folder)
	if err != nil {
		return nil, err
	}
	l.trail = trail
	l.audit = append(audit.MultiLogger{trail}, l.audit...)

	lg, err := ledger.Open(filepath.Join(cfg.Folder, LedgerFile), logger, ledger.WithClock(l.now))
	if err != nil {
		_ = trail.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	l.ledger = lg
	l.dedup = dedup.New(lg, cfg.Cooldown)
	l.pool = worker.New(cfg.Workers, cfg.MaxPending, logger)
	l.enabled.Store(cfg.Enabled)

	l.logger.Info("violation logger initialized",
		"folder", cfg.Folder,
		"enabled", cfg.Enabled,
		"cooldown", l.dedup.Cooldown(),
		"min_face_confidence", cfg.MinFaceConfidence,
	)
	return l, nil
}

// SaveViolation queues evidence for frame when it is a new violation. It never
// blocks on I/O and reports whether a task was accepted.
func (l *Logger) SaveViolation(frame image.Image, detections []domain.Detection, faces []domain.FaceResult, info domain.ComplianceInfo) bool {
	if !l.enabled.Load() {
		return false
	}

	filtered := l.filterFaces(faces)
	identified, unknownCount := splitFaces(filtered)
	items := append([]string(nil), info.NonCompliantItems...)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	decision := l.dedup.Evaluate(identified, unknownCount, items, now)
	if !decision.Approve {
		l.logger.Debug("violation not logged", "reason", decision.Reason, "identities", identified, "unknown", unknownCount)
		return false
	}

	supersede := decision.DeletePrevious
	if len(identified) > 0 && l.ledger.IsLoggedToday(domain.Unknown) {
		supersede = append(supersede, domain.Unknown)
	}

	t := &task{
		frame:      cloneFrame(frame),
		detections: append([]domain.Detection(nil), detections...),
		faces:      filtered,
		items:      items,
		identified: identified,
		unknown:    unknownCount,
		supersede:  supersede,
		at:         now,
	}

	if !l.pool.Submit(func(ctx context.Context) { l.process(ctx, t) }) {
		l.logger.Warn("violation queue full, skipping frame", "pending", l.pool.Pending())
		return false
	}

	l.logger.Debug("violation queued", "reason", decision.Reason, "identities", identified, "pending", l.pool.Pending())
	return true
}

// filterFaces relabels faces under the confidence floor as Unknown.
func (l *Logger) filterFaces(faces []domain.FaceResult) []domain.FaceResult {
	out := make([]domain.FaceResult, len(faces))
	for i, face := range faces {
		out[i] = face
		if face.IsUnknown() {
			out[i].Name = domain.Unknown
			continue
		}
		if face.Confidence < l.cfg.MinFaceConfidence {
			l.logger.Debug("face confidence below floor, treating as unknown",
				"identity", face.Name,
				"confidence", face.Confidence,
				"min_confidence", l.cfg.MinFaceConfidence,
			)
			out[i].Name = domain.Unknown
			out[i].UserID = ""
		}
	}
	return out
}

// splitFaces returns distinct known names in frame order and the number of
// unknown faces.
func splitFaces(faces []domain.FaceResult) ([]string, int) {
	var identified []string
	seen := make(map[string]struct{})
	unknown := 0
	for _, face := range faces {
		if face.Name == domain.Unknown {
			unknown++
			continue
		}
		if _, ok := seen[face.Name]; ok {
			continue
		}
		seen[face.Name] = struct{}{}
		identified = append(identified, face.Name)
	}
	return identified, unknown
}

// Enable turns logging on and forgets cooldowns from an earlier session.
func (l *Logger) Enable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled.Store(true)
	l.dedup.Clear()
	l.logger.Info("violation logging enabled")
}

func (l *Logger) Disable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled.Store(false)
	l.dedup.Clear()
	l.logger.Info("violation logging disabled")
}

// Toggle flips logging and returns the new state.
func (l *Logger) Toggle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	enabled := !l.enabled.Load()
	l.enabled.Store(enabled)
	if enabled {
		l.dedup.Clear()
	}
	l.logger.Info("violation logging toggled", "enabled", enabled)
	return enabled
}

func (l *Logger) Enabled() bool {
	return l.enabled.Load()
}

// SetCooldown sets the cooldown window in seconds, raised to at least one.
func (l *Logger) SetCooldown(seconds int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dedup.SetCooldown(time.Duration(max(seconds, 1)) * time.Second)
	l.logger.Info("violation cooldown updated", "cooldown", l.dedup.Cooldown())
}

func (l *Logger) Stats() Stats {
	l.mu.Lock()
	cooldown := l.dedup.Cooldown()
	active := l.dedup.Len()
	persons := 0
	for _, rec := range l.ledger.Snapshot() {
		if rec.Identity != domain.Unknown {
			persons++
		}
	}
	l.mu.Unlock()

	return Stats{
		LoggingEnabled:     l.enabled.Load(),
		CooldownSeconds:    int(cooldown / time.Second),
		MinFaceConfidence:  l.cfg.MinFaceConfidence,
		ActiveViolations:   active,
		PersonsLoggedToday: persons,
		PendingTasks:       l.pool.Pending(),
		MaxPendingTasks:    l.pool.MaxPending(),
		LogFolder:          l.cfg.Folder,
	}
}

// Snapshot returns today's ledger entries.
func (l *Logger) Snapshot() []ledger.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ledger.Snapshot()
}

// Close drains queued tasks until ctx expires, then closes the audit trail.
func (l *Logger) Close(ctx context.Context) error {
	err := l.pool.Close(ctx)
	if cerr := l.trail.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

type task struct {
	frame      *image.RGBA
	detections []domain.Detection
	faces      []domain.FaceResult
	items      []string
	identified []string
	unknown    int
	supersede  []string
	at         time.Time
}

// ledgerKeys are the identities marked logged for t. A frame with only
// unknown faces is filed under Unknown.
func (t *task) ledgerKeys() []string {
	if len(t.identified) > 0 {
		return t.identified
	}
	return []string{domain.Unknown}
}

func (t *task) identities() []string {
	out := append([]string(nil), t.identified...)
	if t.unknown > 0 {
		out = append(out, domain.Unknown)
	}
	return out
}

func (l *Logger) process(ctx context.Context, t *task) {
	if len(t.supersede) > 0 {
		l.deletePrevious(ctx, t.supersede)
	}

	filename := evidenceFilename(t.at)
	path := filepath.Join(l.cfg.Folder, filename)

	render(t.frame, t.detections, t.faces, t.items, t.at)
	if err := writeJPEG(path, t.frame, l.cfg.JPEGQuality); err != nil {
		l.logger.Error("failed to write violation evidence", "path", path, "error", err)
		return
	}

	l.mu.Lock()
	for _, identity := range t.ledgerKeys() {
		if err := l.ledger.MarkLogged(identity, t.items, path); err != nil {
			l.logger.Error("failed to update daily ledger", "identity", identity, "error", err)
		}
	}
	l.mu.Unlock()

	if err := l.audit.Log(ctx, audit.Event{
		Timestamp:  t.at,
		EventType:  audit.EventViolationLogged,
		Filename:   filename,
		Items:      t.items,
		Faces:      t.faces,
		Detections: t.detections,
		Identities: t.identities(),
		Success:    true,
	}); err != nil {
		l.logger.Warn("failed to append violation audit entry", "filename", filename, "error", err)
	}

	record := domain.ViolationRecord{
		ID:         uuid.NewString(),
		Filename:   filename,
		Filepath:   path,
		Identities: t.identities(),
		Items:      t.items,
		Faces:      t.faces,
		LoggedAt:   t.at,
	}
	for _, sink := range l.sinks {
		if err := sink.Record(ctx, record); err != nil {
			l.logger.Warn("violation sink failed", "filename", filename, "error", err)
		}
	}

	l.logger.Info("violation logged", "filename", filename, "identities", record.Identities, "items", t.items)
}

func (l *Logger) deletePrevious(ctx context.Context, identities []string) {
	l.mu.Lock()
	for _, identity := range identities {
		if err := l.ledger.Delete(identity); err != nil {
			l.logger.Error("failed to delete previous violation", "identity", identity, "error", err)
		}
	}
	l.mu.Unlock()

	if err := l.audit.Log(ctx, audit.Event{
		EventType:  audit.EventViolationSuperseded,
		Identities: identities,
		Success:    true,
	}); err != nil {
		l.logger.Warn("failed to audit superseded violation", "error", err)
	}
}
