// Package compliance classifies detected clothing against the configured
// compliant and non-compliant class lists.
package compliance

import (
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/dressguard/dressguard/internal/domain"
)

var (
	ErrEmptyClass           = errors.New("class name is empty")
	ErrInvalidMinConfidence = errors.New("min confidence must be between 0 and 1")
)

// Result is the verdict for one set of detections. NonCompliantItems keeps
// the detector's casing and drops repeats.
type Result struct {
	IsCompliant          bool     `json:"is_compliant"`
	NonCompliantItems    []string `json:"non_compliant_items"`
	CompliantItems       []string `json:"compliant_items"`
	NeutralItems         []string `json:"neutral_items"`
	LowConfidenceSkipped int      `json:"low_confidence_skipped"`
	HighConfidence       int      `json:"high_confidence_detections"`
	Total                int      `json:"total_detections"`
}

func (r Result) Info() domain.ComplianceInfo {
	return domain.ComplianceInfo{
		IsCompliant:       r.IsCompliant,
		NonCompliantItems: r.NonCompliantItems,
	}
}

// Config is the current rule set as reported to clients.
type Config struct {
	CompliantClasses    []string          `json:"compliant_classes"`
	NonCompliantClasses []string          `json:"non_compliant_classes"`
	Synonyms            map[string]string `json:"synonyms,omitempty"`
	MinConfidence       float64           `json:"min_confidence"`
}

type Manager struct {
	path   string
	logger *slog.Logger

	mu            sync.RWMutex
	compliant     map[string]struct{}
	nonCompliant  map[string]struct{}
	synonyms      map[string]string
	minConfidence float64

	seenMu sync.Mutex
	seen   map[string]struct{}
}

// NewManager loads rules from path. A missing or unreadable file leaves the
// defaults in place.
func NewManager(path string, logger *slog.Logger) *Manager {
	m := &Manager{
		path:   path,
		logger: logger.With("component", "compliance"),
		seen:   make(map[string]struct{}),
	}

	rules, err := LoadRules(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		m.logger.Info("compliance rules file not found, using defaults", "path", path)
	case err != nil:
		m.logger.Error("failed to load compliance rules, using defaults", "path", path, "error", err)
		rules = DefaultRules()
	default:
		m.logger.Info("compliance rules loaded", "path", path)
	}
	m.apply(rules)
	return m
}

func (m *Manager) apply(rules Rules) {
	m.compliant = toSet(rules.Compliant)
	m.nonCompliant = toSet(rules.NonCompliant)
	m.synonyms = make(map[string]string, len(rules.Synonyms))
	for alias, class := range rules.Synonyms {
		m.synonyms[normalize(alias)] = normalize(class)
	}
	m.minConfidence = rules.MinConfidence
}

func (m *Manager) canonical(class string) string {
	name := normalize(class)
	if target, ok := m.synonyms[name]; ok {
		return target
	}
	return name
}

// Check classifies detections. Detections under the minimum confidence are
// skipped; classes in neither list are neutral.
func (m *Manager) Check(detections []domain.Detection) Result {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := Result{
		Total:             len(detections),
		NonCompliantItems: []string{},
		CompliantItems:    []string{},
		NeutralItems:      []string{},
	}
	seenViolation := make(map[string]struct{})

	for _, det := range detections {
		if det.Confidence < m.minConfidence {
			result.LowConfidenceSkipped++
			continue
		}
		result.HighConfidence++

		name := m.canonical(det.Class)
		m.remember(name)

		switch {
		case has(m.nonCompliant, name):
			if _, dup := seenViolation[det.Class]; !dup {
				seenViolation[det.Class] = struct{}{}
				result.NonCompliantItems = append(result.NonCompliantItems, det.Class)
			}
		case has(m.compliant, name):
			result.CompliantItems = append(result.CompliantItems, det.Class)
		default:
			result.NeutralItems = append(result.NeutralItems, det.Class)
		}
	}

	result.IsCompliant = len(result.NonCompliantItems) == 0
	m.logger.Debug("compliance check",
		"compliant", result.IsCompliant,
		"non_compliant_items", result.NonCompliantItems,
		"neutral", len(result.NeutralItems),
		"low_confidence", result.LowConfidenceSkipped,
	)
	return result
}

func (m *Manager) remember(class string) {
	m.seenMu.Lock()
	m.seen[class] = struct{}{}
	m.seenMu.Unlock()
}

// DetectedClasses lists every class seen by Check since start.
func (m *Manager) DetectedClasses() []string {
	m.seenMu.Lock()
	defer m.seenMu.Unlock()
	return sortedKeys(m.seen)
}

func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	synonyms := make(map[string]string, len(m.synonyms))
	for k, v := range m.synonyms {
		synonyms[k] = v
	}
	return Config{
		CompliantClasses:    sortedKeys(m.compliant),
		NonCompliantClasses: sortedKeys(m.nonCompliant),
		Synonyms:            synonyms,
		MinConfidence:       m.minConfidence,
	}
}

func (m *Manager) SetCompliant(classes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compliant = toSet(classes)
	return m.save()
}

func (m *Manager) SetNonCompliant(classes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nonCompliant = toSet(classes)
	return m.save()
}

// AddCompliant marks class compliant, moving it out of the non-compliant list.
func (m *Manager) AddCompliant(class string) error {
	name := normalize(class)
	if name == "" {
		return ErrEmptyClass
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compliant[name] = struct{}{}
	delete(m.nonCompliant, name)
	return m.save()
}

// AddNonCompliant marks class prohibited, moving it out of the compliant list.
func (m *Manager) AddNonCompliant(class string) error {
	name := normalize(class)
	if name == "" {
		return ErrEmptyClass
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nonCompliant[name] = struct{}{}
	delete(m.compliant, name)
	return m.save()
}

// RemoveClass makes class neutral.
func (m *Manager) RemoveClass(class string) error {
	name := normalize(class)
	if name == "" {
		return ErrEmptyClass
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.compliant, name)
	delete(m.nonCompliant, name)
	return m.save()
}

// Update replaces whichever of the lists and threshold are non-nil. A class
// listed as both compliant and non-compliant stays non-compliant; those
// classes are returned.
func (m *Manager) Update(compliant, nonCompliant []string, minConfidence *float64) ([]string, error) {
	if minConfidence != nil && (*minConfidence < 0 || *minConfidence > 1) {
		return nil, ErrInvalidMinConfidence
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if compliant != nil {
		m.compliant = toSet(compliant)
	}
	if nonCompliant != nil {
		m.nonCompliant = toSet(nonCompliant)
	}
	if minConfidence != nil {
		m.minConfidence = *minConfidence
	}

	overlap := []string{}
	for class := range m.compliant {
		if has(m.nonCompliant, class) {
			overlap = append(overlap, class)
		}
	}
	sort.Strings(overlap)
	for _, class := range overlap {
		delete(m.compliant, class)
	}
	if len(overlap) > 0 {
		m.logger.Warn("classes in both lists kept non-compliant", "classes", overlap)
	}

	return overlap, m.save()
}

// save must be called with mu held.
func (m *Manager) save() error {
	rules := Rules{
		Compliant:     sortedKeys(m.compliant),
		NonCompliant:  sortedKeys(m.nonCompliant),
		Synonyms:      m.synonyms,
		MinConfidence: m.minConfidence,
	}
	if err := SaveRules(m.path, rules); err != nil {
		m.logger.Error("failed to save compliance rules", "path", m.path, "error", err)
		return err
	}
	m.logger.Info("compliance rules saved",
		"path", m.path,
		"compliant", rules.Compliant,
		"non_compliant", rules.NonCompliant,
	)
	return nil
}

func normalize(class string) string {
	return strings.ToLower(strings.TrimSpace(class))
}

func toSet(classes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		if name := normalize(c); name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}

func has(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
