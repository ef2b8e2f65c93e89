package compliance

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dressguard/dressguard/internal/domain"
)

func newTestManager(t *testing.T, name string) *Manager {
	t.Helper()
	return NewManager(filepath.Join(t.TempDir(), name), slog.New(slog.DiscardHandler))
}

func det(class string, confidence float64) domain.Detection {
	return domain.Detection{Class: class, Confidence: confidence}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name          string
		detections    []domain.Detection
		wantCompliant bool
		wantItems     []string
		wantNeutral   []string
		wantSkipped   int
	}{
		{
			name:          "all compliant",
			detections:    []domain.Detection{det("Pants", 0.9), det("Full Sleeves Shirt", 0.8)},
			wantCompliant: true,
			wantItems:     []string{},
			wantNeutral:   []string{},
		},
		{
			name:          "prohibited item keeps detector casing",
			detections:    []domain.Detection{det("T-Shirt", 0.9), det("Pants", 0.9)},
			wantCompliant: false,
			wantItems:     []string{"T-Shirt"},
			wantNeutral:   []string{},
		},
		{
			name:          "repeated violations are listed once",
			detections:    []domain.Detection{det("Shorts", 0.9), det("Shorts", 0.7)},
			wantCompliant: false,
			wantItems:     []string{"Shorts"},
			wantNeutral:   []string{},
		},
		{
			name:          "low confidence skipped",
			detections:    []domain.Detection{det("Shorts", 0.3), det("Pants", 0.6)},
			wantCompliant: true,
			wantItems:     []string{},
			wantNeutral:   []string{},
			wantSkipped:   1,
		},
		{
			name:          "unlisted class is neutral",
			detections:    []domain.Detection{det("Scarf", 0.9)},
			wantCompliant: true,
			wantItems:     []string{},
			wantNeutral:   []string{"Scarf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, "rules.yaml")

			result := m.Check(tt.detections)

			assert.Equal(t, tt.wantCompliant, result.IsCompliant)
			assert.Equal(t, tt.wantItems, result.NonCompliantItems)
			assert.Equal(t, tt.wantNeutral, result.NeutralItems)
			assert.Equal(t, tt.wantSkipped, result.LowConfidenceSkipped)
			assert.Equal(t, len(tt.detections), result.Total)
			assert.Equal(t, tt.wantCompliant, result.Info().IsCompliant)
		})
	}
}

func TestCheck_Synonyms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
compliant: [pants]
non_compliant: [t-shirt]
synonyms:
  Tee: t-shirt
min_confidence: 0.4
`), 0o644))

	m := NewManager(path, slog.New(slog.DiscardHandler))
	result := m.Check([]domain.Detection{det("tee", 0.45)})

	assert.False(t, result.IsCompliant)
	assert.Equal(t, []string{"tee"}, result.NonCompliantItems)
	assert.Equal(t, []string{"t-shirt"}, m.DetectedClasses())
}

func TestNewManager_Defaults(t *testing.T) {
	m := newTestManager(t, "missing.yaml")

	cfg := m.Config()
	assert.Equal(t, []string{"full sleeves shirt", "half sleeves shirt", "id card", "kurti", "pants"}, cfg.CompliantClasses)
	assert.Equal(t, []string{"shorts", "t-shirt"}, cfg.NonCompliantClasses)
	assert.Equal(t, DefaultMinConfidence, cfg.MinConfidence)
}

func TestNewManager_CorruptFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	m := NewManager(path, slog.New(slog.DiscardHandler))

	assert.Equal(t, []string{"shorts", "t-shirt"}, m.Config().NonCompliantClasses)
}

func TestAddCompliant_MovesClassAndPersists(t *testing.T) {
	for _, name := range []string{"rules.yaml", "rules.json"} {
		t.Run(name, func(t *testing.T) {
			m := newTestManager(t, name)

			require.NoError(t, m.AddCompliant("  T-Shirt "))

			cfg := m.Config()
			assert.Contains(t, cfg.CompliantClasses, "t-shirt")
			assert.NotContains(t, cfg.NonCompliantClasses, "t-shirt")

			reloaded := NewManager(m.path, slog.New(slog.DiscardHandler))
			assert.Equal(t, cfg.CompliantClasses, reloaded.Config().CompliantClasses)
			assert.Equal(t, []string{"shorts"}, reloaded.Config().NonCompliantClasses)
		})
	}
}

func TestAddNonCompliant_MovesClass(t *testing.T) {
	m := newTestManager(t, "rules.yaml")

	require.NoError(t, m.AddNonCompliant("Kurti"))

	cfg := m.Config()
	assert.Contains(t, cfg.NonCompliantClasses, "kurti")
	assert.NotContains(t, cfg.CompliantClasses, "kurti")
	assert.False(t, m.Check([]domain.Detection{det("Kurti", 0.9)}).IsCompliant)
}

func TestRemoveClass_MakesNeutral(t *testing.T) {
	m := newTestManager(t, "rules.yaml")

	require.NoError(t, m.RemoveClass("shorts"))

	result := m.Check([]domain.Detection{det("Shorts", 0.9)})
	assert.True(t, result.IsCompliant)
	assert.Equal(t, []string{"Shorts"}, result.NeutralItems)
}

func TestEmptyClassRejected(t *testing.T) {
	m := newTestManager(t, "rules.yaml")

	assert.ErrorIs(t, m.AddCompliant(" "), ErrEmptyClass)
	assert.ErrorIs(t, m.AddNonCompliant(""), ErrEmptyClass)
	assert.ErrorIs(t, m.RemoveClass(""), ErrEmptyClass)
}

func TestUpdate(t *testing.T) {
	m := newTestManager(t, "rules.yaml")

	bad := 1.5
	_, err := m.Update(nil, nil, &bad)
	assert.ErrorIs(t, err, ErrInvalidMinConfidence)

	conf := 0.7
	overlap, err := m.Update([]string{"Pants"}, nil, &conf)
	require.NoError(t, err)
	assert.Empty(t, overlap)

	cfg := m.Config()
	assert.Equal(t, []string{"pants"}, cfg.CompliantClasses)
	assert.Equal(t, []string{"shorts", "t-shirt"}, cfg.NonCompliantClasses)
	assert.Equal(t, 0.7, cfg.MinConfidence)
}

func TestUpdate_OverlapStaysNonCompliant(t *testing.T) {
	m := newTestManager(t, "rules.yaml")

	overlap, err := m.Update([]string{"Pants", "Shorts", "kurti"}, []string{"shorts", "t-shirt", "Kurti"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"kurti", "shorts"}, overlap)

	cfg := m.Config()
	assert.Equal(t, []string{"pants"}, cfg.CompliantClasses)
	assert.Equal(t, []string{"kurti", "shorts", "t-shirt"}, cfg.NonCompliantClasses)
}

func TestSetLists(t *testing.T) {
	m := newTestManager(t, "rules.yaml")

	require.NoError(t, m.SetCompliant([]string{"Saree", "pants"}))
	require.NoError(t, m.SetNonCompliant([]string{"Slippers"}))

	cfg := m.Config()
	assert.Equal(t, []string{"pants", "saree"}, cfg.CompliantClasses)
	assert.Equal(t, []string{"slippers"}, cfg.NonCompliantClasses)
}

func TestSaveRules_UnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := SaveRules(filepath.Join(blocker, "rules.yaml"), DefaultRules())
	assert.Error(t, err)
}
