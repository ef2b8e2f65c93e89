package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dressguard/dressguard/internal/api/handler"
	"github.com/dressguard/dressguard/internal/compliance"
	"github.com/dressguard/dressguard/internal/domain"
	"github.com/dressguard/dressguard/internal/provider/mock"
	"github.com/dressguard/dressguard/internal/violation"
	"github.com/dressguard/dressguard/internal/ws"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func setupRouter(t *testing.T, checks map[string]handler.ReadinessCheck) (*Router, *violation.Logger) {
	t.Helper()
	logger := testLogger()
	dir := t.TempDir()

	hub := ws.NewHub(logger)
	violations, err := violation.New(violation.Config{
		Folder:     filepath.Join(dir, "violations"),
		Enabled:    true,
		Cooldown:   30 * time.Second,
		MaxPending: 4,
		Workers:    1,
	}, logger, violation.WithSinks(hub))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = violations.Close(ctx)
	})

	provider := mock.New(
		mock.WithDetections(domain.Detection{Class: "shorts", Confidence: 0.9, BBox: domain.BoundingBox{X1: 0.3, Y1: 0.5, X2: 0.7, Y2: 0.9}}),
		mock.WithFaces(domain.FaceResult{Name: "alice", Confidence: 99, BBox: domain.BoundingBox{X1: 0.4, Y1: 0.05, X2: 0.6, Y2: 0.3}}),
	)

	router := NewRouter(logger, &Dependencies{
		Version:    "test",
		Detector:   provider,
		Identifier: provider,
		Compliance: compliance.NewManager(filepath.Join(dir, "compliance.yaml"), logger),
		Violations: violations,
		Hub:        hub,
		Checks:     checks,
	})
	router.Setup()
	return router, violations
}

func frameUpload(t *testing.T) *http.Request {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	img := image.NewRGBA(image.Rect(0, 0, 160, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 160; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	var encoded bytes.Buffer
	require.NoError(t, png.Encode(&encoded, img))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "frame.png")
	require.NoError(t, err)
	_, err = part.Write(encoded.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/frames", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func getJSON(t *testing.T, r *Router, path string, out any) int {
	t.Helper()
	resp, err := r.App().Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(data, out), string(data))
	}
	return resp.StatusCode
}

func TestRouter_Health(t *testing.T) {
	router, _ := setupRouter(t, nil)

	var resp handler.HealthResponse
	status := getJSON(t, router, "/health", &resp)

	assert.Equal(t, 200, status)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestRouter_ReadyReportsFailingCheck(t *testing.T) {
	router, _ := setupRouter(t, map[string]handler.ReadinessCheck{
		"database": func(ctx context.Context) error { return errors.New("connection refused") },
	})

	var resp handler.HealthResponse
	status := getJSON(t, router, "/ready", &resp)

	assert.Equal(t, 503, status)
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "connection refused", resp.Checks["database"])
}

func TestRouter_NotFound(t *testing.T) {
	router, _ := setupRouter(t, nil)
	assert.Equal(t, 404, getJSON(t, router, "/nonexistent", nil))
}

func TestRouter_HistoryDisabledWithoutStore(t *testing.T) {
	router, _ := setupRouter(t, nil)
	assert.Equal(t, 503, getJSON(t, router, "/violations/history", nil))
}

func TestRouter_FrameIsLoggedOncePerDay(t *testing.T) {
	router, violations := setupRouter(t, nil)

	resp, err := router.App().Test(frameUpload(t), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var frame handler.FrameResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&frame))
	_ = resp.Body.Close()
	assert.True(t, frame.Logged)
	assert.Equal(t, []string{"shorts"}, frame.Compliance.NonCompliantItems)

	require.Eventually(t, func() bool {
		return len(violations.Snapshot()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	var today handler.TodayResponse
	require.Equal(t, 200, getJSON(t, router, "/violations/today", &today))
	require.Equal(t, 1, today.Count)
	assert.Equal(t, "alice", today.Entries[0].Identity)
	assert.Equal(t, []string{"shorts"}, today.Entries[0].Items)

	// Same person, same items: deduplicated
	resp, err = router.App().Test(frameUpload(t), -1)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&frame))
	_ = resp.Body.Close()
	assert.False(t, frame.Logged)

	var stats violation.Stats
	require.Equal(t, 200, getJSON(t, router, "/violations/stats", &stats))
	assert.True(t, stats.LoggingEnabled)
	assert.Equal(t, 1, stats.PersonsLoggedToday)
}
