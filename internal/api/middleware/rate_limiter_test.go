package middleware

import (
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedApp(rl *RateLimiter) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(slog.New(slog.DiscardHandler))})
	app.Use(rl.Handler())
	app.Post("/frames", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	return app
}

func fixedKey(key string) func(c *fiber.Ctx) string {
	return func(c *fiber.Ctx) string { return key }
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{Max: 5, Window: time.Minute, KeyGenerator: fixedKey("camera-1")})
		defer rl.Stop()
		app := newLimitedApp(rl)

		for i := 0; i < 5; i++ {
			resp, err := app.Test(httptest.NewRequest("POST", "/frames", nil))
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{Max: 2, Window: time.Minute, KeyGenerator: fixedKey("camera-1")})
		defer rl.Stop()
		app := newLimitedApp(rl)

		for i := 0; i < 2; i++ {
			resp, err := app.Test(httptest.NewRequest("POST", "/frames", nil))
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		}

		resp, err := app.Test(httptest.NewRequest("POST", "/frames", nil))
		require.NoError(t, err)
		assert.Equal(t, 429, resp.StatusCode)
		assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	})

	t.Run("clients are limited separately", func(t *testing.T) {
		key := "camera-1"
		rl := NewRateLimiter(RateLimiterConfig{Max: 1, Window: time.Minute, KeyGenerator: func(c *fiber.Ctx) string { return key }})
		defer rl.Stop()
		app := newLimitedApp(rl)

		resp, err := app.Test(httptest.NewRequest("POST", "/frames", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		key = "camera-2"
		resp, err = app.Test(httptest.NewRequest("POST", "/frames", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, 2, rl.Clients())
	})

	t.Run("window resets", func(t *testing.T) {
		now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
		rl := NewRateLimiter(RateLimiterConfig{Max: 1, Window: time.Minute, KeyGenerator: fixedKey("camera-1")})
		defer rl.Stop()
		rl.now = func() time.Time { return now }
		app := newLimitedApp(rl)

		resp, _ := app.Test(httptest.NewRequest("POST", "/frames", nil))
		assert.Equal(t, 200, resp.StatusCode)
		resp, _ = app.Test(httptest.NewRequest("POST", "/frames", nil))
		assert.Equal(t, 429, resp.StatusCode)

		now = now.Add(61 * time.Second)
		resp, _ = app.Test(httptest.NewRequest("POST", "/frames", nil))
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("idle clients are evicted", func(t *testing.T) {
		now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
		rl := NewRateLimiter(RateLimiterConfig{Max: 10, Window: time.Minute, KeyGenerator: fixedKey("camera-1")})
		defer rl.Stop()
		rl.now = func() time.Time { return now }
		app := newLimitedApp(rl)

		_, err := app.Test(httptest.NewRequest("POST", "/frames", nil))
		require.NoError(t, err)
		require.Equal(t, 1, rl.Clients())

		now = now.Add(3 * time.Minute)
		rl.evictIdle()
		assert.Zero(t, rl.Clients())
	})

	t.Run("defaults applied", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{})
		defer rl.Stop()
		rl.Stop()

		assert.Equal(t, 600, rl.config.Max)
		assert.Equal(t, time.Minute, rl.config.Window)
		assert.NotNil(t, rl.config.KeyGenerator)
	})
}
