package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/dressguard/dressguard/internal/domain"
)

// Recover converts a panicking handler into INTERNAL_ERROR. The frame being
// analysed is lost, but the station keeps serving.
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error("handler panicked",
				slog.Any("panic", r),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.Any("request_id", c.Locals("requestid")),
				slog.String("stack", string(debug.Stack())),
			)
			err = writeError(c, domain.ErrInternal)
		}()
		return c.Next()
	}
}
