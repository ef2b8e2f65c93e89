package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/dressguard/dressguard/internal/domain"
)

// ErrorHandler renders every error as {"error":{"code","message"}}
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return writeError(c, fromFiberError(fiberErr))
		}

		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			// Provider failures (502) and unavailable history (503) are worth a log line
			if appErr.StatusCode >= 500 {
				logger.Error("request failed",
					slog.String("code", appErr.Code),
					slog.String("path", c.Path()),
					slog.Any("request_id", c.Locals("requestid")),
					slog.Any("error", appErr.Err),
				)
			}
			return writeError(c, appErr)
		}

		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
			slog.Any("request_id", c.Locals("requestid")),
		)
		return writeError(c, domain.ErrInternal)
	}
}

// fromFiberError maps framework errors onto the domain catalogue where one fits.
// A body over the server limit can only be an oversized upload.
func fromFiberError(fe *fiber.Error) *domain.AppError {
	switch fe.Code {
	case fiber.StatusNotFound:
		return domain.ErrNotFound
	case fiber.StatusRequestEntityTooLarge:
		return domain.ErrImageTooLarge
	}
	return &domain.AppError{
		Code:       "HTTP_ERROR",
		Message:    fe.Message,
		StatusCode: fe.Code,
	}
}

func writeError(c *fiber.Ctx, appErr *domain.AppError) error {
	return c.Status(appErr.StatusCode).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
