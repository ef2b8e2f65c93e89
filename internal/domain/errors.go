package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrImageTooLarge = &AppError{
		Code:       "IMAGE_TOO_LARGE",
		Message:    "Image exceeds the maximum allowed size",
		StatusCode: 413,
	}

	ErrUnsupportedImageType = &AppError{
		Code:       "UNSUPPORTED_IMAGE_TYPE",
		Message:    "Unsupported image type",
		StatusCode: 415,
	}

	ErrImageDimensions = &AppError{
		Code:       "INVALID_IMAGE_DIMENSIONS",
		Message:    "Image dimensions are out of the accepted range",
		StatusCode: 422,
	}

	ErrDetectionFailed = &AppError{
		Code:       "DETECTION_FAILED",
		Message:    "Clothing detection failed",
		StatusCode: 502,
	}

	ErrFaceProviderFailed = &AppError{
		Code:       "FACE_PROVIDER_FAILED",
		Message:    "Face identification failed",
		StatusCode: 502,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrInvalidCooldown = &AppError{
		Code:       "INVALID_COOLDOWN",
		Message:    "Cooldown must be between 1 and 300 seconds",
		StatusCode: 422,
	}

	ErrInvalidMinConfidence = &AppError{
		Code:       "INVALID_MIN_CONFIDENCE",
		Message:    "Minimum confidence must be between 0 and 1",
		StatusCode: 422,
	}

	ErrHistoryDisabled = &AppError{
		Code:       "HISTORY_DISABLED",
		Message:    "Violation history is not configured",
		StatusCode: 503,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests",
		StatusCode: 429,
	}
)
