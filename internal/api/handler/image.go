package handler

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/dressguard/dressguard/internal/domain"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
	minImageDim  = 50
	maxImageDim  = 4096
	imageField   = "file"
)

// validImageTypes are matched against the sniffed content, not the client header
var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/bmp":  true,
	"image/webp": true,
}

// extractAndValidateImage reads the uploaded file and decodes it, rejecting
// oversized payloads, unsupported formats and out-of-range dimensions
func extractAndValidateImage(c *fiber.Ctx) ([]byte, image.Image, error) {
	file, err := c.FormFile(imageField)
	if err != nil {
		return nil, nil, domain.ErrValidationFailed.WithError(fmt.Errorf("%s is required: %w", imageField, err))
	}

	if file.Size > maxImageSize {
		return nil, nil, domain.ErrImageTooLarge
	}
	if file.Size == 0 {
		return nil, nil, domain.ErrInvalidImage
	}

	f, err := file.Open()
	if err != nil {
		return nil, nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return nil, nil, domain.ErrInvalidImage.WithError(err)
	}
	if len(data) > maxImageSize {
		return nil, nil, domain.ErrImageTooLarge
	}

	if contentType := http.DetectContentType(data); !validImageTypes[contentType] {
		return nil, nil, domain.ErrUnsupportedImageType.WithError(fmt.Errorf("content type %s", contentType))
	}

	// Check dimensions before allocating the full bitmap
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, nil, domain.ErrInvalidImage.WithError(err)
	}
	if cfg.Width < minImageDim || cfg.Height < minImageDim || cfg.Width > maxImageDim || cfg.Height > maxImageDim {
		return nil, nil, domain.ErrImageDimensions.WithError(fmt.Errorf("%dx%d", cfg.Width, cfg.Height))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, domain.ErrInvalidImage.WithError(err)
	}

	return data, img, nil
}
