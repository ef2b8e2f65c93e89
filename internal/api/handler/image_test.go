package handler

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestExtractAndValidateImage(t *testing.T) {
	var bmpBuf bytes.Buffer
	require.NoError(t, bmp.Encode(&bmpBuf, noisyImage(64, 64)))

	var tinyBuf bytes.Buffer
	require.NoError(t, png.Encode(&tinyBuf, image.NewRGBA(image.Rect(0, 0, 20, 20))))

	var wideBuf bytes.Buffer
	require.NoError(t, png.Encode(&wideBuf, image.NewGray(image.Rect(0, 0, 5000, 60))))

	tests := []struct {
		name       string
		field      string
		content    []byte
		wantStatus int
		wantCode   string
		wantSize   image.Point
	}{
		{name: "png", field: "file", content: encodePNG(t, 120, 80), wantStatus: 200, wantSize: image.Pt(120, 80)},
		{name: "jpeg", field: "file", content: encodeJPEG(t, 200, 150), wantStatus: 200, wantSize: image.Pt(200, 150)},
		{name: "bmp", field: "file", content: bmpBuf.Bytes(), wantStatus: 200, wantSize: image.Pt(64, 64)},
		{name: "missing file", field: "image", content: encodePNG(t, 60, 60), wantStatus: 422, wantCode: "VALIDATION_FAILED"},
		{name: "not an image", field: "file", content: []byte("%PDF-1.4 definitely not a picture"), wantStatus: 415, wantCode: "UNSUPPORTED_IMAGE_TYPE"},
		{name: "too small", field: "file", content: tinyBuf.Bytes(), wantStatus: 422, wantCode: "INVALID_IMAGE_DIMENSIONS"},
		{name: "too wide", field: "file", content: wideBuf.Bytes(), wantStatus: 422, wantCode: "INVALID_IMAGE_DIMENSIONS"},
		{name: "truncated png", field: "file", content: encodePNG(t, 60, 60)[:200], wantStatus: 422, wantCode: "INVALID_IMAGE"},
		{name: "too large", field: "file", content: make([]byte, maxImageSize+1), wantStatus: 413, wantCode: "IMAGE_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			var got image.Point
			app.Post("/upload", func(c *fiber.Ctx) error {
				_, img, err := extractAndValidateImage(c)
				if err != nil {
					return err
				}
				got = img.Bounds().Size()
				return c.SendStatus(fiber.StatusOK)
			})

			if tt.wantCode == "" {
				status := do(t, app, uploadRequest(t, "/upload", tt.field, tt.content), nil)
				assert.Equal(t, tt.wantStatus, status)
				assert.Equal(t, tt.wantSize, got)
				return
			}

			var body errorResponse
			status := do(t, app, uploadRequest(t, "/upload", tt.field, tt.content), &body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}
