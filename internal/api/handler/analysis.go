package handler

import (
	"errors"
	"image"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/dressguard/dressguard/internal/compliance"
	"github.com/dressguard/dressguard/internal/domain"
	"github.com/dressguard/dressguard/internal/provider"
)

// ComplianceChecker classifies detections against the rule set
type ComplianceChecker interface {
	Check(detections []domain.Detection) compliance.Result
}

// ViolationSaver admits non-compliant frames for evidence logging
type ViolationSaver interface {
	SaveViolation(frame image.Image, detections []domain.Detection, faces []domain.FaceResult, info domain.ComplianceInfo) bool
	Enabled() bool
}

// AnalysisHandler runs uploaded images through detection, face identification
// and compliance
type AnalysisHandler struct {
	detector   provider.Detector
	identifier provider.FaceIdentifier
	checker    ComplianceChecker
	saver      ViolationSaver
	logger     *slog.Logger
}

func NewAnalysisHandler(detector provider.Detector, identifier provider.FaceIdentifier, checker ComplianceChecker, saver ViolationSaver, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		detector:   detector,
		identifier: identifier,
		checker:    checker,
		saver:      saver,
		logger:     logger,
	}
}

// DetectResponse response for detect endpoint
type DetectResponse struct {
	Detections []domain.Detection `json:"detections"`
	Compliance compliance.Result  `json:"compliance"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
}

// FrameResponse response for frames endpoint
type FrameResponse struct {
	Detections     []domain.Detection  `json:"detections"`
	Faces          []domain.FaceResult `json:"faces"`
	Compliance     compliance.Result   `json:"compliance"`
	Logged         bool                `json:"logged"`
	LoggingEnabled bool                `json:"logging_enabled"`
}

// Detect POST /detect - clothing detection and compliance for a single image
func (h *AnalysisHandler) Detect(c *fiber.Ctx) error {
	data, img, err := extractAndValidateImage(c)
	if err != nil {
		return err
	}

	detections, err := h.detector.Detect(c.Context(), data)
	if err != nil {
		return providerError(err, domain.ErrDetectionFailed)
	}

	bounds := img.Bounds()
	return c.JSON(DetectResponse{
		Detections: nonNilDetections(detections),
		Compliance: h.checker.Check(detections),
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
	})
}

// Frame POST /frames - live camera frame; non-compliant frames are offered
// to the violation logger
func (h *AnalysisHandler) Frame(c *fiber.Ctx) error {
	data, img, err := extractAndValidateImage(c)
	if err != nil {
		return err
	}

	ctx := c.Context()

	detections, err := h.detector.Detect(ctx, data)
	if err != nil {
		return providerError(err, domain.ErrDetectionFailed)
	}

	faces, err := h.identifier.Identify(ctx, data)
	if err != nil {
		return providerError(err, domain.ErrFaceProviderFailed)
	}
	if faces == nil {
		faces = []domain.FaceResult{}
	}

	result := h.checker.Check(detections)

	logged := false
	if !result.IsCompliant {
		logged = h.saver.SaveViolation(img, detections, faces, result.Info())
		if logged {
			h.logger.Info("violation queued", "items", result.NonCompliantItems, "faces", len(faces))
		}
	}

	return c.JSON(FrameResponse{
		Detections:     nonNilDetections(detections),
		Faces:          faces,
		Compliance:     result,
		Logged:         logged,
		LoggingEnabled: h.saver.Enabled(),
	})
}

// providerError keeps AppErrors from providers (bad image) and wraps the rest
func providerError(err error, fallback *domain.AppError) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return fallback.WithError(err)
}

func nonNilDetections(d []domain.Detection) []domain.Detection {
	if d == nil {
		return []domain.Detection{}
	}
	return d
}
