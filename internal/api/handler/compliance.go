package handler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/dressguard/dressguard/internal/compliance"
	"github.com/dressguard/dressguard/internal/domain"
)

// ComplianceManager edits the compliance rule set
type ComplianceManager interface {
	Config() compliance.Config
	Update(compliant, nonCompliant []string, minConfidence *float64) ([]string, error)
	AddCompliant(class string) error
	AddNonCompliant(class string) error
	RemoveClass(class string) error
	DetectedClasses() []string
}

type ComplianceHandler struct {
	manager ComplianceManager
	logger  *slog.Logger
}

func NewComplianceHandler(manager ComplianceManager, logger *slog.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		manager: manager,
		logger:  logger,
	}
}

// UpdateConfigRequest request body for replacing the rule set
type UpdateConfigRequest struct {
	CompliantClasses    []string `json:"compliant_classes"`
	NonCompliantClasses []string `json:"non_compliant_classes"`
	MinConfidence       *float64 `json:"min_confidence,omitempty"`
}

// ClassRequest request body for single-class edits
type ClassRequest struct {
	ClassName string `json:"class_name"`
}

// ConfigResponse response for rule set mutations
type ConfigResponse struct {
	Success           bool              `json:"success"`
	Message           string            `json:"message"`
	DuplicatesRemoved []string          `json:"duplicates_removed,omitempty"`
	Config            compliance.Config `json:"config"`
}

// DetectedClassesResponse response for the detected-classes endpoint
type DetectedClassesResponse struct {
	Classes []string `json:"classes"`
	Count   int      `json:"count"`
}

// GetConfig GET /compliance/config
func (h *ComplianceHandler) GetConfig(c *fiber.Ctx) error {
	return c.JSON(h.manager.Config())
}

// UpdateConfig POST /compliance/config
func (h *ComplianceHandler) UpdateConfig(c *fiber.Ctx) error {
	var req UpdateConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}
	if req.CompliantClasses == nil || req.NonCompliantClasses == nil {
		return domain.ErrValidationFailed.WithError(errors.New("compliant_classes and non_compliant_classes are required"))
	}

	overlap, err := h.manager.Update(req.CompliantClasses, req.NonCompliantClasses, req.MinConfidence)
	if err != nil {
		return complianceError(err)
	}

	return c.JSON(ConfigResponse{
		Success:           true,
		Message:           "Compliance configuration updated",
		DuplicatesRemoved: overlap,
		Config:            h.manager.Config(),
	})
}

// AddCompliant POST /compliance/add-compliant
func (h *ComplianceHandler) AddCompliant(c *fiber.Ctx) error {
	return h.editClass(c, h.manager.AddCompliant, "Added '%s' to compliant classes")
}

// AddNonCompliant POST /compliance/add-non-compliant
func (h *ComplianceHandler) AddNonCompliant(c *fiber.Ctx) error {
	return h.editClass(c, h.manager.AddNonCompliant, "Added '%s' to non-compliant classes")
}

// RemoveClass POST /compliance/remove-class
func (h *ComplianceHandler) RemoveClass(c *fiber.Ctx) error {
	return h.editClass(c, h.manager.RemoveClass, "Removed '%s' from compliance lists")
}

func (h *ComplianceHandler) editClass(c *fiber.Ctx, edit func(string) error, format string) error {
	var req ClassRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	if err := edit(req.ClassName); err != nil {
		return complianceError(err)
	}

	h.logger.Info("compliance rules edited", "class", req.ClassName)

	return c.JSON(ConfigResponse{
		Success: true,
		Message: fmt.Sprintf(format, req.ClassName),
		Config:  h.manager.Config(),
	})
}

// DetectedClasses GET /compliance/detected-classes
func (h *ComplianceHandler) DetectedClasses(c *fiber.Ctx) error {
	classes := h.manager.DetectedClasses()
	if classes == nil {
		classes = []string{}
	}
	return c.JSON(DetectedClassesResponse{Classes: classes, Count: len(classes)})
}

func complianceError(err error) error {
	switch {
	case errors.Is(err, compliance.ErrEmptyClass):
		return domain.ErrValidationFailed.WithError(err)
	case errors.Is(err, compliance.ErrInvalidMinConfidence):
		return domain.ErrInvalidMinConfidence
	default:
		return domain.ErrInternal.WithError(err)
	}
}
