package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// BoundingBox is a box in coordinates normalized to the image size
type BoundingBox struct {
	X1 float64 `json:"x1" example:"0.25"`
	Y1 float64 `json:"y1" example:"0.3"`
	X2 float64 `json:"x2" example:"0.75"`
	Y2 float64 `json:"y2" example:"0.6"`
}

// Detection is one clothing item
type Detection struct {
	Class      string      `json:"class" example:"t-shirt"`
	Confidence float64     `json:"confidence" example:"0.91"`
	BBox       BoundingBox `json:"bbox"`
}

// Face is one identified or unknown face
type Face struct {
	Name       string      `json:"name" example:"alice"`
	Confidence float64     `json:"confidence" example:"97.5"`
	BBox       BoundingBox `json:"bbox"`
	UserID     string      `json:"user_id,omitempty" example:"4f3c1a2b-0d9e-4e1f-8a7b-6c5d4e3f2a1b"`
}

// ComplianceResult is the verdict for one image
type ComplianceResult struct {
	IsCompliant          bool     `json:"is_compliant" example:"false"`
	NonCompliantItems    []string `json:"non_compliant_items" example:"t-shirt"`
	CompliantItems       []string `json:"compliant_items" example:"pants"`
	NeutralItems         []string `json:"neutral_items" example:"cap"`
	LowConfidenceSkipped int      `json:"low_confidence_skipped" example:"1"`
	HighConfidence       int      `json:"high_confidence_detections" example:"2"`
	Total                int      `json:"total_detections" example:"3"`
}

// DetectResponse is returned by POST /detect
type DetectResponse struct {
	Detections []Detection      `json:"detections"`
	Compliance ComplianceResult `json:"compliance"`
	Width      int              `json:"width" example:"1280"`
	Height     int              `json:"height" example:"720"`
}

// FrameResponse is returned by POST /frames
type FrameResponse struct {
	Detections     []Detection      `json:"detections"`
	Faces          []Face           `json:"faces"`
	Compliance     ComplianceResult `json:"compliance"`
	Logged         bool             `json:"logged" example:"true"`
	LoggingEnabled bool             `json:"logging_enabled" example:"true"`
}

// StatsResponse is returned by GET /violations/stats
type StatsResponse struct {
	LoggingEnabled     bool    `json:"logging_enabled" example:"true"`
	CooldownSeconds    int     `json:"cooldown_seconds" example:"30"`
	MinFaceConfidence  float64 `json:"min_face_confidence" example:"85"`
	ActiveViolations   int     `json:"active_violations" example:"2"`
	PersonsLoggedToday int     `json:"persons_logged_today" example:"5"`
	PendingTasks       int     `json:"pending_tasks" example:"0"`
	MaxPendingTasks    int     `json:"max_pending_tasks" example:"4"`
	LogFolder          string  `json:"log_folder" example:"violations"`
	// Webhook is present only when outbound notifications are configured
	Webhook *WebhookStats `json:"webhook,omitempty"`
}

// WebhookStats counts outbound notification outcomes
type WebhookStats struct {
	Delivered int64 `json:"delivered" example:"12"`
	Failed    int64 `json:"failed" example:"0"`
	Dropped   int64 `json:"dropped" example:"0"`
}

// LoggingStateResponse is returned by enable, disable and toggle
type LoggingStateResponse struct {
	Enabled bool   `json:"enabled" example:"true"`
	Message string `json:"message" example:"Violation logging enabled"`
}

// CooldownRequest sets the per-identity cooldown
type CooldownRequest struct {
	Seconds int `json:"seconds" example:"30"`
}

// CooldownResponse echoes the applied cooldown
type CooldownResponse struct {
	CooldownSeconds int `json:"cooldown_seconds" example:"30"`
}

// TodayEntry is one identity logged today
type TodayEntry struct {
	Identity string   `json:"identity" example:"alice"`
	Items    []string `json:"items" example:"shorts"`
	Filename string   `json:"filename" example:"violation_20240315_101500_ab12cd34.jpg"`
}

// TodayResponse is returned by GET /violations/today
type TodayResponse struct {
	Date    string       `json:"date" example:"2024-03-15"`
	Count   int          `json:"count" example:"1"`
	Entries []TodayEntry `json:"entries"`
}

// ViolationRecord is a persisted violation
type ViolationRecord struct {
	ID         string   `json:"id" example:"0b6c1a52-9f1e-4c43-8a8e-0c3a0e0d2f11"`
	Filename   string   `json:"filename" example:"violation_20240315_101500_ab12cd34.jpg"`
	Identities []string `json:"identities" example:"alice"`
	Items      []string `json:"items" example:"shorts"`
	Faces      []Face   `json:"faces"`
	LoggedAt   string   `json:"logged_at" example:"2024-03-15T10:15:00Z"`
}

// HistoryResponse is returned by GET /violations/history
type HistoryResponse struct {
	Date        string            `json:"date" example:"2024-03-15"`
	Count       int               `json:"count" example:"1"`
	Violations  []ViolationRecord `json:"violations"`
	PerIdentity map[string]int    `json:"per_identity"`
}

// ComplianceConfig is the active rule set
type ComplianceConfig struct {
	CompliantClasses    []string          `json:"compliant_classes" example:"pants"`
	NonCompliantClasses []string          `json:"non_compliant_classes" example:"shorts"`
	Synonyms            map[string]string `json:"synonyms,omitempty"`
	MinConfidence       float64           `json:"min_confidence" example:"0.5"`
}

// UpdateConfigRequest replaces the rule set
type UpdateConfigRequest struct {
	CompliantClasses    []string `json:"compliant_classes" example:"pants"`
	NonCompliantClasses []string `json:"non_compliant_classes" example:"shorts"`
	MinConfidence       *float64 `json:"min_confidence,omitempty" example:"0.5"`
}

// ClassRequest names a single class
type ClassRequest struct {
	ClassName string `json:"class_name" example:"shorts"`
}

// ConfigResponse is returned by rule set mutations
type ConfigResponse struct {
	Success           bool             `json:"success" example:"true"`
	Message           string           `json:"message" example:"Compliance configuration updated"`
	DuplicatesRemoved []string         `json:"duplicates_removed,omitempty" example:"shorts"`
	Config            ComplianceConfig `json:"config"`
}

// DetectedClassesResponse lists classes seen since start
type DetectedClassesResponse struct {
	Classes []string `json:"classes" example:"pants"`
	Count   int      `json:"count" example:"1"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version" example:"1.0.0"`
}

// ReadyResponse is returned by GET /ready
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

var (
	errInternal   = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
	errValidation = response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity")
)

// imageErrors are shared by every endpoint accepting an upload
func imageErrors(extra ...response.Response) []response.Response {
	errs := []response.Response{
		errValidation,
		response.New(ErrorResponse{Code: "IMAGE_TOO_LARGE", Message: "Image exceeds maximum size"}, "413", "Payload Too Large"),
		response.New(ErrorResponse{Code: "UNSUPPORTED_IMAGE_TYPE", Message: "Image must be JPEG, PNG, BMP or WebP"}, "415", "Unsupported Media Type"),
		response.New(ErrorResponse{Code: "INVALID_IMAGE_DIMENSIONS", Message: "Image dimensions out of range"}, "422", "Unprocessable Entity"),
		response.New(ErrorResponse{Code: "DETECTION_FAILED", Message: "Clothing detection failed"}, "502", "Bad Gateway"),
	}
	return append(errs, extra...)
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "DressGuard API",
		Version:     "v1.0.0",
		Description: "Dress code compliance monitoring with face-attributed violation logging",
		Host:        "localhost:8000",
		Path:        "/",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /detect
		endpoint.New(
			endpoint.POST,
			"/detect",
			endpoint.WithTags("Analysis"),
			endpoint.WithSummary("Detect clothing in an image"),
			endpoint.WithDescription("Runs clothing detection on the multipart field 'file' and classifies the result against the compliance rules. Nothing is logged."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DetectResponse{}, "200", "Detection completed"),
			}),
			endpoint.WithErrors(imageErrors()),
		),

		// POST /frames
		endpoint.New(
			endpoint.POST,
			"/frames",
			endpoint.WithTags("Analysis"),
			endpoint.WithSummary("Process a live camera frame"),
			endpoint.WithDescription("Detects clothing and faces in the multipart field 'file'. Non-compliant frames are offered to the violation logger, which applies the per-identity cooldown and daily deduplication."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FrameResponse{}, "200", "Frame processed"),
			}),
			endpoint.WithErrors(imageErrors(
				response.New(ErrorResponse{Code: "FACE_PROVIDER_FAILED", Message: "Face identification failed"}, "502", "Bad Gateway"),
			)),
		),

		// GET /violations/stats
		endpoint.New(
			endpoint.GET,
			"/violations/stats",
			endpoint.WithTags("Violations"),
			endpoint.WithSummary("Violation logger statistics"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StatsResponse{}, "200", "Current statistics"),
			}),
		),

		// POST /violations/enable
		endpoint.New(
			endpoint.POST,
			"/violations/enable",
			endpoint.WithTags("Violations"),
			endpoint.WithSummary("Enable violation logging"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(LoggingStateResponse{}, "200", "Logging enabled"),
			}),
		),

		// POST /violations/disable
		endpoint.New(
			endpoint.POST,
			"/violations/disable",
			endpoint.WithTags("Violations"),
			endpoint.WithSummary("Disable violation logging"),
			endpoint.WithDescription("Stops admitting new violations and clears the cooldown cache. Tasks already queued still complete."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(LoggingStateResponse{Enabled: false, Message: "Violation logging disabled"}, "200", "Logging disabled"),
			}),
		),

		// POST /violations/toggle
		endpoint.New(
			endpoint.POST,
			"/violations/toggle",
			endpoint.WithTags("Violations"),
			endpoint.WithSummary("Toggle violation logging"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(LoggingStateResponse{}, "200", "Resulting logging state"),
			}),
		),

		// PUT /violations/cooldown
		endpoint.New(
			endpoint.PUT,
			"/violations/cooldown",
			endpoint.WithTags("Violations"),
			endpoint.WithSummary("Set the per-identity cooldown"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(CooldownRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CooldownResponse{}, "200", "Cooldown applied"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_COOLDOWN", Message: "Cooldown must be between 1 and 300 seconds"}, "422", "Unprocessable Entity"),
			}),
		),

		// GET /violations/today
		endpoint.New(
			endpoint.GET,
			"/violations/today",
			endpoint.WithTags("Violations"),
			endpoint.WithSummary("Identities logged today"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(TodayResponse{}, "200", "Today's ledger"),
			}),
		),

		// GET /violations/history
		endpoint.New(
			endpoint.GET,
			"/violations/history",
			endpoint.WithTags("Violations"),
			endpoint.WithSummary("Violation history for a day"),
			endpoint.WithDescription("Reads the history store. Only available when a database is configured."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("date", parameter.Query, parameter.WithDescription("Day in YYYY-MM-DD (default: today)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HistoryResponse{}, "200", "Violations for the day"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				errInternal,
				response.New(ErrorResponse{Code: "HISTORY_DISABLED", Message: "Violation history is not configured"}, "503", "Service Unavailable"),
			}),
		),

		// GET /compliance/config
		endpoint.New(
			endpoint.GET,
			"/compliance/config",
			endpoint.WithTags("Compliance"),
			endpoint.WithSummary("Current compliance rules"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ComplianceConfig{}, "200", "Active rule set"),
			}),
		),

		// POST /compliance/config
		endpoint.New(
			endpoint.POST,
			"/compliance/config",
			endpoint.WithTags("Compliance"),
			endpoint.WithSummary("Replace compliance rules"),
			endpoint.WithDescription("Replaces both class lists. A class in both lists stays non-compliant and is reported in duplicates_removed."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(UpdateConfigRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ConfigResponse{}, "200", "Rules updated"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				response.New(ErrorResponse{Code: "INVALID_MIN_CONFIDENCE", Message: "Minimum confidence must be between 0 and 1"}, "422", "Unprocessable Entity"),
				errInternal,
			}),
		),

		// POST /compliance/add-compliant
		endpoint.New(
			endpoint.POST,
			"/compliance/add-compliant",
			endpoint.WithTags("Compliance"),
			endpoint.WithSummary("Mark a class compliant"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(ClassRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ConfigResponse{}, "200", "Class added"),
			}),
			endpoint.WithErrors([]response.Response{errValidation, errInternal}),
		),

		// POST /compliance/add-non-compliant
		endpoint.New(
			endpoint.POST,
			"/compliance/add-non-compliant",
			endpoint.WithTags("Compliance"),
			endpoint.WithSummary("Mark a class non-compliant"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(ClassRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ConfigResponse{}, "200", "Class added"),
			}),
			endpoint.WithErrors([]response.Response{errValidation, errInternal}),
		),

		// POST /compliance/remove-class
		endpoint.New(
			endpoint.POST,
			"/compliance/remove-class",
			endpoint.WithTags("Compliance"),
			endpoint.WithSummary("Make a class neutral"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(ClassRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ConfigResponse{}, "200", "Class removed"),
			}),
			endpoint.WithErrors([]response.Response{errValidation, errInternal}),
		),

		// GET /compliance/detected-classes
		endpoint.New(
			endpoint.GET,
			"/compliance/detected-classes",
			endpoint.WithTags("Compliance"),
			endpoint.WithSummary("Classes seen by the detector"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DetectedClassesResponse{}, "200", "Classes seen since start"),
			}),
		),

		// GET /health
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is alive"),
			}),
		),

		// GET /ready
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ReadyResponse{}, "200", "All dependencies ready"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ReadyResponse{Status: "not_ready"}, "503", "A dependency is unavailable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
