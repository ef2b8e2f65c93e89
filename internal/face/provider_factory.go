package face

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dressguard/dressguard/internal/config"
	"github.com/dressguard/dressguard/internal/provider"
	"github.com/dressguard/dressguard/internal/provider/inference"
	"github.com/dressguard/dressguard/internal/provider/mock"
	"github.com/dressguard/dressguard/internal/provider/rekognition"
)

// ProviderType defines supported detection and face provider types
type ProviderType string

const (
	// ProviderTypeMock is the deterministic in-process provider (dev/test)
	ProviderTypeMock ProviderType = "mock"
	// ProviderTypeInference is the HTTP model sidecar (YOLO + face recognition)
	ProviderTypeInference ProviderType = "inference"
	// ProviderTypeRekognition is the AWS Rekognition provider (cloud)
	ProviderTypeRekognition ProviderType = "rekognition"
)

// Providers is the pair of backends used to analyze a frame
type Providers struct {
	Detector   provider.Detector
	Identifier provider.FaceIdentifier
	// Inference is set when either backend talks to the sidecar, for health checks
	Inference *inference.Client
}

// NewProviders builds the detector and face identifier named in configuration.
// A backend selected for both roles is constructed once and shared.
//
// Environment variables:
//   - DETECTION_PROVIDER, FACE_PROVIDER: "mock", "inference" or "rekognition" (default: "mock")
//   - INFERENCE_URL: sidecar base URL (default: "http://localhost:5005")
//   - AWS_REGION, REKOGNITION_COLLECTION: Rekognition settings
//   - AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY: via the AWS SDK credential chain
func NewProviders(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Providers, error) {
	b := &builder{ctx: ctx, cfg: cfg, logger: logger}

	det, err := b.build(cfg.DetectionProvider)
	if err != nil {
		return nil, fmt.Errorf("detection provider: %w", err)
	}
	ident, err := b.build(cfg.FaceProvider)
	if err != nil {
		return nil, fmt.Errorf("face provider: %w", err)
	}

	p := &Providers{Detector: det, Identifier: ident}
	if b.inference != nil {
		p.Inference = b.inference.Client()
	}
	return p, nil
}

// backend satisfies both provider roles
type backend interface {
	provider.Detector
	provider.FaceIdentifier
}

type builder struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger

	mock        *mock.Provider
	inference   *inference.Provider
	rekognition *rekognition.Provider
}

func (b *builder) build(name string) (backend, error) {
	switch ProviderType(name) {
	case ProviderTypeMock, "":
		if b.mock == nil {
			b.mock = mock.New()
		}
		return b.mock, nil

	case ProviderTypeInference:
		if b.inference == nil {
			b.inference = createInferenceProvider(b.cfg)
		}
		return b.inference, nil

	case ProviderTypeRekognition:
		if b.rekognition == nil {
			prov, err := createRekognitionProvider(b.ctx, b.cfg, b.logger)
			if err != nil {
				return nil, err
			}
			b.rekognition = prov
		}
		return b.rekognition, nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			name, ProviderTypeMock, ProviderTypeInference, ProviderTypeRekognition)
	}
}

// createRekognitionProvider creates an AWS Rekognition provider instance
func createRekognitionProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*rekognition.Provider, error) {
	rekogConfig := rekognition.DefaultConfig()
	rekogConfig.Region = cfg.AWSRegion
	if cfg.RekognitionCollection != "" {
		rekogConfig.CollectionID = cfg.RekognitionCollection
	}

	prov, err := rekognition.NewProvider(ctx, rekogConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create rekognition provider: %w", err)
	}

	return prov, nil
}

// createInferenceProvider creates an inference sidecar provider instance
func createInferenceProvider(cfg *config.Config) *inference.Provider {
	infConfig := inference.DefaultConfig()
	if cfg.InferenceURL != "" {
		infConfig.BaseURL = cfg.InferenceURL
	}
	if cfg.DetectionMinConfidence > 0 {
		infConfig.MinConfidence = cfg.DetectionMinConfidence
	}

	return inference.NewProvider(infConfig)
}
