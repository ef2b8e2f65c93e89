package mock

import (
	"context"
	"crypto/sha256"

	"github.com/dressguard/dressguard/internal/domain"
	"github.com/dressguard/dressguard/internal/provider"
)

const minImageSize = 1000

// Provider implements provider.Detector and provider.FaceIdentifier with
// deterministic results for tests and development
type Provider struct {
	detections []domain.Detection
	faces      []domain.FaceResult
}

type Option func(*Provider)

// WithDetections fixes the detections returned for every image
func WithDetections(d ...domain.Detection) Option {
	return func(p *Provider) {
		p.detections = append([]domain.Detection{}, d...)
	}
}

// WithFaces fixes the faces returned for every image
func WithFaces(f ...domain.FaceResult) Option {
	return func(p *Provider) {
		p.faces = append([]domain.FaceResult{}, f...)
	}
}

// New creates a mock provider. Without options the results are derived from
// the image hash so the same image always yields the same answer.
func New(opts ...Option) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Detect returns pants plus either shorts or a t-shirt, depending on the image
func (p *Provider) Detect(ctx context.Context, image []byte) ([]domain.Detection, error) {
	if len(image) < minImageSize {
		return nil, domain.ErrInvalidImage
	}
	if p.detections != nil {
		return append([]domain.Detection(nil), p.detections...), nil
	}

	hash := sha256.Sum256(image)
	top := "t-shirt"
	if hash[0]%2 == 0 {
		top = "full sleeves shirt"
	}
	return []domain.Detection{
		{Class: top, Confidence: 0.5 + float64(hash[1])/510, BBox: domain.BoundingBox{X1: 0.25, Y1: 0.3, X2: 0.75, Y2: 0.6}},
		{Class: "pants", Confidence: 0.5 + float64(hash[2])/510, BBox: domain.BoundingBox{X1: 0.3, Y1: 0.6, X2: 0.7, Y2: 0.95}},
	}, nil
}

// Identify returns a single face, unknown unless configured otherwise
func (p *Provider) Identify(ctx context.Context, image []byte) ([]domain.FaceResult, error) {
	if len(image) < minImageSize {
		return nil, domain.ErrInvalidImage
	}
	if p.faces != nil {
		return append([]domain.FaceResult(nil), p.faces...), nil
	}

	return []domain.FaceResult{
		{Name: domain.Unknown, Confidence: 0, BBox: domain.BoundingBox{X1: 0.4, Y1: 0.05, X2: 0.6, Y2: 0.3}},
	}, nil
}

var (
	_ provider.Detector       = (*Provider)(nil)
	_ provider.FaceIdentifier = (*Provider)(nil)
)
