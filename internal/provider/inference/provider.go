package inference

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/dressguard/dressguard/internal/domain"
	"github.com/dressguard/dressguard/internal/provider"
)

// Provider implements provider.Detector and provider.FaceIdentifier on top
// of the inference sidecar
type Provider struct {
	client *Client
}

var (
	_ provider.Detector       = (*Provider)(nil)
	_ provider.FaceIdentifier = (*Provider)(nil)
)

// NewProvider creates a new inference provider
func NewProvider(cfg Config) *Provider {
	return &Provider{client: NewClient(cfg)}
}

// Client exposes the underlying HTTP client for health checks
func (p *Provider) Client() *Client {
	return p.client
}

func (p *Provider) Detect(ctx context.Context, image []byte) ([]domain.Detection, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage
	}

	resp, err := p.client.Detect(ctx, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	detections := make([]domain.Detection, 0, len(resp.Detections))
	for _, d := range resp.Detections {
		detections = append(detections, domain.Detection{
			Class:      d.Class,
			Confidence: d.Confidence,
			BBox:       normalize(d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3], resp.Width, resp.Height),
		})
	}
	return detections, nil
}

func (p *Provider) Identify(ctx context.Context, image []byte) ([]domain.FaceResult, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage
	}

	resp, err := p.client.Identify(ctx, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		return nil, fmt.Errorf("identify: %w", err)
	}

	faces := make([]domain.FaceResult, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		name := f.Name
		if name == "" {
			name = domain.Unknown
		}
		face := domain.FaceResult{
			Name:       name,
			Confidence: f.Confidence,
			BBox: normalize(
				float64(f.Box.Left), float64(f.Box.Top),
				float64(f.Box.Right), float64(f.Box.Bottom),
				resp.Width, resp.Height,
			),
		}
		if f.UserID != nil {
			face.UserID = *f.UserID
		}
		faces = append(faces, face)
	}
	return faces, nil
}

// normalize converts a pixel box to image-relative coordinates. Without image
// dimensions the box is assumed to be normalized already.
func normalize(x1, y1, x2, y2 float64, width, height int) domain.BoundingBox {
	box := domain.BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
	if width > 0 && height > 0 {
		w, h := float64(width), float64(height)
		box = domain.BoundingBox{X1: x1 / w, Y1: y1 / h, X2: x2 / w, Y2: y2 / h}
	}
	return provider.ClampBox(box)
}
