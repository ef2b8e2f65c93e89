package rekognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"golang.org/x/image/draw"

	"github.com/dressguard/dressguard/internal/domain"
	"github.com/dressguard/dressguard/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100
	// facePadding widens each face crop by this fraction of the box on every side
	facePadding = 0.15
)

// Provider implements provider.Detector and provider.FaceIdentifier using AWS Rekognition.
// Labels with instance boxes become detections; faces are searched one by one
// against the configured collection.
type Provider struct {
	client *Client
	logger *slog.Logger
}

var (
	_ provider.Detector       = (*Provider)(nil)
	_ provider.FaceIdentifier = (*Provider)(nil)
)

// NewProvider creates a new Rekognition provider and makes sure its collection exists
func NewProvider(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}

	if err := client.EnsureCollection(ctx); err != nil {
		return nil, fmt.Errorf("ensure collection %s: %w", cfg.CollectionID, err)
	}

	return &Provider{
		client: client,
		logger: logger.With("component", "rekognition"),
	}, nil
}

// Detect returns one detection per label instance that carries a bounding box
func (p *Provider) Detect(ctx context.Context, img []byte) ([]domain.Detection, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}

	cfg := p.client.config
	output, err := p.client.rekognition.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: img},
		MaxLabels:     aws.Int32(cfg.MaxLabels),
		MinConfidence: aws.Float32(cfg.MinLabelConfidence),
	})
	if err != nil {
		return nil, mapAPIError("detect labels", err)
	}

	detections := make([]domain.Detection, 0, len(output.Labels))
	for _, label := range output.Labels {
		name := aws.ToString(label.Name)
		if name == "" {
			continue
		}
		for _, inst := range label.Instances {
			if inst.BoundingBox == nil {
				continue
			}
			confidence := aws.ToFloat32(inst.Confidence)
			if confidence == 0 {
				confidence = aws.ToFloat32(label.Confidence)
			}
			detections = append(detections, domain.Detection{
				Class:      name,
				Confidence: float64(confidence) / 100.0,
				BBox:       toBox(inst.BoundingBox),
			})
		}
	}

	return detections, nil
}

// Identify detects faces and searches each one in the collection.
// Faces without a match above the threshold are returned as domain.Unknown.
func (p *Provider) Identify(ctx context.Context, img []byte) ([]domain.FaceResult, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}

	output, err := p.client.rekognition.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{Bytes: img},
	})
	if err != nil {
		if isNoFaceError(err) {
			return []domain.FaceResult{}, nil
		}
		return nil, mapAPIError("detect faces", err)
	}

	if len(output.FaceDetails) == 0 {
		return []domain.FaceResult{}, nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	faces := make([]domain.FaceResult, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}
		box := toBox(detail.BoundingBox)
		face := domain.FaceResult{
			Name:       domain.Unknown,
			Confidence: float64(aws.ToFloat32(detail.Confidence)),
			BBox:       box,
		}

		crop, err := cropJPEG(decoded, box)
		if err != nil {
			p.logger.Warn("face crop failed", "error", err)
			faces = append(faces, face)
			continue
		}

		match, err := p.searchFace(ctx, crop)
		if err != nil {
			return nil, err
		}
		if match != nil && match.Face != nil {
			face.Name = aws.ToString(match.Face.ExternalImageId)
			face.UserID = aws.ToString(match.Face.FaceId)
			face.Confidence = float64(aws.ToFloat32(match.Similarity))
			if face.Name == "" {
				face.Name = domain.Unknown
				face.UserID = ""
			}
		}
		faces = append(faces, face)
	}

	return faces, nil
}

// searchFace returns the best collection match for a single face crop, or nil
func (p *Provider) searchFace(ctx context.Context, crop []byte) (*types.FaceMatch, error) {
	cfg := p.client.config
	output, err := p.client.rekognition.SearchFacesByImage(ctx, &rekognition.SearchFacesByImageInput{
		CollectionId:       aws.String(cfg.CollectionID),
		Image:              &types.Image{Bytes: crop},
		MaxFaces:           aws.Int32(1),
		FaceMatchThreshold: aws.Float32(cfg.FaceMatchThreshold),
	})
	if err != nil {
		// Crops Rekognition cannot find a face in stay Unknown
		if isNoFaceError(err) {
			return nil, nil
		}
		return nil, mapAPIError("search faces by image", err)
	}

	if len(output.FaceMatches) == 0 {
		return nil, nil
	}
	best := output.FaceMatches[0]
	for _, m := range output.FaceMatches[1:] {
		if aws.ToFloat32(m.Similarity) > aws.ToFloat32(best.Similarity) {
			best = m
		}
	}
	return &best, nil
}

// toBox converts a Rekognition Left/Top/Width/Height box to normalized corners
func toBox(b *types.BoundingBox) domain.BoundingBox {
	left := float64(aws.ToFloat32(b.Left))
	top := float64(aws.ToFloat32(b.Top))
	return provider.ClampBox(domain.BoundingBox{
		X1: left,
		Y1: top,
		X2: left + float64(aws.ToFloat32(b.Width)),
		Y2: top + float64(aws.ToFloat32(b.Height)),
	})
}

// cropJPEG cuts a padded face region out of img and encodes it as JPEG
func cropJPEG(img image.Image, box domain.BoundingBox) ([]byte, error) {
	bounds := img.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	padX := (box.X2 - box.X1) * facePadding
	padY := (box.Y2 - box.Y1) * facePadding
	padded := provider.ClampBox(domain.BoundingBox{
		X1: box.X1 - padX,
		Y1: box.Y1 - padY,
		X2: box.X2 + padX,
		Y2: box.Y2 + padY,
	})

	rect := image.Rect(
		bounds.Min.X+int(padded.X1*w),
		bounds.Min.Y+int(padded.Y1*h),
		bounds.Min.X+int(padded.X2*w),
		bounds.Min.Y+int(padded.Y2*h),
	)
	if rect.Empty() {
		return nil, fmt.Errorf("empty face region %v", rect)
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode face crop: %w", err)
	}
	return buf.Bytes(), nil
}

// validateImage checks the payload size against Rekognition limits
func validateImage(img []byte) error {
	if len(img) < minImageSize {
		return domain.ErrInvalidImage
	}
	if len(img) > maxImageSize {
		return domain.ErrImageTooLarge
	}
	return nil
}
