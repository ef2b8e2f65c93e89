package provider

import (
	"context"

	"github.com/dressguard/dressguard/internal/domain"
)

// Detector finds clothing items in an encoded image
type Detector interface {
	// Detect returns every item found; an empty slice is not an error
	Detect(ctx context.Context, image []byte) ([]domain.Detection, error)
}

// FaceIdentifier finds faces and matches them against known people
type FaceIdentifier interface {
	// Identify returns one result per face; unmatched faces are named domain.Unknown
	Identify(ctx context.Context, image []byte) ([]domain.FaceResult, error)
}

// ClampBox limits a normalized box to the unit square.
func ClampBox(b domain.BoundingBox) domain.BoundingBox {
	return domain.BoundingBox{
		X1: clamp01(b.X1),
		Y1: clamp01(b.Y1),
		X2: clamp01(b.X2),
		Y2: clamp01(b.Y2),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
