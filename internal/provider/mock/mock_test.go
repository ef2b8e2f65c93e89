package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dressguard/dressguard/internal/domain"
)

func testImage(size int, seed byte) []byte {
	image := make([]byte, size)
	for i := range image {
		image[i] = byte(i) + seed
	}
	return image
}

func TestProvider_Detect(t *testing.T) {
	p := New()
	ctx := context.Background()

	t.Run("rejects small images", func(t *testing.T) {
		_, err := p.Detect(ctx, testImage(10, 0))
		assert.ErrorIs(t, err, domain.ErrInvalidImage)
	})

	t.Run("deterministic", func(t *testing.T) {
		image := testImage(2000, 7)

		first, err := p.Detect(ctx, image)
		require.NoError(t, err)
		second, err := p.Detect(ctx, image)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		require.Len(t, first, 2)
		assert.Equal(t, "pants", first[1].Class)
		for _, d := range first {
			assert.True(t, d.BBox.Valid())
			assert.GreaterOrEqual(t, d.Confidence, 0.5)
			assert.LessOrEqual(t, d.Confidence, 1.0)
		}
	})

	t.Run("fixed detections", func(t *testing.T) {
		fixed := domain.Detection{Class: "shorts", Confidence: 0.9}
		got, err := New(WithDetections(fixed)).Detect(ctx, testImage(2000, 0))
		require.NoError(t, err)
		assert.Equal(t, []domain.Detection{fixed}, got)
	})
}

func TestProvider_Identify(t *testing.T) {
	ctx := context.Background()

	faces, err := New().Identify(ctx, testImage(2000, 0))
	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.True(t, faces[0].IsUnknown())

	alice := domain.FaceResult{Name: "Alice", Confidence: 91}
	faces, err = New(WithFaces(alice)).Identify(ctx, testImage(2000, 0))
	require.NoError(t, err)
	assert.Equal(t, []domain.FaceResult{alice}, faces)

	faces, err = New(WithFaces()).Identify(ctx, testImage(2000, 0))
	require.NoError(t, err)
	assert.Empty(t, faces)

	_, err = New().Identify(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}
