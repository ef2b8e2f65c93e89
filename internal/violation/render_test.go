package violation

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"

	"github.com/dressguard/dressguard/internal/domain"
)

func whiteFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func TestRender_ColorsByCompliance(t *testing.T) {
	frame := whiteFrame(200, 200)
	dets := []domain.Detection{
		{Class: "Shorts", Confidence: 0.9, BBox: domain.BoundingBox{X1: 0.5, Y1: 0.7, X2: 0.9, Y2: 0.95}},
		{Class: "pants", Confidence: 0.8, BBox: domain.BoundingBox{X1: 0.05, Y1: 0.7, X2: 0.3, Y2: 0.95}},
	}

	render(frame, dets, nil, []string{"shorts"}, time.Now())

	assert.Equal(t, colorNonCompliant, frame.RGBAAt(100, 170), "left edge of the non-compliant box")
	assert.Equal(t, colorCompliant, frame.RGBAAt(10, 170), "left edge of the compliant box")
}

func TestRender_FaceColors(t *testing.T) {
	frame := whiteFrame(200, 200)
	faces := []domain.FaceResult{
		{Name: "Alice", Confidence: 90, BBox: domain.BoundingBox{X1: 0.1, Y1: 0.65, X2: 0.3, Y2: 0.8}},
		{Name: domain.Unknown, Confidence: 20, BBox: domain.BoundingBox{X1: 0.6, Y1: 0.65, X2: 0.8, Y2: 0.8}},
	}

	render(frame, nil, faces, nil, time.Now())

	assert.Equal(t, colorKnown, frame.RGBAAt(20, 140))
	assert.Equal(t, colorUnknown, frame.RGBAAt(120, 140))
}

func TestRender_BannerDarkensTop(t *testing.T) {
	frame := whiteFrame(300, 200)

	render(frame, nil, nil, nil, time.Now())

	top := frame.RGBAAt(299, bannerHeight-1)
	assert.Less(t, top.R, uint8(100))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, frame.RGBAAt(299, bannerHeight+5))
}

func TestRender_SkipsInvalidBoxes(t *testing.T) {
	frame := whiteFrame(100, 200)
	dets := []domain.Detection{{Class: "shorts", BBox: domain.BoundingBox{X1: 0.5, Y1: 0.9, X2: 0.5, Y2: 0.9}}}

	assert.NotPanics(t, func() {
		render(frame, dets, nil, []string{"shorts"}, time.Now())
	})
}

func TestCloneFrame_OwnsPixels(t *testing.T) {
	src := whiteFrame(40, 30)
	sub := src.SubImage(image.Rect(10, 10, 30, 30))

	clone := cloneFrame(sub)
	src.SetRGBA(15, 15, color.RGBA{A: 255})

	assert.Equal(t, image.Rect(0, 0, 20, 20), clone.Bounds())
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, clone.RGBAAt(5, 5))
}

func TestEvidenceFilename(t *testing.T) {
	at := time.Date(2026, 10, 19, 8, 5, 3, 42*int(time.Millisecond), time.Local)

	name := evidenceFilename(at)

	assert.Regexp(t, `^violation_20261019_080503_042_[0-9a-f]{8}\.jpg$`, name)
	assert.NotEqual(t, name, evidenceFilename(at))
}

func TestWriteJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.jpg")

	require.NoError(t, writeJPEG(path, whiteFrame(64, 48), 90))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
}

func TestWriteJPEG_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "evidence.jpg")

	assert.Error(t, writeJPEG(path, whiteFrame(8, 8), 90))
	assert.NoFileExists(t, path)
}
