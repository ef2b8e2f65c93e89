package violation

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/dressguard/dressguard/internal/domain"
)

const bannerHeight = 120

var (
	colorNonCompliant   = color.RGBA{R: 255, A: 255}
	colorNonCompliantBg = color.RGBA{R: 200, A: 255}
	colorCompliant      = color.RGBA{G: 255, A: 255}
	colorCompliantBg    = color.RGBA{G: 200, A: 255}
	colorUnknown        = color.RGBA{R: 255, G: 165, A: 255}
	colorUnknownBg      = color.RGBA{R: 255, G: 140, A: 255}
	colorKnown          = color.RGBA{R: 255, B: 255, A: 255}
	colorKnownBg        = color.RGBA{R: 200, B: 200, A: 255}
	colorPersons        = color.RGBA{G: 255, B: 255, A: 255}
	bannerAlpha         = color.Alpha{A: 178}
)

// cloneFrame copies src into a new zero-origin RGBA buffer owned by the caller.
func cloneFrame(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// render annotates frame in place with detection boxes, face boxes and the
// metadata banner.
func render(frame *image.RGBA, detections []domain.Detection, faces []domain.FaceResult, items []string, at time.Time) {
	nonCompliant := make(map[string]struct{}, len(items))
	for _, item := range items {
		nonCompliant[strings.ToLower(item)] = struct{}{}
	}

	for _, det := range detections {
		if !det.BBox.Valid() {
			continue
		}
		stroke, bg := colorCompliant, colorCompliantBg
		if _, ok := nonCompliant[strings.ToLower(det.Class)]; ok {
			stroke, bg = colorNonCompliant, colorNonCompliantBg
		}
		r := toPixels(det.BBox, frame.Bounds())
		strokeRect(frame, r, stroke, 2)
		labelAbove(frame, r, fmt.Sprintf("%s %.2f", det.Class, det.Confidence), bg)
	}

	for _, face := range faces {
		if !face.BBox.Valid() {
			continue
		}
		stroke, bg := colorKnown, colorKnownBg
		if face.IsUnknown() {
			stroke, bg = colorUnknown, colorUnknownBg
		}
		r := toPixels(face.BBox, frame.Bounds())
		strokeRect(frame, r, stroke, 3)
		labelBelow(frame, r, fmt.Sprintf("FACE: %s (%.1f%%)", displayName(face), face.Confidence), bg)
	}

	drawBanner(frame, faces, items, at)
}

func drawBanner(frame *image.RGBA, faces []domain.FaceResult, items []string, at time.Time) {
	b := frame.Bounds()
	banner := image.Rect(b.Min.X, b.Min.Y, b.Max.X, min(b.Min.Y+bannerHeight, b.Max.Y))
	draw.DrawMask(frame, banner, image.NewUniform(color.Black), image.Point{}, image.NewUniform(bannerAlpha), image.Point{}, draw.Over)

	x := b.Min.X + 10
	drawText(frame, x, b.Min.Y+25, "COMPLIANCE VIOLATION LOG", colorNonCompliant)
	drawText(frame, x, b.Min.Y+50, "Time: "+at.Format("2006-01-02 15:04:05"), color.White)
	if len(items) > 0 {
		drawText(frame, x, b.Min.Y+75, "Violations: "+strings.Join(items, ", "), colorNonCompliant)
	}
	if len(faces) > 0 {
		names := make([]string, len(faces))
		for i, face := range faces {
			names[i] = displayName(face)
		}
		drawText(frame, x, b.Min.Y+100, "Persons: "+strings.Join(names, ", "), colorPersons)
	}
}

func displayName(face domain.FaceResult) string {
	if face.IsUnknown() {
		return domain.Unknown
	}
	return face.Name
}

func toPixels(box domain.BoundingBox, bounds image.Rectangle) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	return image.Rect(
		bounds.Min.X+int(box.X1*w),
		bounds.Min.Y+int(box.Y1*h),
		bounds.Min.X+int(box.X2*w),
		bounds.Min.Y+int(box.Y2*h),
	).Intersect(bounds)
}

func strokeRect(img *image.RGBA, r image.Rectangle, c color.Color, thickness int) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(r), src, image.Point{}, draw.Src)
	}
}

func labelAbove(img *image.RGBA, r image.Rectangle, text string, bg color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Metrics().Height.Ceil()
	box := image.Rect(r.Min.X, r.Min.Y-height-6, r.Min.X+width+4, r.Min.Y)
	draw.Draw(img, box.Intersect(img.Bounds()), image.NewUniform(bg), image.Point{}, draw.Src)
	drawText(img, r.Min.X+2, r.Min.Y-5, text, color.White)
}

func labelBelow(img *image.RGBA, r image.Rectangle, text string, bg color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Metrics().Height.Ceil()
	box := image.Rect(r.Min.X, r.Max.Y, r.Min.X+width+10, r.Max.Y+height+10)
	draw.Draw(img, box.Intersect(img.Bounds()), image.NewUniform(bg), image.Point{}, draw.Src)
	drawText(img, r.Min.X+5, r.Max.Y+height+5, text, color.White)
}

func drawText(img *image.RGBA, x, y int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// evidenceFilename returns a name that sorts by capture time.
func evidenceFilename(at time.Time) string {
	return fmt.Sprintf("violation_%s_%03d_%s.jpg",
		at.Format("20060102_150405"),
		at.Nanosecond()/int(time.Millisecond),
		uuid.NewString()[:8],
	)
}

// writeJPEG encodes img next to path and renames it into place, so a failed
// write never leaves a partial evidence file.
func writeJPEG(path string, img image.Image, quality int) error {
	pending, err := renameio.TempFile(filepath.Dir(path), path)
	if err != nil {
		return fmt.Errorf("create evidence file: %w", err)
	}
	defer pending.Cleanup()

	if err := jpeg.Encode(pending, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("commit evidence file: %w", err)
	}
	return nil
}
