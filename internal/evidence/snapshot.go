// Package evidence crops, expands, and annotates a violation frame into a
// JPEG snapshot, using only the standard library's image stack (see
// DESIGN.md for why no third-party image-annotation library is used here).
package evidence

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/iancoleman/strcase"

	"github.com/trafficmind/violation-core/internal/vehicle"
)

// Options configures crop expansion and the minimum output canvas, mirroring
// config.Evidence.
type Options struct {
	ScreenshotDir string
	ExpandRatio   float64
	MinCanvasSide int
}

var violationRed = color.RGBA{R: 220, G: 20, B: 20, A: 255}

// Capture crops frame around bbox with ExpandRatio padding (clamped to the
// frame bounds and to a MinCanvasSide minimum), draws a red rectangle on the
// original bbox and a short label, encodes it as JPEG under a filename
// derived from violationID, and returns the file path.
func Capture(opts Options, frame image.Image, bbox vehicle.BBox, violationID string, label string) (string, error) {
	bounds := frame.Bounds()
	carW := bbox.X2 - bbox.X1
	carH := bbox.Y2 - bbox.Y1
	expandW := int(float64(carW) * opts.ExpandRatio)
	expandH := int(float64(carH) * opts.ExpandRatio)

	cropX1 := clamp(bbox.X1-expandW, bounds.Min.X, bounds.Max.X)
	cropY1 := clamp(bbox.Y1-expandH, bounds.Min.Y, bounds.Max.Y)
	cropX2 := clamp(bbox.X2+expandW, bounds.Min.X, bounds.Max.X)
	cropY2 := clamp(bbox.Y2+expandH, bounds.Min.Y, bounds.Max.Y)

	if cropX2-cropX1 < opts.MinCanvasSide {
		grow := opts.MinCanvasSide - (cropX2 - cropX1)
		cropX1 = clamp(cropX1-grow/2, bounds.Min.X, bounds.Max.X)
		cropX2 = clamp(cropX1+opts.MinCanvasSide, bounds.Min.X, bounds.Max.X)
	}
	if cropY2-cropY1 < opts.MinCanvasSide {
		grow := opts.MinCanvasSide - (cropY2 - cropY1)
		cropY1 = clamp(cropY1-grow/2, bounds.Min.Y, bounds.Max.Y)
		cropY2 = clamp(cropY1+opts.MinCanvasSide, bounds.Min.Y, bounds.Max.Y)
	}

	cropRect := image.Rect(cropX1, cropY1, cropX2, cropY2)
	canvas := image.NewRGBA(image.Rect(0, 0, cropRect.Dx(), cropRect.Dy()))
	draw.Draw(canvas, canvas.Bounds(), frame, cropRect.Min, draw.Src)

	boxX1, boxY1 := bbox.X1-cropX1, bbox.Y1-cropY1
	boxX2, boxY2 := bbox.X2-cropX1, bbox.Y2-cropY1
	drawRect(canvas, boxX1, boxY1, boxX2, boxY2, violationRed, 3)
	drawLabel(canvas, boxX1, boxY1-14, strcase.ToScreamingSnake(label))

	if err := os.MkdirAll(opts.ScreenshotDir, 0o755); err != nil {
		return "", fmt.Errorf("evidence: create screenshot dir: %w", err)
	}
	path := filepath.Join(opts.ScreenshotDir, fmt.Sprintf("%s.jpg", violationID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("evidence: create snapshot file: %w", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, canvas, &jpeg.Options{Quality: 90}); err != nil {
		return "", fmt.Errorf("evidence: encode snapshot: %w", err)
	}
	return path, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// drawRect strokes an axis-aligned rectangle of the given thickness.
func drawRect(img *image.RGBA, x1, y1, x2, y2 int, c color.Color, thickness int) {
	for t := 0; t < thickness; t++ {
		hLine(img, x1, x2, y1+t, c)
		hLine(img, x1, x2, y2-t, c)
		vLine(img, y1, y2, x1+t, c)
		vLine(img, y1, y2, x2-t, c)
	}
}

func hLine(img *image.RGBA, x1, x2, y int, c color.Color) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	for x := x1; x <= x2; x++ {
		if x >= b.Min.X && x < b.Max.X {
			img.Set(x, y, c)
		}
	}
}

func vLine(img *image.RGBA, y1, y2, x int, c color.Color) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	for y := y1; y <= y2; y++ {
		if y >= b.Min.Y && y < b.Max.Y {
			img.Set(x, y, c)
		}
	}
}

// drawLabel renders a coarse blocky label using filled glyph cells; the
// original used cv2.putText for the same single-word annotation, and a full
// font rasterizer would be a heavyweight dependency for one short label.
func drawLabel(img *image.RGBA, x, y int, text string) {
	const cell = 6
	b := img.Bounds()
	if y < b.Min.Y {
		y = b.Min.Y
	}
	for i := range text {
		cx := x + i*cell
		rect := image.Rect(cx, y, cx+cell-1, y+cell-1)
		draw.Draw(img, rect.Intersect(b), &image.Uniform{C: violationRed}, image.Point{}, draw.Src)
	}
}
