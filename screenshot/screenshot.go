// Package screenshot captures the virtual screen and owns the pixel-level
// helpers the selection overlay and recognition pipeline work on.
package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/kbinani/screenshot"

	"snapocr/geometry"
)

// Snapshot is one full capture of the virtual screen (all displays
// combined). Selection rectangles are expressed in snapshot-local
// coordinates, so a Snapshot spans [0,0,Width,Height] regardless of where
// the displays sit in the virtual-screen coordinate space.
type Snapshot struct {
	Image *image.RGBA
	// Bounds is the captured union rectangle in virtual-screen
	// coordinates. Its origin can be negative on multi-display setups.
	Bounds image.Rectangle
}

func (s *Snapshot) Width() int  { return s.Bounds.Dx() }
func (s *Snapshot) Height() int { return s.Bounds.Dy() }

// ToLocal maps a virtual-screen point (as reported by the global input
// hook) into snapshot-local coordinates, clamped to the snapshot.
func (s *Snapshot) ToLocal(x, y int) geometry.Point {
	p := geometry.Point{X: x - s.Bounds.Min.X, Y: y - s.Bounds.Min.Y}
	return geometry.ClampPoint(p, s.Width(), s.Height())
}

// Capture captures the entire virtual screen across all active displays.
func Capture() (*Snapshot, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays found")
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	img, err := screenshot.CaptureRect(union)
	if err != nil {
		return nil, fmt.Errorf("failed to capture virtual screen: %w", err)
	}
	return &Snapshot{Image: img, Bounds: union}, nil
}

// PrimaryBounds returns the bounds of the primary display.
func PrimaryBounds() (image.Rectangle, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	return screenshot.GetDisplayBounds(0), nil
}

// Crop copies the given snapshot-local rectangle out of src into an owned
// buffer. The source image is left untouched.
func Crop(src *image.RGBA, r geometry.Rect) (*image.RGBA, error) {
	if r.Empty() {
		return nil, fmt.Errorf("invalid crop dimensions: width=%d, height=%d", r.Width, r.Height)
	}
	bounds := src.Bounds()
	if !r.Inside(bounds.Dx(), bounds.Dy()) {
		return nil, fmt.Errorf("crop %v outside snapshot %dx%d", r, bounds.Dx(), bounds.Dy())
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	srcRect := image.Rect(bounds.Min.X+r.X, bounds.Min.Y+r.Y, bounds.Min.X+r.Right(), bounds.Min.Y+r.Bottom())
	draw.Draw(out, out.Bounds(), src, srcRect.Min, draw.Src)
	return out, nil
}

// EncodePNG renders an image to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}
