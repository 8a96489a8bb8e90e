package overlay

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"snapocr/geometry"
)

func captureFixture(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(50 + x), G: uint8(100 + y), B: 200, A: 255})
		}
	}
	return img
}

func TestFrameDimsEverythingWithoutSelection(t *testing.T) {
	base := captureFixture(40, 30)
	c := NewCompositor(base)
	frame := c.Frame(geometry.Rect{})

	orig := base.RGBAAt(10, 10)
	got := frame.RGBAAt(10, 10)
	want := color.RGBA{R: dimChannel(orig.R), G: dimChannel(orig.G), B: dimChannel(orig.B), A: 255}
	if got != want {
		t.Errorf("dimmed pixel = %v, want %v (from %v)", got, want, orig)
	}
	if got.R >= orig.R {
		t.Errorf("dimming did not darken: %d >= %d", got.R, orig.R)
	}
}

func TestFrameKeepsSelectionInteriorUntouched(t *testing.T) {
	base := captureFixture(100, 80)
	c := NewCompositor(base)
	sel := geometry.Rect{X: 20, Y: 20, Width: 30, Height: 20}
	frame := c.Frame(sel)

	for _, p := range []image.Point{{20, 20}, {35, 30}, {49, 39}} {
		if got, want := frame.RGBAAt(p.X, p.Y), base.RGBAAt(p.X, p.Y); got != want {
			t.Errorf("interior pixel at %v = %v, want untouched %v", p, got, want)
		}
	}

	// Outside the border the capture stays dimmed.
	out := base.RGBAAt(5, 5)
	if got := frame.RGBAAt(5, 5); got.R != dimChannel(out.R) {
		t.Errorf("exterior pixel not dimmed: %v", got)
	}
}

func TestFrameDrawsAccentBorder(t *testing.T) {
	base := captureFixture(100, 80)
	c := NewCompositor(base)
	sel := geometry.Rect{X: 20, Y: 20, Width: 30, Height: 20}
	frame := c.Frame(sel)

	// Border sits just outside the selection on all four sides.
	for _, p := range []image.Point{
		{20, 19}, {49, 18}, // top
		{20, 40}, {49, 41}, // bottom
		{19, 20}, {18, 39}, // left
		{50, 20}, {51, 39}, // right
	} {
		if got := frame.RGBAAt(p.X, p.Y); got != accent {
			t.Errorf("border pixel at %v = %v, want %v", p, got, accent)
		}
	}
}

func TestFrameBorderClampedAtEdges(t *testing.T) {
	base := captureFixture(50, 50)
	c := NewCompositor(base)
	// Selection flush against the top-left corner; border strips would
	// fall outside the image and must be clipped, not panic.
	frame := c.Frame(geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10})
	if got, want := frame.RGBAAt(5, 5), base.RGBAAt(5, 5); got != want {
		t.Errorf("interior pixel = %v, want %v", got, want)
	}
}

func TestFrameBufferReuseResetsOldSelection(t *testing.T) {
	base := captureFixture(60, 60)
	c := NewCompositor(base)
	c.Frame(geometry.Rect{X: 10, Y: 10, Width: 20, Height: 20})
	frame := c.Frame(geometry.Rect{X: 40, Y: 40, Width: 10, Height: 10})

	// The previous selection area must be dimmed again.
	orig := base.RGBAAt(15, 15)
	if got := frame.RGBAAt(15, 15); got.R != dimChannel(orig.R) {
		t.Errorf("stale selection pixel not re-dimmed: %v", got)
	}
	// And the new one bright.
	if got, want := frame.RGBAAt(45, 45), base.RGBAAt(45, 45); got != want {
		t.Errorf("new selection pixel = %v, want %v", got, want)
	}
}

func TestFramePNGDecodes(t *testing.T) {
	c := NewCompositor(captureFixture(32, 24))
	data, err := c.FramePNG(geometry.Rect{X: 5, Y: 5, Width: 10, Height: 10})
	if err != nil {
		t.Fatalf("FramePNG() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
		t.Errorf("frame bounds = %v, want 32x24", b)
	}
}
