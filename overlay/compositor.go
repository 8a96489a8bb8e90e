package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"snapocr/geometry"
)

const (
	// dimNumerator/255 is the brightness kept outside the selection,
	// equivalent to a 40% black veil over the capture.
	dimNumerator = 153

	borderWidth = 2
)

// accent is the selection border color, deep sky blue.
var accent = color.RGBA{R: 0x00, G: 0xBF, B: 0xFF, A: 0xFF}

// Compositor renders overlay frames: the captured screen dimmed down,
// with the active selection shown at full brightness inside an accent
// border. The dimmed base is computed once; each frame reuses a single
// scratch buffer.
type Compositor struct {
	base   *image.RGBA
	dimmed *image.RGBA
	frame  *image.RGBA
	enc    png.Encoder
}

func NewCompositor(capture *image.RGBA) *Compositor {
	return &Compositor{
		base:   capture,
		dimmed: dimImage(capture),
		frame:  image.NewRGBA(capture.Bounds()),
		// Frames are transient; favor encode speed over size.
		enc: png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

// Frame renders the overlay for the given selection. A zero sel means
// nothing is selected yet and the whole screen stays dimmed. The
// returned image is reused by the next Frame call.
func (c *Compositor) Frame(sel geometry.Rect) *image.RGBA {
	copy(c.frame.Pix, c.dimmed.Pix)
	if sel.Empty() {
		return c.frame
	}
	interior := image.Rect(sel.X, sel.Y, sel.Right(), sel.Bottom()).Intersect(c.frame.Bounds())
	draw.Draw(c.frame, interior, c.base, interior.Min, draw.Src)
	drawBorder(c.frame, sel)
	return c.frame
}

// FramePNG renders the overlay and encodes it for display.
func (c *Compositor) FramePNG(sel geometry.Rect) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.enc.Encode(&buf, c.Frame(sel)); err != nil {
		return nil, fmt.Errorf("failed to encode overlay frame: %w", err)
	}
	return buf.Bytes(), nil
}

// drawBorder paints the accent border just outside the selection, so
// the interior pixels stay exactly the captured ones.
func drawBorder(img *image.RGBA, sel geometry.Rect) {
	src := image.NewUniform(accent)
	strips := []image.Rectangle{
		image.Rect(sel.X-borderWidth, sel.Y-borderWidth, sel.Right()+borderWidth, sel.Y),
		image.Rect(sel.X-borderWidth, sel.Bottom(), sel.Right()+borderWidth, sel.Bottom()+borderWidth),
		image.Rect(sel.X-borderWidth, sel.Y, sel.X, sel.Bottom()),
		image.Rect(sel.Right(), sel.Y, sel.Right()+borderWidth, sel.Bottom()),
	}
	for _, r := range strips {
		draw.Draw(img, r.Intersect(img.Bounds()), src, image.Point{}, draw.Src)
	}
}

func dimImage(src *image.RGBA) *image.RGBA {
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i+0] = dimChannel(out.Pix[i+0])
		out.Pix[i+1] = dimChannel(out.Pix[i+1])
		out.Pix[i+2] = dimChannel(out.Pix[i+2])
	}
	return out
}

func dimChannel(v uint8) uint8 {
	return uint8(uint16(v) * dimNumerator / 255)
}
