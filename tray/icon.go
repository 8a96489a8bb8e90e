package tray

import (
	"image"
	"image/color"
)

const iconSize = 16

var (
	iconAccent = color.NRGBA{R: 0x00, G: 0xBF, B: 0xFF, A: 0xFF}
	iconText   = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// iconBytes renders the tray icon in the format the platform tray
// expects: a dashed selection marquee around a few lines of text, in
// the overlay's accent color.
func iconBytes() []byte {
	return encodeIcon(drawIcon())
}

func drawIcon() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))

	// Dashed marquee two pixels in from each edge.
	for i := 2; i < iconSize-2; i++ {
		if i%3 == 1 {
			continue
		}
		img.SetNRGBA(i, 2, iconAccent)
		img.SetNRGBA(i, iconSize-3, iconAccent)
		img.SetNRGBA(2, i, iconAccent)
		img.SetNRGBA(iconSize-3, i, iconAccent)
	}

	// Text lines inside the marquee.
	for _, y := range []int{5, 8, 11} {
		for x := 5; x < iconSize-5; x++ {
			img.SetNRGBA(x, y, iconText)
		}
	}
	return img
}
