//go:build !windows

package tray

import (
	"bytes"
	"image"
	"image/png"
)

// encodeIcon returns plain PNG; that is what the tray wants everywhere
// except Windows.
func encodeIcon(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
