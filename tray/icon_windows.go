//go:build windows

package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
)

// encodeIcon wraps the rendered PNG in a single-entry ICO container.
// Windows tray icons must be ICO, but ICO entries may carry PNG data.
func encodeIcon(img image.Image) []byte {
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil
	}
	data := pngBuf.Bytes()

	var out bytes.Buffer
	// ICONDIR: reserved, type 1 (icon), one entry.
	binary.Write(&out, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY: 16x16, no palette, one plane, 32 bpp.
	out.Write([]byte{iconSize, iconSize, 0, 0})
	binary.Write(&out, binary.LittleEndian, [2]uint16{1, 32})
	binary.Write(&out, binary.LittleEndian, uint32(len(data)))
	binary.Write(&out, binary.LittleEndian, uint32(6+16))
	out.Write(data)
	return out.Bytes()
}
