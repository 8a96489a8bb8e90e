package gui

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"snapocr/geometry"
)

// geomRe matches window geometry strings in the format "WIDTHxHEIGHT+X+Y".
// Negative positions appear as "+-N", which is how Tk spells coordinates
// on displays left of or above the primary one.
var geomRe = regexp.MustCompile(`^(\d+)x(\d+)\+(-?\d+)\+(-?\d+)$`)

// ParseGeometry parses a Tk geometry string into a rectangle.
func ParseGeometry(g string) (geometry.Rect, bool) {
	g = strings.TrimSpace(g)
	m := geomRe.FindStringSubmatch(g)
	if len(m) != 5 {
		return geometry.Rect{}, false
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	x, _ := strconv.Atoi(m[3])
	y, _ := strconv.Atoi(m[4])
	if w <= 0 || h <= 0 {
		return geometry.Rect{}, false
	}
	return geometry.Rect{X: x, Y: y, Width: w, Height: h}, true
}

// FormatGeometry renders a rectangle as a Tk geometry string.
func FormatGeometry(r geometry.Rect) string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// FormatPosition renders a bare "+X+Y" move that keeps the current size.
func FormatPosition(x, y int) string {
	return fmt.Sprintf("+%d+%d", x, y)
}
