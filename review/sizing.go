package review

import (
	"strings"
	"unicode/utf8"

	"snapocr/recognize"
)

// NoTextPlaceholder is shown in the panel body when recognition found
// nothing. Accept is a no-op for such results.
const NoTextPlaceholder = "no text detected"

// Panel sizing bounds. The panel grows with its content between these.
const (
	MinWidth  = 200
	MinHeight = 100
	MaxWidth  = 400
	MaxHeight = 300

	PanelPadding = 10

	// Rough per-character and per-line pixel estimates used to size
	// the panel before it is realized.
	charWidth  = 8
	lineHeight = 18
	// Room for the button row under the text.
	buttonRowHeight = 40
)

// DisplayText renders the panel body for a result. Markup gets its own
// labelled block under the text.
func DisplayText(res recognize.Result) string {
	text := strings.TrimSpace(res.Text)
	markup := strings.TrimSpace(res.Markup)
	switch {
	case text == "" && markup == "":
		return NoTextPlaceholder
	case markup == "":
		return text
	case text == "":
		return "[LaTeX]:\n" + markup
	default:
		return text + "\n\n[LaTeX]:\n" + markup
	}
}

// PanelSize estimates the panel dimensions for a body, clamped to the
// Min/Max bounds.
func PanelSize(body string) (width, height int) {
	lines := strings.Split(body, "\n")
	maxLine := 0
	for _, line := range lines {
		if n := utf8.RuneCountInString(line); n > maxLine {
			maxLine = n
		}
	}
	width = clampInt(maxLine*charWidth+PanelPadding*2, MinWidth, MaxWidth)
	height = clampInt(len(lines)*lineHeight+PanelPadding*2+buttonRowHeight, MinHeight, MaxHeight)
	return width, height
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
