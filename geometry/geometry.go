// Package geometry holds the screen-coordinate primitives shared by the
// overlay, the review panel, and the pinned windows, plus the panel
// placement algorithm.
package geometry

// Point is a location in virtual-screen coordinates.
type Point struct {
	X int
	Y int
}

// Rect is an axis-aligned rectangle in virtual-screen coordinates. Width
// and Height count pixels; the right and bottom edges are exclusive.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Rect) Right() int  { return r.X + r.Width }
func (r Rect) Bottom() int { return r.Y + r.Height }

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Intersects reports whether r and other share at least one pixel.
func (r Rect) Intersects(other Rect) bool {
	if r.Empty() || other.Empty() {
		return false
	}
	return r.X < other.Right() && other.X < r.Right() &&
		r.Y < other.Bottom() && other.Y < r.Bottom()
}

// Inside reports whether r lies fully within a screen of the given size.
func (r Rect) Inside(screenWidth, screenHeight int) bool {
	return r.X >= 0 && r.Y >= 0 && r.Right() <= screenWidth && r.Bottom() <= screenHeight
}

// RectFromCorners normalizes two drag corners into a rectangle. The corners
// may be given in any order.
func RectFromCorners(a, b Point) Rect {
	left, right := a.X, b.X
	if left > right {
		left, right = right, left
	}
	top, bottom := a.Y, b.Y
	if top > bottom {
		top, bottom = bottom, top
	}
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
}

// ClampPoint limits p to valid pixel positions on a screen of the given
// size.
func ClampPoint(p Point, screenWidth, screenHeight int) Point {
	return Point{
		X: clamp(p.X, 0, screenWidth-1),
		Y: clamp(p.Y, 0, screenHeight-1),
	}
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

// PanelGap is the spacing inserted between a selection and a panel placed
// next to it.
const PanelGap = 10

// PlacePanel returns the top-left corner for a panel of the given size so
// that it does not overlap the selection and stays fully on screen where
// possible. Candidates are tried in a fixed order, first fit wins: right of
// the selection, left, below, above. When none fits, the panel is clamped
// to the right screen edge at the selection's vertical position and may
// overlap the selection.
func PlacePanel(sel Rect, panelWidth, panelHeight, screenWidth, screenHeight int) Point {
	if x := sel.Right() + PanelGap; x+panelWidth <= screenWidth {
		return Point{X: x, Y: sel.Y}
	}
	if x := sel.X - PanelGap - panelWidth; x >= 0 {
		return Point{X: x, Y: sel.Y}
	}
	if y := sel.Bottom() + PanelGap; y+panelHeight <= screenHeight {
		return Point{X: sel.X, Y: y}
	}
	if y := sel.Y - PanelGap - panelHeight; y >= 0 {
		return Point{X: sel.X, Y: y}
	}
	return Point{X: screenWidth - panelWidth - PanelGap, Y: sel.Y}
}

// ClampToScreen shifts the rectangle of the given size at pos so it stays
// on screen, preferring to keep the top-left visible when the rectangle is
// larger than the screen.
func ClampToScreen(pos Point, width, height, screenWidth, screenHeight int) Point {
	x := pos.X
	if x+width > screenWidth {
		x = screenWidth - width
	}
	if x < 0 {
		x = 0
	}
	y := pos.Y
	if y+height > screenHeight {
		y = screenHeight - height
	}
	if y < 0 {
		y = 0
	}
	return Point{X: x, Y: y}
}
