// Package overlay implements interactive region selection: a fullscreen
// dimmed rendition of the captured screen on which the user drags out a
// rectangle.
package overlay

import (
	"snapocr/geometry"
)

// MinSelectionSize is the smallest width and height a selection may
// have. Releasing anything smaller cancels the selection, so a stray
// click never produces a sliver capture.
const MinSelectionSize = 5

// State is the phase of one selection drag.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Machine tracks one selection drag from first press to release or
// cancel. Coordinates are capture-local; callers clamp before feeding.
// Completed and Cancelled are terminal: further events are ignored.
type Machine struct {
	state State
	start geometry.Point
	last  geometry.Point
}

func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

func (m *Machine) State() State { return m.state }

// Done reports whether the drag reached a terminal state.
func (m *Machine) Done() bool {
	return m.state == StateCompleted || m.state == StateCancelled
}

// Press anchors a drag at p. A second press while already dragging
// restarts from the new anchor; the last press wins.
func (m *Machine) Press(p geometry.Point) {
	if m.Done() {
		return
	}
	m.state = StateDragging
	m.start = p
	m.last = p
}

// Move extends the drag to p. Ignored unless dragging.
func (m *Machine) Move(p geometry.Point) {
	if m.state != StateDragging {
		return
	}
	m.last = p
}

// Release finishes the drag at p. A selection smaller than
// MinSelectionSize in either dimension cancels instead of completing.
func (m *Machine) Release(p geometry.Point) {
	if m.state != StateDragging {
		return
	}
	m.last = p
	r := m.Rect()
	if r.Width < MinSelectionSize || r.Height < MinSelectionSize {
		m.state = StateCancelled
		return
	}
	m.state = StateCompleted
}

// Cancel aborts the selection in any non-completed phase.
func (m *Machine) Cancel() {
	if m.state == StateCompleted {
		return
	}
	m.state = StateCancelled
}

// Rect is the rectangle spanned by the anchor and the latest point.
// Its dimensions are exactly the absolute pointer travel on each axis.
// Zero until the first press.
func (m *Machine) Rect() geometry.Rect {
	if m.state == StateIdle {
		return geometry.Rect{}
	}
	return geometry.RectFromCorners(m.start, m.last)
}
