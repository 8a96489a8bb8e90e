package overlay

import (
	"testing"

	"snapocr/geometry"
)

func TestMachineCompletesDrag(t *testing.T) {
	m := NewMachine()
	if m.State() != StateIdle {
		t.Fatalf("initial state = %v, want idle", m.State())
	}
	m.Press(geometry.Point{X: 100, Y: 100})
	if m.State() != StateDragging {
		t.Fatalf("state after press = %v, want dragging", m.State())
	}
	m.Move(geometry.Point{X: 250, Y: 180})
	m.Release(geometry.Point{X: 400, Y: 300})
	if m.State() != StateCompleted {
		t.Fatalf("state after release = %v, want completed", m.State())
	}
	want := geometry.Rect{X: 100, Y: 100, Width: 300, Height: 200}
	if got := m.Rect(); got != want {
		t.Errorf("Rect() = %v, want %v", got, want)
	}
}

func TestMachineRectMatchesPointerTravel(t *testing.T) {
	// Dragging up-left must yield the same rectangle as down-right.
	m := NewMachine()
	m.Press(geometry.Point{X: 400, Y: 300})
	m.Release(geometry.Point{X: 100, Y: 100})
	want := geometry.Rect{X: 100, Y: 100, Width: 300, Height: 200}
	if got := m.Rect(); got != want {
		t.Errorf("Rect() = %v, want %v", got, want)
	}
}

func TestMachineTinySelectionCancels(t *testing.T) {
	m := NewMachine()
	m.Press(geometry.Point{X: 50, Y: 50})
	m.Release(geometry.Point{X: 53, Y: 80})
	if m.State() != StateCancelled {
		t.Errorf("state = %v, want cancelled for sub-minimum width", m.State())
	}

	m = NewMachine()
	m.Press(geometry.Point{X: 50, Y: 50})
	m.Release(geometry.Point{X: 55, Y: 55})
	if m.State() != StateCompleted {
		t.Errorf("state = %v, want completed for exactly minimum size", m.State())
	}
}

func TestMachineClickWithoutDragCancels(t *testing.T) {
	m := NewMachine()
	m.Press(geometry.Point{X: 10, Y: 10})
	m.Release(geometry.Point{X: 10, Y: 10})
	if m.State() != StateCancelled {
		t.Errorf("state = %v, want cancelled for zero-size click", m.State())
	}
}

func TestMachineLastPressWins(t *testing.T) {
	m := NewMachine()
	m.Press(geometry.Point{X: 10, Y: 10})
	m.Move(geometry.Point{X: 60, Y: 60})
	m.Press(geometry.Point{X: 200, Y: 200})
	m.Release(geometry.Point{X: 260, Y: 250})
	want := geometry.Rect{X: 200, Y: 200, Width: 60, Height: 50}
	if got := m.Rect(); got != want {
		t.Errorf("Rect() = %v, want %v from the second anchor", got, want)
	}
}

func TestMachineCancel(t *testing.T) {
	m := NewMachine()
	m.Cancel()
	if m.State() != StateCancelled {
		t.Errorf("cancel from idle: state = %v", m.State())
	}

	m = NewMachine()
	m.Press(geometry.Point{X: 10, Y: 10})
	m.Move(geometry.Point{X: 100, Y: 100})
	m.Cancel()
	if m.State() != StateCancelled {
		t.Errorf("cancel mid-drag: state = %v", m.State())
	}
}

func TestMachineTerminalStatesIgnoreInput(t *testing.T) {
	m := NewMachine()
	m.Press(geometry.Point{X: 0, Y: 0})
	m.Release(geometry.Point{X: 100, Y: 100})
	want := m.Rect()

	m.Press(geometry.Point{X: 500, Y: 500})
	m.Move(geometry.Point{X: 600, Y: 600})
	m.Cancel()
	if m.State() != StateCompleted {
		t.Errorf("completed state changed to %v", m.State())
	}
	if got := m.Rect(); got != want {
		t.Errorf("Rect() changed after completion: %v != %v", got, want)
	}

	m = NewMachine()
	m.Cancel()
	m.Press(geometry.Point{X: 1, Y: 1})
	if m.State() != StateCancelled {
		t.Errorf("cancelled state changed to %v", m.State())
	}
}

func TestMachineMoveIgnoredWhenIdle(t *testing.T) {
	m := NewMachine()
	m.Move(geometry.Point{X: 50, Y: 50})
	if m.State() != StateIdle {
		t.Errorf("state = %v, want idle", m.State())
	}
	if got := m.Rect(); got != (geometry.Rect{}) {
		t.Errorf("Rect() = %v, want zero before first press", got)
	}
}
