package overlay

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	. "modernc.org/tk9.0"

	"snapocr/geometry"
	"snapocr/gui"
	"snapocr/input"
	"snapocr/screenshot"
)

// frameInterval throttles overlay redraws during a drag. Full-screen
// frames are composed and PNG-encoded per redraw, so this bounds the
// pixel work, not the pointer sampling.
const frameInterval = 40 * time.Millisecond

// Selector is a synchronous region-selection API. The call blocks until
// the user finishes or cancels and MUST NOT be invoked from the UI
// goroutine. Returns (region, cancelled, error): if cancelled is true,
// region is undefined and err is nil.
type Selector interface {
	Select(ctx context.Context, snap *screenshot.Snapshot) (geometry.Rect, bool, error)
}

// TkSelector shows the dimmed fullscreen overlay as a Tk window.
// Pointer and key events come from the global input hook rather than Tk
// bindings, so the drag keeps working even if another topmost window
// steals focus mid-gesture.
type TkSelector struct {
	ui   *gui.Loop
	hook *input.Hook
}

func NewTkSelector(ui *gui.Loop, hook *input.Hook) *TkSelector {
	return &TkSelector{ui: ui, hook: hook}
}

func (s *TkSelector) Select(ctx context.Context, snap *screenshot.Snapshot) (geometry.Rect, bool, error) {
	log.Printf("OVERLAY: starting region selection on %dx%d capture", snap.Width(), snap.Height())

	machine := NewMachine()
	comp := NewCompositor(snap.Image)

	events, unsubscribe := s.hook.Subscribe(256)
	defer unsubscribe()

	firstFrame, err := comp.FramePNG(geometry.Rect{})
	if err != nil {
		return geometry.Rect{}, false, err
	}
	view := &overlayView{ui: s.ui}
	s.ui.Call(func() { view.open(snap.Bounds, firstFrame) })
	defer s.ui.Call(view.close)

	lastRender := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Printf("OVERLAY: selection aborted: %v", ctx.Err())
			return geometry.Rect{}, false, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return geometry.Rect{}, false, fmt.Errorf("input hook closed during selection")
			}
			feed(machine, snap, ev)
			switch machine.State() {
			case StateCompleted:
				r := machine.Rect()
				log.Printf("OVERLAY: selection completed: x=%d y=%d w=%d h=%d", r.X, r.Y, r.Width, r.Height)
				return r, false, nil
			case StateCancelled:
				log.Printf("OVERLAY: selection cancelled")
				return geometry.Rect{}, true, nil
			case StateDragging:
				if time.Since(lastRender) >= frameInterval {
					lastRender = time.Now()
					if frame, err := comp.FramePNG(machine.Rect()); err == nil {
						view.update(frame)
					}
				}
			}
		}
	}
}

// feed translates one global input event into a machine transition.
// Pointer coordinates arrive in virtual-screen space and are mapped to
// capture-local space here.
func feed(m *Machine, snap *screenshot.Snapshot, ev input.Event) {
	switch ev.Kind {
	case input.KeyDown:
		if ev.Rawcode == input.EscapeRawcode {
			m.Cancel()
		}
	case input.MouseDown:
		switch ev.Button {
		case input.ButtonPrimary:
			m.Press(snap.ToLocal(ev.X, ev.Y))
		case input.ButtonSecondary:
			m.Cancel()
		}
	case input.MouseMove, input.MouseDrag:
		m.Move(snap.ToLocal(ev.X, ev.Y))
	case input.MouseUp:
		if ev.Button == input.ButtonPrimary {
			m.Release(snap.ToLocal(ev.X, ev.Y))
		}
	}
}

// overlayView is the Tk side of the selector. All methods except update
// must run on the UI goroutine.
type overlayView struct {
	ui    *gui.Loop
	win   *ToplevelWidget
	label *LabelWidget
	photo *Img
}

func (v *overlayView) open(bounds image.Rectangle, frame []byte) {
	win := App.Toplevel(Background("black"))
	win.WmTitle("SnapOCR Selection")
	WmGeometry(win.Window, gui.FormatGeometry(geometry.Rect{
		X: bounds.Min.X, Y: bounds.Min.Y, Width: bounds.Dx(), Height: bounds.Dy(),
	}))
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-fullscreen", 1)
	v.photo = NewPhoto(Data(frame))
	v.label = win.Label(Image(v.photo), Borderwidth(0))
	Pack(v.label)
	v.win = win
}

// update swaps in a freshly rendered frame. Safe from the selector
// goroutine; it hops onto the UI thread itself.
func (v *overlayView) update(frame []byte) {
	v.ui.Post(func() {
		if v.win == nil {
			return
		}
		old := v.photo
		v.photo = NewPhoto(Data(frame))
		v.label.Configure(Image(v.photo))
		if old != nil {
			old.Delete()
		}
	})
}

func (v *overlayView) close() {
	if v.win != nil {
		Destroy(v.win)
		v.win = nil
	}
	if v.photo != nil {
		v.photo.Delete()
		v.photo = nil
	}
}
