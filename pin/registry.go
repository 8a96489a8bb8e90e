// Package pin keeps recognition results on screen as small always-on-top
// windows after their review session ends. An explicit Registry owns every
// window, so bulk teardown from the tray never has to chase globals.
package pin

import (
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/google/uuid"

	"snapocr/geometry"
	"snapocr/gui"
	"snapocr/input"
	"snapocr/screenshot"
)

// Options configures a Registry.
type Options struct {
	UI   *gui.Loop
	Hook *input.Hook
	// CopyText delivers context-menu copies to the clipboard.
	CopyText func(text string) error
	// OnEmpty fires after the last window closes. One-shot captures use
	// it to know when the process may exit.
	OnEmpty func()
}

// Request describes one window to pin.
type Request struct {
	// Image is the cropped capture the window displays.
	Image image.Image
	// Text and Markup are the recognition output offered by the window's
	// context menu.
	Text   string
	Markup string
	// Position is the preferred top-left corner in global coordinates.
	Position geometry.Point
	// Screen is the virtual-screen rectangle used to keep the window
	// visible. A zero rectangle disables clamping.
	Screen image.Rectangle
}

// Registry tracks every open pinned window. A window leaves the registry
// exactly once, whether closed from its title bar, its context menu, or
// CloseAll.
type Registry struct {
	ui       *gui.Loop
	copyText func(string) error
	onEmpty  func()

	mu      sync.RWMutex
	windows map[string]*Window
}

// NewRegistry creates the registry and, when a hook is given, starts
// watching the global input stream for context-menu clicks.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		ui:       opts.UI,
		copyText: opts.CopyText,
		onEmpty:  opts.OnEmpty,
		windows:  make(map[string]*Window),
	}
	if opts.Hook != nil {
		events, _ := opts.Hook.Subscribe(128)
		go r.route(events)
	}
	return r
}

// Create opens a pinned window for the request and returns its id. Must
// not be called from the UI goroutine.
func (r *Registry) Create(req Request) (string, error) {
	if req.Image == nil {
		return "", fmt.Errorf("pin: request carries no image")
	}
	thumb := Thumbnail(req.Image)
	tb := thumb.Bounds()
	width, height := DisplaySize(tb.Dx(), tb.Dy())

	pos := req.Position
	if req.Screen.Dx() > 0 && req.Screen.Dy() > 0 {
		local := geometry.Point{X: pos.X - req.Screen.Min.X, Y: pos.Y - req.Screen.Min.Y}
		local = geometry.ClampToScreen(local, width, height, req.Screen.Dx(), req.Screen.Dy())
		pos = geometry.Point{X: local.X + req.Screen.Min.X, Y: local.Y + req.Screen.Min.Y}
	}

	frame, err := screenshot.EncodePNG(thumb)
	if err != nil {
		return "", fmt.Errorf("pin: encode thumbnail: %w", err)
	}

	w := &Window{
		ID:     uuid.NewString(),
		Text:   req.Text,
		Markup: req.Markup,
		reg:    r,
		rect:   geometry.Rect{X: pos.X, Y: pos.Y, Width: width, Height: height},
	}

	r.mu.Lock()
	r.windows[w.ID] = w
	count := len(r.windows)
	r.mu.Unlock()

	if r.ui != nil {
		r.ui.Call(func() { w.openView(frame) })
	}
	log.Printf("PIN: %s: pinned %dx%d window at (%d,%d), %d open",
		shortID(w.ID), width, height, pos.X, pos.Y, count)
	return w.ID, nil
}

// Window looks up an open window by id.
func (r *Registry) Window(id string) (*Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.windows[id]
	return w, ok
}

// Close removes one window. Closing an unknown or already-closed id is a
// no-op and returns false.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	w, ok := r.windows[id]
	if ok {
		delete(r.windows, id)
	}
	remaining := len(r.windows)
	r.mu.Unlock()
	if !ok {
		return false
	}
	w.markClosed()
	if r.ui != nil {
		r.ui.Post(w.destroyView)
	}
	log.Printf("PIN: %s: closed, %d remaining", shortID(id), remaining)
	if remaining == 0 && r.onEmpty != nil {
		r.onEmpty()
	}
	return true
}

// CloseAll tears down every pinned window and reports how many it closed.
func (r *Registry) CloseAll() int {
	r.mu.RLock()
	ids := make([]string, 0, len(r.windows))
	for id := range r.windows {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Close(id)
	}
	if len(ids) > 0 {
		log.Printf("PIN: closed all %d pinned windows", len(ids))
	}
	return len(ids)
}

// Count reports how many windows are open.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}

// IDs lists the open windows in no particular order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.windows))
	for id := range r.windows {
		ids = append(ids, id)
	}
	return ids
}

// dragState tracks one window being dragged: the press point and the
// window's origin at press time. Each motion event moves the window by
// the pointer's total delta since the press; no momentum, no snapping.
type dragState struct {
	win    *Window
	anchor geometry.Point
	origin geometry.Point
}

// route watches the global input stream for presses on pinned windows.
// A primary press inside a window starts a drag, a secondary press opens
// the context menu, and any press outside an open menu dismisses it.
func (r *Registry) route(events <-chan input.Event) {
	var drag *dragState
	for ev := range events {
		switch ev.Kind {
		case input.MouseDown:
			drag = nil
			p := geometry.Point{X: ev.X, Y: ev.Y}
			if r.pressOnOpenMenu(p) {
				continue
			}
			w := r.windowAt(p)
			if w == nil {
				continue
			}
			switch ev.Button {
			case input.ButtonPrimary:
				rect := w.Rect()
				drag = &dragState{
					win:    w,
					anchor: p,
					origin: geometry.Point{X: rect.X, Y: rect.Y},
				}
			case input.ButtonSecondary:
				w.openMenu()
			}
		case input.MouseDrag:
			if drag != nil {
				drag.win.moveTo(geometry.Point{
					X: drag.origin.X + ev.X - drag.anchor.X,
					Y: drag.origin.Y + ev.Y - drag.anchor.Y,
				})
			}
		case input.MouseUp:
			drag = nil
		}
	}
}

// pressOnOpenMenu dismisses menus the press landed outside of and reports
// whether it landed inside one, in which case the click belongs to a menu
// button and must not open another menu.
func (r *Registry) pressOnOpenMenu(p geometry.Point) bool {
	inside := false
	for _, w := range r.snapshot() {
		if !w.menuShowing() {
			continue
		}
		w.refreshRect()
		if w.Rect().Contains(p) {
			inside = true
		} else {
			w.dismissMenu()
		}
	}
	return inside
}

func (r *Registry) windowAt(p geometry.Point) *Window {
	for _, w := range r.snapshot() {
		w.refreshRect()
		if w.Rect().Contains(p) {
			return w
		}
	}
	return nil
}

func (r *Registry) snapshot() []*Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws := make([]*Window, 0, len(r.windows))
	for _, w := range r.windows {
		ws = append(ws, w)
	}
	return ws
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
