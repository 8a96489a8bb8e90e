// Package notification shows transient toast windows anchored to the
// lower-left corner of the primary display: result feedback, recognition
// progress countdowns, and errors. One toast is visible at a time; a new
// one replaces whatever is showing.
package notification

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	. "modernc.org/tk9.0"

	"snapocr/geometry"
	"snapocr/gui"
	"snapocr/screenshot"
)

const (
	toastWidth   = 400
	toastHeight  = 100
	toastMargin  = 20
	toastTimeout = 3 * time.Second
	maxChars     = 200
)

// Manager owns the single toast slot. All methods are safe from any
// goroutine and never block on the UI.
type Manager struct {
	ui *gui.Loop

	mu  sync.Mutex
	gen int

	view *toastView // UI goroutine only
}

func New(ui *gui.Loop) *Manager {
	return &Manager{ui: ui}
}

// Show pops a toast that closes itself after a few seconds or on click.
func (m *Manager) Show(text string) {
	text = truncate(text)
	gen := m.bump()
	m.ui.Post(func() {
		m.replaceView(text)
		m.armClose(gen, toastTimeout)
	})
}

// StartCountdown pops a progress toast that counts down once per second
// and closes itself at zero unless replaced first.
func (m *Manager) StartCountdown(seconds int) {
	gen := m.bump()
	m.ui.Post(func() {
		m.replaceView(countdownText(seconds))
		m.tick(gen, seconds-1)
	})
}

// Update swaps the text of the live toast, if any. Timers keep running.
func (m *Manager) Update(text string) {
	text = truncate(text)
	m.ui.Post(func() {
		if m.view != nil {
			m.view.setText(text)
		}
	})
}

// Close dismisses the current toast, if any.
func (m *Manager) Close() {
	m.bump()
	m.ui.Post(m.closeView)
}

// bump invalidates timers armed for earlier toasts.
func (m *Manager) bump() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	return m.gen
}

func (m *Manager) current(gen int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen == gen
}

func (m *Manager) replaceView(text string) {
	m.closeView()
	v := &toastView{}
	v.open(text, toastOrigin(), m.Close)
	m.view = v
}

func (m *Manager) closeView() {
	if m.view == nil {
		return
	}
	m.view.destroy()
	m.view = nil
}

func (m *Manager) armClose(gen int, d time.Duration) {
	if m.view == nil {
		return
	}
	m.view.after = TclAfter(d, func() {
		if m.current(gen) {
			m.closeView()
		}
	})
}

func (m *Manager) tick(gen, remaining int) {
	if m.view == nil {
		return
	}
	m.view.after = TclAfter(time.Second, func() {
		if !m.current(gen) {
			return
		}
		if remaining <= 0 {
			m.closeView()
			return
		}
		if m.view != nil {
			m.view.setText(countdownText(remaining))
		}
		m.tick(gen, remaining-1)
	})
}

func countdownText(remaining int) string {
	return fmt.Sprintf("OCR in progress...\n%d seconds remaining", remaining)
}

// truncate caps toast text; recognition results can be arbitrarily long
// and a toast is only a glance.
func truncate(text string) string {
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	return string([]rune(text)[:maxChars]) + "..."
}

// toastOrigin anchors toasts to the lower-left corner of the primary
// display.
func toastOrigin() geometry.Point {
	b, err := screenshot.PrimaryBounds()
	if err != nil {
		return geometry.Point{X: toastMargin, Y: toastMargin}
	}
	return geometry.Point{
		X: b.Min.X + toastMargin,
		Y: b.Max.Y - toastHeight - toastMargin,
	}
}

// toastView is the Tk side of a toast. All methods run on the UI
// goroutine.
type toastView struct {
	win   *ToplevelWidget
	label *LabelWidget
	after string
}

func (v *toastView) open(text string, origin geometry.Point, onClick func()) {
	win := App.Toplevel(Background(gui.ColorAccent))
	win.WmTitle("SnapOCR")
	WmGeometry(win.Window, gui.FormatGeometry(geometry.Rect{
		X: origin.X, Y: origin.Y, Width: toastWidth, Height: toastHeight,
	}))
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-toolwindow", true)

	GridRowConfigure(win.Window, 0, Weight(1))
	GridColumnConfigure(win.Window, 0, Weight(1))
	label := win.Label(Txt(text), Background(gui.ColorPanelBg), Foreground(gui.ColorText))
	Grid(label, Row(0), Column(0), Sticky("nsew"), Padx("1p"), Pady("1p"))

	Bind(win, "<ButtonPress-1>", Command(onClick))

	v.win = win
	v.label = label
}

func (v *toastView) setText(text string) {
	if v.label != nil {
		v.label.Configure(Txt(text))
	}
}

func (v *toastView) destroy() {
	if v.after != "" {
		TclAfterCancel(v.after)
		v.after = ""
	}
	if v.win != nil {
		Destroy(v.win)
		v.win = nil
	}
	v.label = nil
}
