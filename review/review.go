// Package review shows the recognition result in a borderless panel
// next to the selection and waits for the user's verdict.
package review

import (
	"context"
	"image"
	"log"

	. "modernc.org/tk9.0"

	"snapocr/geometry"
	"snapocr/gui"
	"snapocr/recognize"
)

// Decision is the user's verdict on a recognition result.
type Decision int

const (
	Cancelled Decision = iota
	Accepted
	Pinned
)

func (d Decision) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case Pinned:
		return "pinned"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Outcome reports how a review session ended.
type Outcome struct {
	Decision Decision
	// Panel is the panel's on-screen rectangle in global coordinates.
	// Follow-up windows (pins) are placed relative to it.
	Panel geometry.Rect
}

// Request describes one review session.
type Request struct {
	Result recognize.Result
	// Selection is the reviewed region in capture-local coordinates.
	Selection geometry.Rect
	// Screen is the captured virtual-screen rectangle; its size drives
	// placement and its origin maps the panel into global coordinates.
	Screen image.Rectangle
	// OnCopy is invoked when the user presses Copy. The panel stays
	// open afterwards; Copy is a convenience, not a decision.
	OnCopy func()
}

// Panel runs review sessions on the shared UI loop.
type Panel struct {
	ui *gui.Loop
}

func NewPanel(ui *gui.Loop) *Panel {
	return &Panel{ui: ui}
}

// Show displays the result beside the selection and blocks until the
// user decides or ctx ends. Must not be called from the UI goroutine.
func (p *Panel) Show(ctx context.Context, req Request) (Outcome, error) {
	body := DisplayText(req.Result)
	w, h := PanelSize(body)
	pos := geometry.PlacePanel(req.Selection, w, h, req.Screen.Dx(), req.Screen.Dy())
	rect := geometry.Rect{
		X:      pos.X + req.Screen.Min.X,
		Y:      pos.Y + req.Screen.Min.Y,
		Width:  w,
		Height: h,
	}
	log.Printf("REVIEW: showing %dx%d panel at (%d,%d)", w, h, rect.X, rect.Y)

	decisions := make(chan Decision, 1)
	decide := func(d Decision) {
		select {
		case decisions <- d:
		default:
		}
	}

	view := &panelView{}
	p.ui.Call(func() {
		view.open(body, rect, req.Result.Empty(), req.OnCopy, decide)
	})
	defer p.ui.Call(view.close)

	select {
	case d := <-decisions:
		log.Printf("REVIEW: decision: %s", d)
		return Outcome{Decision: d, Panel: rect}, nil
	case <-ctx.Done():
		log.Printf("REVIEW: aborted: %v", ctx.Err())
		return Outcome{Decision: Cancelled, Panel: rect}, ctx.Err()
	}
}

// panelView is the Tk side of the panel. All methods run on the UI
// goroutine.
type panelView struct {
	win *ToplevelWidget
}

func (v *panelView) open(body string, rect geometry.Rect, empty bool, onCopy func(), decide func(Decision)) {
	win := App.Toplevel(Background(gui.ColorAccent))
	win.WmTitle("OCR Result")
	WmGeometry(win.Window, gui.FormatGeometry(rect))
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-toolwindow", true)
	WmProtocol(win.Window, "WM_DELETE_WINDOW", func() { decide(Cancelled) })

	// The accent toplevel shows through the padding as a thin border.
	GridRowConfigure(win.Window, 0, Weight(1))
	GridColumnConfigure(win.Window, 0, Weight(1))
	content := win.Frame(Background(gui.ColorPanelBg))
	Grid(content, Row(0), Column(0), Sticky("nsew"), Padx("1p"), Pady("1p"))
	GridRowConfigure(content, 0, Weight(1))
	GridColumnConfigure(content, 0, Weight(1))
	GridColumnConfigure(content, 1, Weight(1))
	GridColumnConfigure(content, 2, Weight(1))
	GridColumnConfigure(content, 3, Weight(1))

	text := win.Text(
		Width((rect.Width-2*PanelPadding)/charWidth),
		Height((rect.Height-2*PanelPadding-buttonRowHeight)/lineHeight),
		Background(gui.ColorTextArea),
		Foreground(gui.ColorText),
	)
	Grid(text, In(content), Row(0), Column(0), Columnspan(4), Sticky("nsew"), Padx("2p"), Pady("2p"))
	text.Insert("1.0", body)

	copyBtn := win.Button(Txt("Copy"), Background(gui.ColorCopyBtn), Foreground(gui.ColorText), Command(func() {
		if onCopy != nil {
			onCopy()
		}
	}))
	Grid(copyBtn, In(content), Row(1), Column(0), Sticky("we"), Padx("2p"), Pady("2p"))

	acceptBtn := win.Button(Txt("Accept"), Background(gui.ColorAcceptBtn), Foreground(gui.ColorText), Command(func() {
		if empty {
			// Nothing to deliver; accepting an empty result is a no-op.
			return
		}
		decide(Accepted)
	}))
	Grid(acceptBtn, In(content), Row(1), Column(1), Sticky("we"), Padx("2p"), Pady("2p"))

	pinBtn := win.Button(Txt("Pin"), Background(gui.ColorPinBtn), Foreground(gui.ColorText), Command(func() {
		decide(Pinned)
	}))
	Grid(pinBtn, In(content), Row(1), Column(2), Sticky("we"), Padx("2p"), Pady("2p"))

	cancelBtn := win.Button(Txt("Cancel"), Background(gui.ColorCancelBtn), Foreground(gui.ColorText), Command(func() {
		decide(Cancelled)
	}))
	Grid(cancelBtn, In(content), Row(1), Column(3), Sticky("we"), Padx("2p"), Pady("2p"))

	Bind(win, "<Escape>", Command(func() { decide(Cancelled) }))
	v.win = win
}

func (v *panelView) close() {
	if v.win != nil {
		Destroy(v.win)
		v.win = nil
	}
}
