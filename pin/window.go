package pin

import (
	"image"
	"log"
	"sync"

	"github.com/nfnt/resize"

	. "modernc.org/tk9.0"

	"snapocr/geometry"
	"snapocr/gui"
)

// Default pinned-window footprint. Crops are scaled down to fit it; the
// window never shrinks below the minimum so it stays clickable.
const (
	DefaultWidth  = 300
	DefaultHeight = 200
	MinWidth      = 100
	MinHeight     = 80
)

// Thumbnail scales a crop down to the default footprint, preserving
// aspect ratio. Crops already inside the footprint keep their size.
func Thumbnail(img image.Image) image.Image {
	return resize.Thumbnail(DefaultWidth, DefaultHeight, img, resize.Lanczos3)
}

// DisplaySize reports the window size used for a crop of the given
// dimensions.
func DisplaySize(imgWidth, imgHeight int) (int, int) {
	w, h := fitWithin(imgWidth, imgHeight, DefaultWidth, DefaultHeight)
	if w < MinWidth {
		w = MinWidth
	}
	if h < MinHeight {
		h = MinHeight
	}
	return w, h
}

func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w <= maxW && h <= maxH {
		return w, h
	}
	ratio := float64(maxW) / float64(w)
	if r := float64(maxH) / float64(h); r < ratio {
		ratio = r
	}
	fw := int(float64(w)*ratio + 0.5)
	fh := int(float64(h)*ratio + 0.5)
	if fw < 1 {
		fw = 1
	}
	if fh < 1 {
		fh = 1
	}
	return fw, fh
}

// Window is one pinned result. Dragging and the context menu ride the
// global input hook, which also sees the outside clicks that dismiss the
// menu; title-bar closing goes through the window manager.
type Window struct {
	ID     string
	Text   string
	Markup string

	reg *Registry

	mu     sync.Mutex
	rect   geometry.Rect
	closed bool
	menuOn bool

	view *pinView
}

// Rect returns the window's last known global rectangle.
func (w *Window) Rect() geometry.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rect
}

// moveTo drags the window's top-left corner to p.
func (w *Window) moveTo(p geometry.Point) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.rect.X = p.X
	w.rect.Y = p.Y
	w.mu.Unlock()
	if w.reg.ui == nil {
		return
	}
	w.reg.ui.Post(func() {
		if w.view != nil && w.view.win != nil {
			WmGeometry(w.view.win.Window, gui.FormatPosition(p.X, p.Y))
		}
	})
}

// refreshRect re-reads the on-screen geometry, which the window manager
// changes behind our back when the user drags the window by its native
// title bar.
func (w *Window) refreshRect() {
	if w.reg.ui == nil {
		return
	}
	var g string
	w.reg.ui.Call(func() {
		if w.view != nil && w.view.win != nil {
			g = WmGeometry(w.view.win.Window)
		}
	})
	r, ok := gui.ParseGeometry(g)
	if !ok {
		return
	}
	w.mu.Lock()
	w.rect = r
	w.mu.Unlock()
}

func (w *Window) markClosed() {
	w.mu.Lock()
	w.closed = true
	w.menuOn = false
	w.mu.Unlock()
}

func (w *Window) menuShowing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.menuOn && !w.closed
}

// openMenu shows the context menu over the thumbnail.
func (w *Window) openMenu() {
	w.mu.Lock()
	if w.closed || w.menuOn {
		w.mu.Unlock()
		return
	}
	w.menuOn = true
	w.mu.Unlock()
	if w.reg.ui == nil {
		return
	}
	items := w.menuItems()
	w.reg.ui.Call(func() { w.view.showMenu(items) })
	log.Printf("PIN: %s: context menu opened", shortID(w.ID))
}

// dismissMenu hides the context menu without acting.
func (w *Window) dismissMenu() {
	w.mu.Lock()
	if !w.menuOn {
		w.mu.Unlock()
		return
	}
	w.menuOn = false
	w.mu.Unlock()
	if w.reg.ui == nil {
		return
	}
	w.reg.ui.Post(w.view.hideMenu)
}

type menuItem struct {
	label  string
	action func()
}

// menuItems assembles the context menu. Copy LaTeX only appears when the
// recognition produced markup. Every action dismisses the menu first.
func (w *Window) menuItems() []menuItem {
	wrap := func(action func()) func() {
		return func() {
			w.dismissMenu()
			action()
		}
	}
	items := []menuItem{
		{label: "Copy Text", action: wrap(func() { w.copy(w.Text) })},
	}
	if w.Markup != "" {
		items = append(items, menuItem{label: "Copy LaTeX", action: wrap(func() { w.copy(w.Markup) })})
	}
	items = append(items, menuItem{label: "Close", action: wrap(func() { w.reg.Close(w.ID) })})
	return items
}

func (w *Window) copy(text string) {
	if w.reg.copyText == nil {
		return
	}
	if err := w.reg.copyText(text); err != nil {
		log.Printf("PIN: %s: clipboard write failed: %v", shortID(w.ID), err)
		return
	}
	log.Printf("PIN: %s: copied %d chars", shortID(w.ID), len(text))
}

// pinView is the Tk side of a pinned window. All methods and fields
// belong to the UI goroutine.
type pinView struct {
	win     *ToplevelWidget
	content *FrameWidget
	photo   *Img
	menu    *FrameWidget
}

func (w *Window) openView(frame []byte) {
	rect := w.Rect()
	win := App.Toplevel(Background(gui.ColorAccent))
	win.WmTitle("SnapOCR")
	WmGeometry(win.Window, gui.FormatGeometry(rect))
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-toolwindow", true)
	WmProtocol(win.Window, "WM_DELETE_WINDOW", func() { w.reg.Close(w.ID) })

	// The accent toplevel shows through the padding as a thin border.
	GridRowConfigure(win.Window, 0, Weight(1))
	GridColumnConfigure(win.Window, 0, Weight(1))
	content := win.Frame(Background(gui.ColorSurface))
	Grid(content, Row(0), Column(0), Sticky("nsew"), Padx("1p"), Pady("1p"))
	GridRowConfigure(content, 0, Weight(1))
	GridColumnConfigure(content, 0, Weight(1))

	photo := NewPhoto(Data(frame))
	label := win.Label(Image(photo), Background(gui.ColorSurface), Borderwidth(0))
	Grid(label, In(content), Row(0), Column(0))

	w.view = &pinView{win: win, content: content, photo: photo}
}

func (w *Window) destroyView() {
	if w.view == nil {
		return
	}
	if w.view.win != nil {
		Destroy(w.view.win)
		w.view.win = nil
	}
	if w.view.photo != nil {
		w.view.photo.Delete()
		w.view.photo = nil
	}
	w.view.menu = nil
	w.view.content = nil
}

// showMenu stacks a column of menu buttons over the thumbnail. Gridding
// into the same cell keeps the later widget on top, so destroying the
// menu frame reveals the thumbnail again.
func (v *pinView) showMenu(items []menuItem) {
	if v == nil || v.win == nil || v.menu != nil {
		return
	}
	menu := v.win.Frame(Background(gui.ColorPanelBg))
	Grid(menu, In(v.content), Row(0), Column(0), Sticky("nsew"))
	GridColumnConfigure(menu, 0, Weight(1))
	for i, it := range items {
		btn := v.win.Button(Txt(it.label), Background(gui.ColorCopyBtn), Foreground(gui.ColorText), Command(it.action))
		Grid(btn, In(menu), Row(i), Column(0), Sticky("we"), Padx("2p"), Pady("1p"))
	}
	v.menu = menu
}

func (v *pinView) hideMenu() {
	if v == nil || v.menu == nil {
		return
	}
	Destroy(v.menu)
	v.menu = nil
}
