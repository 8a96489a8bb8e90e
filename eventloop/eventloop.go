// Package eventloop coordinates capture triggers. The global hotkey, the
// tray menu, and delegated command-line clients all funnel into a single
// loop that runs at most one capture session at a time and routes each
// result to the clipboard, the review panel, or a pinned window.
package eventloop

import (
	"context"
	"errors"
	"image"
	"log"
	"time"

	"snapocr/clipboard"
	"snapocr/config"
	"snapocr/geometry"
	"snapocr/overlay"
	"snapocr/pin"
	"snapocr/recognize"
	"snapocr/review"
	"snapocr/screenshot"
	"snapocr/session"
	"snapocr/singleinstance"
	"snapocr/worker"
)

// pinOffset shifts a new pinned window away from the panel that spawned
// it so the pin does not land exactly under the panel's last position.
const pinOffset = 50

const (
	tooltipIdle = "SnapOCR"
	tooltipBusy = "SnapOCR: processing..."
)

// Notifier is the toast surface the loop talks to. notification.Manager
// satisfies it.
type Notifier interface {
	session.Progress
	Show(text string)
}

// Options wires the loop's collaborators. Selector and Pool are
// required; everything else degrades gracefully when nil.
type Options struct {
	Config   *config.Config
	Selector overlay.Selector
	Pool     *worker.Pool

	// Capture defaults to screenshot.Capture.
	Capture session.CaptureFunc
	// Review shows the result panel after recognition. When nil,
	// hotkey captures auto-accept straight to the clipboard.
	Review session.ReviewFunc
	// Pins receives windows for results the user chose to keep on
	// screen. When nil, pin decisions are logged and dropped.
	Pins *pin.Registry
	// Notifier shows toasts and the recognition countdown.
	Notifier Notifier
	// Server accepts capture requests delegated by secondary
	// processes. When nil, delegation is disabled.
	Server singleinstance.Server
	// WriteClipboard defaults to clipboard.Write.
	WriteClipboard func(text string) error
	// SetTooltip updates the tray tooltip while a session runs.
	SetTooltip func(text string)
}

// Loop serializes capture sessions. The trigger methods are safe to call
// from any goroutine; all other state lives on the Run goroutine.
type Loop struct {
	cfg            *config.Config
	sel            overlay.Selector
	pool           *worker.Pool
	capture        session.CaptureFunc
	review         session.ReviewFunc
	pins           *pin.Registry
	notifier       Notifier
	srv            singleinstance.Server
	writeClipboard func(string) error
	setTooltip     func(string)

	// busy is owned by the Run goroutine.
	busy     bool
	hotkeyCh chan struct{}
	pinsCh   chan struct{}
	sessions chan sessionDone
}

type sessionDone struct {
	out  session.Outcome
	err  error
	conn singleinstance.Conn
}

func New(opts Options) *Loop {
	capture := opts.Capture
	if capture == nil {
		capture = screenshot.Capture
	}
	write := opts.WriteClipboard
	if write == nil {
		write = clipboard.Write
	}
	tooltip := opts.SetTooltip
	if tooltip == nil {
		tooltip = func(string) {}
	}
	return &Loop{
		cfg:            opts.Config,
		sel:            opts.Selector,
		pool:           opts.Pool,
		capture:        capture,
		review:         opts.Review,
		pins:           opts.Pins,
		notifier:       opts.Notifier,
		srv:            opts.Server,
		writeClipboard: write,
		setTooltip:     tooltip,
		hotkeyCh:       make(chan struct{}, 4),
		pinsCh:         make(chan struct{}, 1),
		sessions:       make(chan sessionDone, 1),
	}
}

// TriggerCapture queues a capture request. The loop rejects it if a
// session is already running.
func (l *Loop) TriggerCapture() {
	select {
	case l.hotkeyCh <- struct{}{}:
	default:
	}
}

// CloseAllPins queues a bulk teardown of every pinned window.
func (l *Loop) CloseAllPins() {
	select {
	case l.pinsCh <- struct{}{}:
	default:
	}
}

// Run processes triggers until ctx is cancelled. It owns the worker
// pool and closes it on the way out.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()

	var reqCh chan singleinstance.Conn
	if l.srv != nil {
		if err := l.srv.Start(ctx); err != nil {
			return err
		}
		if p := l.srv.Port(); p > 0 {
			log.Printf("EVENTLOOP: resident listening on 127.0.0.1:%d", p)
		}
		// Accept in the background so a waiting client never blocks
		// result handling.
		ch := make(chan singleinstance.Conn, 4)
		go func() {
			for {
				conn, err := l.srv.Next(ctx)
				if err != nil {
					close(ch)
					return
				}
				ch <- conn
			}
		}()
		reqCh = ch
	}
	l.setTooltip(tooltipIdle)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.hotkeyCh:
			l.startSession(ctx, nil)
		case conn, ok := <-reqCh:
			if !ok {
				// The server stopped; keep serving the hotkey.
				log.Printf("EVENTLOOP: resident server stopped accepting")
				reqCh = nil
				continue
			}
			l.startSession(ctx, conn)
		case <-l.pinsCh:
			if l.pins != nil {
				n := l.pins.CloseAll()
				log.Printf("EVENTLOOP: closed %d pinned windows", n)
			}
		case done := <-l.sessions:
			l.finishSession(done)
		}
	}
}

// startSession launches one capture session in its own goroutine. conn
// is nil for hotkey and tray captures and non-nil for delegated ones.
func (l *Loop) startSession(ctx context.Context, conn singleinstance.Conn) {
	if l.busy {
		log.Printf("EVENTLOOP: capture requested while busy, rejecting")
		if conn != nil {
			_ = conn.RespondError("Busy, please retry")
			_ = conn.Close()
		} else {
			l.notifyError("Busy, please retry")
		}
		return
	}
	l.setBusy(true)

	opts := session.Options{
		Deadline:  l.deadline(),
		Capture:   l.capture,
		Select:    l.sel.Select,
		Recognize: l.recognize,
		OnCopy:    l.copyFromPanel,
	}
	if conn == nil {
		// Delegated captures skip the panel and the countdown; the
		// requesting process is waiting on the wire.
		opts.Review = l.review
		opts.Progress = l.progress()
	}
	go func() {
		out, err := session.Execute(ctx, opts)
		l.sessions <- sessionDone{out: out, err: err, conn: conn}
	}()
}

func (l *Loop) finishSession(d sessionDone) {
	l.setBusy(false)
	if d.conn != nil {
		l.finishDelegated(d)
		return
	}
	switch {
	case errors.Is(d.err, session.ErrSelectionCancelled):
		return
	case d.err != nil:
		log.Printf("EVENTLOOP: session failed: %v", d.err)
		l.notifyError("OCR failed")
		return
	}
	switch d.out.Decision {
	case review.Accepted:
		l.deliver(d.out)
	case review.Pinned:
		l.createPin(d.out)
	case review.Cancelled:
		log.Printf("EVENTLOOP: result discarded")
	}
}

// deliver copies an accepted result to the clipboard and surfaces it as
// a toast.
func (l *Loop) deliver(out session.Outcome) {
	text := recognize.Format(out.Result)
	if text == "" {
		l.notify("No text detected")
		return
	}
	if err := l.writeClipboard(text); err != nil {
		log.Printf("EVENTLOOP: clipboard write failed: %v", err)
		l.notifyError("Clipboard error")
		return
	}
	log.Printf("EVENTLOOP: copied %d chars to clipboard", len(text))
	l.notify(text)
}

func (l *Loop) createPin(out session.Outcome) {
	if l.pins == nil || out.Crop == nil {
		log.Printf("EVENTLOOP: pin requested but no pin registry is wired")
		return
	}
	_, err := l.pins.Create(pin.Request{
		Image:    out.Crop,
		Text:     recognize.Format(out.Result),
		Markup:   out.Result.Markup,
		Position: geometry.Point{X: out.Panel.X + pinOffset, Y: out.Panel.Y + pinOffset},
		Screen:   out.Screen,
	})
	if err != nil {
		log.Printf("EVENTLOOP: pinning failed: %v", err)
		l.notifyError("Pin failed")
	}
}

func (l *Loop) finishDelegated(d sessionDone) {
	defer d.conn.Close()
	switch {
	case errors.Is(d.err, session.ErrSelectionCancelled):
		_ = d.conn.RespondCancelled()
		return
	case d.err != nil:
		_ = d.conn.RespondError(d.err.Error())
		return
	}
	text := recognize.Format(d.out.Result)
	if d.conn.Request().OutputToStdout {
		_ = d.conn.RespondSuccess(text)
		return
	}
	if text != "" {
		if err := l.writeClipboard(text); err != nil {
			_ = d.conn.RespondError("Clipboard error: " + err.Error())
			return
		}
	}
	_ = d.conn.RespondSuccess("")
}

// recognize funnels a crop through the worker pool and waits for its
// callback.
func (l *Loop) recognize(ctx context.Context, img image.Image) (recognize.Result, error) {
	type outcome struct {
		res recognize.Result
		err error
	}
	ch := make(chan outcome, 1)
	ok := l.pool.Submit(ctx, img, func(res recognize.Result, err error) {
		ch <- outcome{res: res, err: err}
	})
	if !ok {
		return recognize.Result{}, errors.New("recognition queue full")
	}
	select {
	case o := <-ch:
		return o.res, o.err
	case <-ctx.Done():
		return recognize.Result{}, ctx.Err()
	}
}

// copyFromPanel serves the review panel's Copy button.
func (l *Loop) copyFromPanel(text string) {
	if text == "" {
		return
	}
	if err := l.writeClipboard(text); err != nil {
		log.Printf("EVENTLOOP: copy from panel failed: %v", err)
		return
	}
	log.Printf("EVENTLOOP: copied %d chars from panel", len(text))
}

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if b {
		l.setTooltip(tooltipBusy)
	} else {
		l.setTooltip(tooltipIdle)
	}
}

// deadline maps the configured recognition deadline onto session
// semantics: a configured 0 disables the deadline, no config leaves the
// session default in charge.
func (l *Loop) deadline() time.Duration {
	if l.cfg == nil {
		return 0
	}
	if l.cfg.RecognitionDeadlineSec <= 0 {
		return -1
	}
	return time.Duration(l.cfg.RecognitionDeadlineSec) * time.Second
}

func (l *Loop) progress() session.Progress {
	if l.notifier == nil || !l.notificationsOn() {
		return nil
	}
	return l.notifier
}

func (l *Loop) notificationsOn() bool {
	return l.cfg == nil || l.cfg.ShowNotification
}

// notify shows a result toast, honoring SHOW_NOTIFICATION.
func (l *Loop) notify(text string) {
	if l.notifier != nil && l.notificationsOn() {
		l.notifier.Show(text)
	}
}

// notifyError always shows; suppressing results must not hide failures.
func (l *Loop) notifyError(text string) {
	if l.notifier != nil {
		l.notifier.Show(text)
	}
}
