// Package gui owns the Tk main loop and marshals work onto it.
//
// modernc.org/tk9.0 requires every widget call to happen on the
// goroutine that entered the Tk event loop. Loop wraps that goroutine:
// Run blocks on it, Post and Call hand functions to it, Quit tears it
// down. Everything else in this program talks to Tk through a Loop.
package gui

import (
	"log"
	"sync"
	"time"

	. "modernc.org/tk9.0"
)

// pumpInterval is how often queued functions drain onto the Tk thread.
// Short enough that hotkey-triggered windows feel immediate.
const pumpInterval = 15 * time.Millisecond

// Loop is the single owner of the Tk event loop.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	quit  bool
}

func NewLoop() *Loop {
	return &Loop{}
}

// Run parks the root window out of sight, invokes ready, and blocks in
// the Tk event loop until Quit. Must be called on the main goroutine.
func (l *Loop) Run(ready func()) {
	App.WmTitle("SnapOCR")
	// The root window exists only to anchor Toplevels; park it where
	// nobody can see or reach it.
	WmGeometry(App, "1x1+-32000+-32000")
	WmAttributes(App, "-alpha", 0.0)
	WmAttributes(App, "-toolwindow", true)
	WmProtocol(App, "WM_DELETE_WINDOW", l.Quit)

	l.schedule()
	if ready != nil {
		ready()
	}
	App.Wait()
}

// Post queues fn to run on the UI goroutine. Safe from any goroutine.
// Functions posted after Quit are dropped.
func (l *Loop) Post(fn func()) {
	l.post(fn)
}

// Call runs fn on the UI goroutine and waits for it to finish. Calling
// it from the UI goroutine itself would deadlock; don't.
func (l *Loop) Call(fn func()) {
	done := make(chan struct{})
	if !l.post(func() {
		defer close(done)
		fn()
	}) {
		return
	}
	<-done
}

// Quit stops the loop on its next tick, which unblocks Run.
func (l *Loop) Quit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quit = true
}

func (l *Loop) post(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.quit {
		return false
	}
	l.queue = append(l.queue, fn)
	return true
}

func (l *Loop) schedule() {
	TclAfter(pumpInterval, l.pump)
}

func (l *Loop) pump() {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	quit := l.quit
	l.mu.Unlock()

	for _, fn := range batch {
		runSafely(fn)
	}
	if quit {
		Destroy(App)
		return
	}
	l.schedule()
}

// runSafely keeps one panicking handler from killing the UI loop.
func runSafely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("GUI: posted call panicked: %v", r)
		}
	}()
	fn()
}
