// Package tray keeps SnapOCR in the system tray. The tray is the
// resident process's only persistent surface: its tooltip mirrors the
// busy state and its menu carries the capture and teardown actions.
package tray

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/getlantern/systray"
)

// Config wires the menu actions. Nil callbacks leave their items inert.
type Config struct {
	Tooltip     string
	OnCapture   func()
	OnClosePins func()
	OnQuit      func()
}

// Tray wraps the process-wide systray. Only one Tray may run per
// process.
type Tray struct {
	cfg   Config
	ready atomic.Bool
	once  sync.Once
}

func New(cfg Config) *Tray {
	if cfg.Tooltip == "" {
		cfg.Tooltip = "SnapOCR"
	}
	return &Tray{cfg: cfg}
}

// Run enters the tray loop and blocks until Quit is called or the user
// picks Quit from the menu.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit leaves the tray loop. Safe from any goroutine, more than once.
func (t *Tray) Quit() {
	t.once.Do(systray.Quit)
}

// SetTooltip updates the hover text. Calls before the tray is up are
// dropped.
func (t *Tray) SetTooltip(text string) {
	if t.ready.Load() {
		systray.SetTooltip(text)
	}
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes())
	systray.SetTitle("SnapOCR")
	systray.SetTooltip(t.cfg.Tooltip)

	mCapture := systray.AddMenuItem("Capture Now", "Select a region and recognize it")
	mClose := systray.AddMenuItem("Close Pinned Windows", "Close every pinned result window")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit SnapOCR")

	t.ready.Store(true)
	log.Printf("TRAY: ready")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				if t.cfg.OnCapture != nil {
					t.cfg.OnCapture()
				}
			case <-mClose.ClickedCh:
				if t.cfg.OnClosePins != nil {
					t.cfg.OnClosePins()
				}
			case <-mQuit.ClickedCh:
				t.Quit()
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.ready.Store(false)
	if t.cfg.OnQuit != nil {
		t.cfg.OnQuit()
	}
}
