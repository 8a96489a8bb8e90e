package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"snapocr/clipboard"
	"snapocr/config"
	"snapocr/geometry"
	"snapocr/gui"
	"snapocr/input"
	"snapocr/notification"
	"snapocr/overlay"
	"snapocr/pin"
	"snapocr/recognize"
	"snapocr/review"
	"snapocr/screenshot"
	"snapocr/session"
	"snapocr/singleinstance"
)

// pinOffset shifts a pinned window off the panel that spawned it,
// matching the resident event loop.
const pinOffset = 50

// runOneShot runs a single capture. When a resident instance answers on
// the loopback port the capture is delegated to it; otherwise the full
// UI session runs locally in this process.
func runOneShot(cfg *config.Config, f flags) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	delegated, text, err := singleinstance.NewClient().TryRunOnce(ctx, !f.clip)
	if delegated {
		switch {
		case errors.Is(err, singleinstance.ErrCancelled):
			return errSilent
		case err != nil:
			return err
		}
		if f.clip {
			// The resident wrote the clipboard already.
			return nil
		}
		if text == "" {
			return errSilent
		}
		fmt.Println(text)
		// Delegated stdout captures still fill the local clipboard so
		// one-shot behaves the same with and without a resident.
		if err := clipboard.Init(); err == nil {
			_ = clipboard.Write(text)
		}
		return nil
	}
	return runLocalOneShot(ctx, cfg, f)
}

func runLocalOneShot(ctx context.Context, cfg *config.Config, f flags) error {
	preparePlatform()

	pipeline, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	hook := input.NewHook()
	if err := hook.Start(); err != nil {
		return fmt.Errorf("input hook: %w", err)
	}
	defer hook.Stop()

	ui := gui.NewLoop()
	selector := overlay.NewTkSelector(ui, hook)
	panel := review.NewPanel(ui)
	notifier := notification.New(ui)

	pinsDone := make(chan struct{})
	pins := pin.NewRegistry(pin.Options{
		UI:       ui,
		Hook:     hook,
		CopyText: clipboard.Write,
		OnEmpty:  func() { close(pinsDone) },
	})

	var progress session.Progress
	if cfg.ShowNotification {
		progress = notifier
	}

	res := make(chan error, 1)
	runSession := func() {
		out, err := session.Execute(ctx, session.Options{
			Deadline:  sessionDeadline(cfg),
			Capture:   screenshot.Capture,
			Select:    selector.Select,
			Recognize: pipeline.Recognize,
			Review:    panel.Show,
			Progress:  progress,
			OnCopy: func(text string) {
				if err := clipboard.Write(text); err != nil {
					log.Printf("copy failed: %v", err)
				}
			},
		})
		res <- finishOneShot(ctx, out, err, f, pins, pinsDone)
		ui.Quit()
	}

	ui.Run(func() { go runSession() })
	return <-res
}

// finishOneShot maps a session outcome onto exit behavior: accepted
// results print and fill the clipboard, pinned results hold the process
// until their windows close, cancellations exit silently.
func finishOneShot(ctx context.Context, out session.Outcome, err error, f flags, pins *pin.Registry, pinsDone <-chan struct{}) error {
	switch {
	case errors.Is(err, session.ErrSelectionCancelled):
		return errSilent
	case err != nil:
		return err
	}

	switch out.Decision {
	case review.Accepted:
		return deliverOneShot(out.Result, f)
	case review.Pinned:
		if _, err := pins.Create(pin.Request{
			Image:    out.Crop,
			Text:     recognize.Format(out.Result),
			Markup:   out.Result.Markup,
			Position: geometry.Point{X: out.Panel.X + pinOffset, Y: out.Panel.Y + pinOffset},
			Screen:   out.Screen,
		}); err != nil {
			return fmt.Errorf("pin result: %w", err)
		}
		// The process exits once the pinned window is closed.
		select {
		case <-pinsDone:
		case <-ctx.Done():
		}
		return nil
	default:
		return errSilent
	}
}

func deliverOneShot(result recognize.Result, f flags) error {
	text := recognize.Format(result)
	if text == "" {
		return errSilent
	}
	if err := clipboard.Write(text); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	if !f.clip {
		fmt.Println(text)
	}
	return nil
}
