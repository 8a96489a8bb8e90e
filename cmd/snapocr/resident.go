package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snapocr/clipboard"
	"snapocr/config"
	"snapocr/eventloop"
	"snapocr/gui"
	"snapocr/input"
	"snapocr/logutil"
	"snapocr/notification"
	"snapocr/overlay"
	"snapocr/pin"
	"snapocr/recognize"
	"snapocr/recognize/vision"
	"snapocr/review"
	"snapocr/singleinstance"
	"snapocr/tray"
	"snapocr/worker"
)

// runResident keeps the process alive with a tray icon, a global hotkey,
// and a loopback server that one-shot invocations delegate to. The Tk
// loop owns the main goroutine; everything else runs beside it.
func runResident(cfg *config.Config) error {
	logutil.Setup(cfg.EnableFileLogging)
	preparePlatform()

	if port, ok := singleinstance.DetectResidentPort(context.Background()); ok {
		return fmt.Errorf("another instance is already running on port %d", port)
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	pipeline := recognize.NewPipeline(recognize.Options{
		Engine:     engine,
		MathMarkup: cfg.MathMarkup,
	})
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	hook := input.NewHook()
	if err := hook.Start(); err != nil {
		return fmt.Errorf("input hook: %w", err)
	}

	ui := gui.NewLoop()
	pool := worker.New(1, pipeline.Recognize)
	selector := overlay.NewTkSelector(ui, hook)
	panel := review.NewPanel(ui)
	notifier := notification.New(ui)
	pins := pin.NewRegistry(pin.Options{
		UI:       ui,
		Hook:     hook,
		CopyText: clipboard.Write,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Credentials are checked in the background; failures surface as an
	// error toast instead of stalling startup.
	if probe, ok := engine.(*vision.Engine); ok {
		go func() {
			pctx, done := context.WithTimeout(ctx, 15*time.Second)
			defer done()
			if err := probe.Ping(pctx); err != nil {
				log.Printf("VISION: startup check failed: %v", err)
				notifier.Show("OpenRouter check failed")
			}
		}()
	}

	var trayIcon *tray.Tray
	loop := eventloop.New(eventloop.Options{
		Config:     cfg,
		Selector:   selector,
		Pool:       pool,
		Review:     panel.Show,
		Pins:       pins,
		Notifier:   notifier,
		Server:     singleinstance.NewServer(),
		SetTooltip: func(text string) { trayIcon.SetTooltip(text) },
	})
	trayIcon = tray.New(tray.Config{
		Tooltip:     fmt.Sprintf("SnapOCR - press %s to capture", cfg.Hotkey),
		OnCapture:   loop.TriggerCapture,
		OnClosePins: loop.CloseAllPins,
		OnQuit:      cancel,
	})

	unlisten, err := input.ListenHotkey(hook, cfg.Hotkey, loop.TriggerCapture)
	if err != nil {
		// The tray's Capture Now still works without the hotkey.
		log.Printf("hotkey %q not registered: %v", cfg.Hotkey, err)
	} else {
		defer unlisten()
	}

	loopErr := make(chan error, 1)
	go func() {
		err := loop.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("EVENTLOOP: stopped: %v", err)
		}
		loopErr <- err
		cancel()
	}()
	go trayIcon.Run()
	go func() {
		<-ctx.Done()
		hook.Stop()
		trayIcon.Quit()
		ui.Quit()
	}()

	log.Printf("SnapOCR resident: recognizer %s, hotkey %s", cfg.Recognizer, cfg.Hotkey)
	if cfg.Recognizer == config.RecognizerVision {
		log.Printf("RECOGNIZE: model %s, key %s", cfg.Model, logutil.RedactKey(cfg.APIKey))
	}
	ui.Run(func() { log.Printf("GUI: ready") })

	cancel()
	if err := <-loopErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
