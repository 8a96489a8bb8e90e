// Package session orchestrates one capture: snapshot the screen, run the
// selection overlay, recognize the crop, review the result. Collaborators
// come in as functions so the GUI, delegated and file paths can share the
// same flow.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"time"

	"snapocr/geometry"
	"snapocr/recognize"
	"snapocr/review"
	"snapocr/screenshot"
)

// ErrSelectionCancelled reports that the user dismissed the selection
// overlay. Callers treat it as a quiet outcome, not a failure.
var ErrSelectionCancelled = errors.New("selection cancelled")

// DefaultDeadline bounds recognition when the caller sets none.
const DefaultDeadline = 120 * time.Second

type CaptureFunc func() (*screenshot.Snapshot, error)

type SelectFunc func(ctx context.Context, snap *screenshot.Snapshot) (region geometry.Rect, cancelled bool, err error)

type RecognizeFunc func(ctx context.Context, img image.Image) (recognize.Result, error)

type ReviewFunc func(ctx context.Context, req review.Request) (review.Outcome, error)

// Progress mirrors the toast surface shown around recognition.
type Progress interface {
	StartCountdown(seconds int)
	Update(text string)
	Close()
}

type Options struct {
	// Deadline bounds recognition only; selection and review wait on the
	// user as long as it takes. Zero means DefaultDeadline; negative
	// disables the deadline entirely.
	Deadline  time.Duration
	Capture   CaptureFunc
	Select    SelectFunc
	Recognize RecognizeFunc
	// Review is optional. Without it the session auto-accepts, which is
	// what the delegated and one-shot capture paths want.
	Review   ReviewFunc
	Progress Progress
	// OnCopy handles the review panel's Copy button and receives the
	// formatted result.
	OnCopy func(text string)
}

// Outcome is what one capture session produced.
type Outcome struct {
	Decision review.Decision
	Result   recognize.Result
	// Region is the selection in capture-local coordinates.
	Region geometry.Rect
	// Screen is the captured virtual-screen rectangle.
	Screen image.Rectangle
	// Panel is the review panel's global rectangle, zero when review was
	// skipped.
	Panel geometry.Rect
	// Crop is the selected sub-image, kept around for pinning.
	Crop image.Image
}

// Execute runs one capture session end to end. A recognition failure
// with a live review surface degrades to an empty result so the user
// still gets the panel; without review it surfaces as an error.
func Execute(ctx context.Context, opts Options) (Outcome, error) {
	if opts.Capture == nil || opts.Select == nil || opts.Recognize == nil {
		return Outcome{}, errors.New("session: capture, select and recognize are required")
	}

	snap, err := opts.Capture()
	if err != nil {
		return Outcome{}, fmt.Errorf("capture screen: %w", err)
	}

	region, cancelled, err := opts.Select(ctx, snap)
	if err != nil {
		return Outcome{}, err
	}
	if cancelled {
		log.Printf("SESSION: selection cancelled")
		return Outcome{}, ErrSelectionCancelled
	}

	crop, err := screenshot.Crop(snap.Image, region)
	if err != nil {
		return Outcome{}, fmt.Errorf("crop selection: %w", err)
	}

	deadline := opts.Deadline
	if deadline == 0 {
		deadline = DefaultDeadline
	}
	jobCtx := ctx
	cancel := func() {}
	if deadline > 0 {
		if opts.Progress != nil {
			opts.Progress.StartCountdown(countdownSeconds(deadline))
		}
		jobCtx, cancel = context.WithTimeout(ctx, deadline)
	}
	res, err := opts.Recognize(jobCtx, crop)
	cancel()
	if err != nil {
		if opts.Progress != nil {
			opts.Progress.Close()
		}
		if opts.Review == nil || ctx.Err() != nil {
			return Outcome{}, fmt.Errorf("recognition: %w", err)
		}
		// The panel still opens so the user sees what happened instead
		// of a capture that silently vanishes.
		log.Printf("SESSION: recognition failed, reviewing empty result: %v", err)
		res = recognize.Result{}
	}

	out := Outcome{
		Decision: review.Accepted,
		Result:   res,
		Region:   region,
		Screen:   snap.Bounds,
		Crop:     crop,
	}

	if opts.Review == nil {
		if opts.Progress != nil {
			opts.Progress.Update(recognize.Format(res))
		}
		return out, nil
	}

	// The panel takes over as the visible feedback.
	if opts.Progress != nil {
		opts.Progress.Close()
	}

	verdict, err := opts.Review(ctx, review.Request{
		Result:    res,
		Selection: region,
		Screen:    snap.Bounds,
		OnCopy:    copyHook(opts.OnCopy, res),
	})
	out.Decision = verdict.Decision
	out.Panel = verdict.Panel
	if err != nil {
		return out, err
	}
	log.Printf("SESSION: finished with decision %s", out.Decision)
	return out, nil
}

func countdownSeconds(deadline time.Duration) int {
	seconds := int(math.Ceil(deadline.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

func copyHook(onCopy func(string), res recognize.Result) func() {
	if onCopy == nil {
		return nil
	}
	return func() { onCopy(recognize.Format(res)) }
}
