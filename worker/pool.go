// Package worker runs recognition jobs on a fixed-size goroutine pool
// with a single-slot input queue, so a burst of captures cannot pile up
// unbounded work.
package worker

import (
	"context"
	"image"
	"log"
	"runtime"
	"sync"

	"snapocr/recognize"
)

// RecognizeFunc performs one recognition pass over a cropped capture.
type RecognizeFunc func(ctx context.Context, img image.Image) (recognize.Result, error)

// ResultCallback is invoked on completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(res recognize.Result, err error)

// Pool is a fixed-size recognition pool with a 1-slot input queue
// (strict back-pressure).
type Pool struct {
	jobs      chan job
	wg        sync.WaitGroup
	recognize RecognizeFunc
}

type job struct {
	ctx context.Context
	img image.Image
	cb  ResultCallback
}

// New creates a worker pool running fn. Size defaults to NumCPU when
// size<=0. Queue is 1 slot.
func New(size int, fn RecognizeFunc) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1), recognize: fn}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				b := j.img.Bounds()
				log.Printf("WORKER: starting recognition for %dx%d crop", b.Dx(), b.Dy())
				res, err := p.runWithContext(j.ctx, j.img)
				log.Printf("WORKER: recognition completed, text length=%d, err=%v", len(res.Text), err)
				j.cb(res, err)
			}
		}()
	}
}

// Submit enqueues a recognition job if the single-slot queue is free.
// Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, img image.Image, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, img: img, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// runWithContext honors the job deadline even when the engine call does
// not return early on cancellation.
func (p *Pool) runWithContext(ctx context.Context, img image.Image) (recognize.Result, error) {
	if _, ok := ctx.Deadline(); !ok {
		return p.recognize(ctx, img)
	}
	type outcome struct {
		res recognize.Result
		err error
	}
	resCh := make(chan outcome, 1)
	go func() {
		res, err := p.recognize(ctx, img)
		resCh <- outcome{res, err}
	}()
	select {
	case r := <-resCh:
		return r.res, r.err
	case <-ctx.Done():
		// The engine call finishes in the background; report the
		// timeout now.
		return recognize.Result{}, ctx.Err()
	}
}
