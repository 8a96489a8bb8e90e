package worker

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"snapocr/recognize"
)

func testCrop() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 4, 4))
}

func TestPoolSubmitDropWhenBusy(t *testing.T) {
	block := make(chan struct{})
	p := New(1, func(ctx context.Context, img image.Image) (recognize.Result, error) {
		<-block
		return recognize.Result{Text: "done"}, nil
	})
	defer p.Close()
	ctx := context.Background()

	done := make(chan struct{})
	// First submit occupies the worker
	ok := p.Submit(ctx, testCrop(), func(recognize.Result, error) { close(done) })
	if !ok {
		t.Fatal("first submit should succeed")
	}
	// Give the worker a moment to pick the job up, then fill the slot
	time.Sleep(20 * time.Millisecond)
	ok2 := p.Submit(ctx, testCrop(), func(recognize.Result, error) {})
	// Third submit must drop given 1-slot queue and one in-flight
	ok3 := p.Submit(ctx, testCrop(), func(recognize.Result, error) {})
	if ok2 && ok3 {
		t.Fatal("expected at least one submit to drop due to full queue")
	}
	close(block)
	<-done
}

func TestPoolDeliversResult(t *testing.T) {
	p := New(1, func(ctx context.Context, img image.Image) (recognize.Result, error) {
		return recognize.Result{Text: "invoice total 42", Markup: "42"}, nil
	})
	defer p.Close()

	got := make(chan recognize.Result, 1)
	ok := p.Submit(context.Background(), testCrop(), func(res recognize.Result, err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		got <- res
	})
	if !ok {
		t.Fatal("submit should succeed on idle pool")
	}
	select {
	case res := <-got:
		if res.Text != "invoice total 42" || res.Markup != "42" {
			t.Errorf("unexpected result: %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never invoked")
	}
}

func TestPoolDeliversError(t *testing.T) {
	boom := errors.New("engine unavailable")
	p := New(1, func(ctx context.Context, img image.Image) (recognize.Result, error) {
		return recognize.Result{}, boom
	})
	defer p.Close()

	errCh := make(chan error, 1)
	p.Submit(context.Background(), testCrop(), func(res recognize.Result, err error) {
		errCh <- err
	})
	select {
	case err := <-errCh:
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never invoked")
	}
}

func TestPoolHonorsDeadline(t *testing.T) {
	p := New(1, func(ctx context.Context, img image.Image) (recognize.Result, error) {
		time.Sleep(500 * time.Millisecond)
		return recognize.Result{Text: "too late"}, nil
	})
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	errCh := make(chan error, 1)
	p.Submit(ctx, testCrop(), func(res recognize.Result, err error) {
		if res.Text != "" {
			t.Errorf("expected empty result on timeout, got %+v", res)
		}
		errCh <- err
	})
	select {
	case err := <-errCh:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want deadline exceeded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never invoked")
	}
}

func TestPoolCloseDrainsQueuedWork(t *testing.T) {
	done := make(chan struct{})
	p := New(1, func(ctx context.Context, img image.Image) (recognize.Result, error) {
		time.Sleep(30 * time.Millisecond)
		return recognize.Result{}, nil
	})
	if !p.Submit(context.Background(), testCrop(), func(recognize.Result, error) { close(done) }) {
		t.Fatal("submit should succeed")
	}
	p.Close()
	select {
	case <-done:
	default:
		t.Fatal("Close returned before queued work completed")
	}
}
