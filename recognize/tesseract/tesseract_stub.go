//go:build !tesseract

// Package tesseract recognizes text locally through the Tesseract engine.
//
// This is the stub compiled when the "tesseract" build tag is not set;
// New reports ErrNotEnabled. Local OCR needs cgo and libtesseract, so it
// is opt-in:
//
//	go build -tags tesseract
package tesseract

import (
	"context"
	"errors"
	"image"
)

// ErrNotEnabled is returned when local OCR was not compiled in.
var ErrNotEnabled = errors.New("tesseract support not enabled; rebuild with -tags tesseract")

// Engine is the stub local OCR engine.
type Engine struct{}

// New reports that local OCR support is missing from this build.
func New(language string) (*Engine, error) {
	return nil, ErrNotEnabled
}

func (e *Engine) Name() string { return "tesseract" }

func (e *Engine) Text(ctx context.Context, img image.Image) (string, error) {
	return "", ErrNotEnabled
}

func (e *Engine) Markup(ctx context.Context, img image.Image) (string, error) {
	return "", ErrNotEnabled
}
