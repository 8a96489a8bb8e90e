//go:build tesseract

// Package tesseract recognizes text locally through the Tesseract engine.
// It needs cgo and an installed libtesseract, so it sits behind the
// "tesseract" build tag. Without the tag a stub that reports
// ErrNotEnabled is compiled instead.
package tesseract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"snapocr/screenshot"
)

// ErrNotEnabled is only returned by the stub build. It is declared here
// too so callers can test against it regardless of tags.
var ErrNotEnabled = errors.New("tesseract support not enabled; rebuild with -tags tesseract")

// Engine runs local OCR. It holds no client; gosseract clients are not
// safe for concurrent use, so each recognition gets its own.
type Engine struct {
	languages []string
}

// New prepares a local OCR engine for the given tesseract language
// spec, e.g. "chi_sim+eng".
func New(language string) (*Engine, error) {
	var langs []string
	for _, code := range strings.Split(language, "+") {
		if code = strings.TrimSpace(code); code != "" {
			langs = append(langs, code)
		}
	}
	return &Engine{languages: langs}, nil
}

func (e *Engine) Name() string { return "tesseract" }

func (e *Engine) Text(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := screenshot.EncodePNG(img)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()
	if len(e.languages) > 0 {
		if err := client.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("failed to set languages %v: %v", e.languages, err)
		}
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to load image: %v", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognition failed: %v", err)
	}
	return strings.TrimSpace(text), nil
}

// Markup is unsupported locally. Tesseract has no LaTeX model, so the
// answer is always "nothing found" rather than an error.
func (e *Engine) Markup(ctx context.Context, img image.Image) (string, error) {
	return "", nil
}
