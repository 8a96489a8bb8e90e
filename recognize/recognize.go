// Package recognize turns cropped screen images into text and, when the
// content looks mathematical, a math markup string. The actual engines
// live in subpackages; this package owns the pipeline and the decision of
// when to attempt the markup pass.
package recognize

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"
)

// Result of one recognition pass. Empty Text with a nil error is the
// valid "no text found" outcome, distinct from a hard failure.
type Result struct {
	Text   string
	Markup string
}

// Empty reports whether the result carries nothing usable.
func (r Result) Empty() bool {
	return strings.TrimSpace(r.Text) == "" && strings.TrimSpace(r.Markup) == ""
}

// Format renders the clipboard/stdout form of a result.
func Format(r Result) string {
	text := strings.TrimSpace(r.Text)
	markup := strings.TrimSpace(r.Markup)
	switch {
	case markup == "":
		return text
	case text == "":
		return fmt.Sprintf("[LaTeX]: %s", markup)
	default:
		return fmt.Sprintf("%s\n\n[LaTeX]: %s", text, markup)
	}
}

// Engine is one recognition backend.
type Engine interface {
	Name() string
	// Text extracts plain text. "No text found" is ("", nil), not an error.
	Text(ctx context.Context, img image.Image) (string, error)
	// Markup extracts a math markup rendition of the image content.
	Markup(ctx context.Context, img image.Image) (string, error)
}

// MathPredicate decides whether recognized text suggests mathematical
// content worth a markup pass.
type MathPredicate func(text string) bool

type Options struct {
	Engine     Engine
	MathMarkup bool
	// DetectMath defaults to DefaultMathPredicate when nil.
	DetectMath MathPredicate
}

// Pipeline wraps an engine with the math-markup decision.
type Pipeline struct {
	engine     Engine
	mathMarkup bool
	detectMath MathPredicate
}

func NewPipeline(opts Options) *Pipeline {
	detect := opts.DetectMath
	if detect == nil {
		detect = DefaultMathPredicate
	}
	return &Pipeline{
		engine:     opts.Engine,
		mathMarkup: opts.MathMarkup,
		detectMath: detect,
	}
}

// Recognize runs the text pass and, when markup conversion is enabled and
// warranted, the markup pass. A failed markup pass degrades to text-only;
// a failed text pass is a hard error for the caller to handle.
func (p *Pipeline) Recognize(ctx context.Context, img image.Image) (Result, error) {
	text, err := p.engine.Text(ctx, img)
	if err != nil {
		return Result{}, fmt.Errorf("%s text recognition: %w", p.engine.Name(), err)
	}
	res := Result{Text: strings.TrimSpace(text)}
	if !p.mathMarkup {
		return res, nil
	}
	// An empty text pass still attempts markup: a math-only crop often
	// defeats plain OCR.
	if res.Text != "" && !p.detectMath(res.Text) {
		return res, nil
	}
	markup, err := p.engine.Markup(ctx, img)
	if err != nil {
		log.Printf("RECOGNIZE: markup pass failed, keeping plain text: %v", err)
		return res, nil
	}
	res.Markup = strings.TrimSpace(markup)
	return res, nil
}
