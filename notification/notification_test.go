package notification

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	if got := truncate("short result"); got != "short result" {
		t.Fatalf("short text altered: %q", got)
	}

	long := strings.Repeat("a", 250)
	got := truncate(long)
	if got != strings.Repeat("a", 200)+"..." {
		t.Fatalf("long text = %q, want 200 chars plus ellipsis", got)
	}

	// Multibyte text is cut on rune boundaries, not bytes.
	cjk := strings.Repeat("字", 210)
	got = truncate(cjk)
	if got != strings.Repeat("字", 200)+"..." {
		t.Fatalf("multibyte truncation broke a rune: %q", got[:12])
	}
}

func TestCountdownText(t *testing.T) {
	if got := countdownText(15); got != "OCR in progress...\n15 seconds remaining" {
		t.Fatalf("countdownText = %q", got)
	}
}

func TestManagerGenerationInvalidatesOldTimers(t *testing.T) {
	m := &Manager{}
	first := m.bump()
	if !m.current(first) {
		t.Fatal("fresh generation not current")
	}
	second := m.bump()
	if m.current(first) {
		t.Fatal("stale generation still current")
	}
	if !m.current(second) {
		t.Fatal("latest generation not current")
	}
}
