package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"snapocr/config"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENROUTER_API_KEY", "OPENROUTER_API_KEY_FILE", "MODEL", "PROVIDERS",
		"RECOGNIZER", "HOTKEY", "OCR_LANGUAGE", "MATH_MARKUP",
		"SHOW_NOTIFICATION", "ENABLE_FILE_LOGGING", "RECOGNITION_DEADLINE_SECONDS",
		"SNAPOCR_ENV",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("OCR_LANGUAGE", "deu")
	t.Setenv("MATH_MARKUP", "true")

	cfg, err := loadConfig(flags{lang: "jpn", noLatex: true})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Language != "jpn" {
		t.Fatalf("Language = %q, want flag override", cfg.Language)
	}
	if cfg.MathMarkup {
		t.Fatal("--no-latex did not override MATH_MARKUP=true")
	}

	cfg, err = loadConfig(flags{latex: true})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !cfg.MathMarkup {
		t.Fatal("--latex did not force math markup on")
	}
	if cfg.Language != "deu" {
		t.Fatalf("Language = %q, want environment value", cfg.Language)
	}
}

func TestBuildEngineVisionRequirements(t *testing.T) {
	_, err := buildEngine(&config.Config{Recognizer: config.RecognizerVision})
	if err == nil || !strings.Contains(err.Error(), "OPENROUTER_API_KEY") {
		t.Fatalf("missing key error = %v", err)
	}

	_, err = buildEngine(&config.Config{
		Recognizer: config.RecognizerVision,
		APIKey:     "sk-test",
	})
	if err == nil || !strings.Contains(err.Error(), "MODEL") {
		t.Fatalf("missing model error = %v", err)
	}

	engine, err := buildEngine(&config.Config{
		Recognizer: config.RecognizerVision,
		APIKey:     "sk-test",
		Model:      "qwen/qwen2.5-vl-72b-instruct",
	})
	if err != nil {
		t.Fatalf("buildEngine: %v", err)
	}
	if engine.Name() != "vision" {
		t.Fatalf("engine = %q, want vision", engine.Name())
	}
}

func TestLoadImageFile(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.png")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadImageFile(empty); err == nil {
		t.Fatal("empty file accepted")
	}

	junk := filepath.Join(dir, "junk.png")
	if err := os.WriteFile(junk, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadImageFile(junk); err == nil || !strings.Contains(err.Error(), "decode") {
		t.Fatalf("junk file error = %v", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 12, 8))); err != nil {
		t.Fatal(err)
	}
	good := filepath.Join(dir, "good.png")
	if err := os.WriteFile(good, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	img, err := loadImageFile(good)
	if err != nil {
		t.Fatalf("loadImageFile: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
		t.Fatalf("decoded bounds = %v", b)
	}

	if _, err := loadImageFile(filepath.Join(dir, "missing.png")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"ui", "file", "lang", "latex", "no-latex", "clip", "config"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("flag --%s missing", name)
		}
	}
	if cmd.Version != "2.0.0" {
		t.Fatalf("version = %q", cmd.Version)
	}
}
