package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	os.Setenv("OPENROUTER_API_KEY", "test_api_key")
	os.Setenv("MODEL", "test_model")
	os.Setenv("ENABLE_FILE_LOGGING", "true")
	os.Setenv("HOTKEY", "ctrl+shift+t")
	os.Setenv("OCR_LANGUAGE", "eng")

	defer func() {
		os.Unsetenv("OPENROUTER_API_KEY")
		os.Unsetenv("MODEL")
		os.Unsetenv("ENABLE_FILE_LOGGING")
		os.Unsetenv("HOTKEY")
		os.Unsetenv("OCR_LANGUAGE")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.APIKey != "test_api_key" {
		t.Errorf("Expected APIKey to be 'test_api_key', got '%s'", cfg.APIKey)
	}
	if cfg.Model != "test_model" {
		t.Errorf("Expected Model to be 'test_model', got '%s'", cfg.Model)
	}
	if !cfg.EnableFileLogging {
		t.Errorf("Expected EnableFileLogging to be true, got %v", cfg.EnableFileLogging)
	}
	if cfg.Hotkey != "ctrl+shift+t" {
		t.Errorf("Expected Hotkey to be 'ctrl+shift+t', got '%s'", cfg.Hotkey)
	}
	if cfg.Language != "eng" {
		t.Errorf("Expected Language to be 'eng', got '%s'", cfg.Language)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HOTKEY", "OCR_LANGUAGE", "RECOGNIZER", "MATH_MARKUP", "SHOW_NOTIFICATION", "RECOGNITION_DEADLINE_SECONDS"} {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Hotkey != DefaultHotkey {
		t.Errorf("Expected default hotkey '%s', got '%s'", DefaultHotkey, cfg.Hotkey)
	}
	if cfg.Language != DefaultLanguage {
		t.Errorf("Expected default language '%s', got '%s'", DefaultLanguage, cfg.Language)
	}
	if cfg.Recognizer != RecognizerVision {
		t.Errorf("Expected default recognizer '%s', got '%s'", RecognizerVision, cfg.Recognizer)
	}
	if cfg.MathMarkup {
		t.Error("Expected math markup to default to false")
	}
	if !cfg.ShowNotification {
		t.Error("Expected notifications to default to true")
	}
	if cfg.RecognitionDeadlineSec != DefaultDeadlineSec {
		t.Errorf("Expected default deadline %d, got %d", DefaultDeadlineSec, cfg.RecognitionDeadlineSec)
	}
}

func TestLoadOverridesWinOverEnvironment(t *testing.T) {
	os.Setenv("OCR_LANGUAGE", "eng")
	os.Setenv("MATH_MARKUP", "true")
	os.Setenv("RECOGNIZER", "vision")
	defer func() {
		os.Unsetenv("OCR_LANGUAGE")
		os.Unsetenv("MATH_MARKUP")
		os.Unsetenv("RECOGNIZER")
	}()

	noMarkup := false
	cfg, err := LoadWithOptions(LoadOptions{
		LanguageOverride:   "deu",
		MathMarkupOverride: &noMarkup,
		RecognizerOverride: "tesseract",
	})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Language != "deu" {
		t.Errorf("Expected language override 'deu', got '%s'", cfg.Language)
	}
	if cfg.MathMarkup {
		t.Error("Expected math markup override to disable markup")
	}
	if cfg.Recognizer != RecognizerTesseract {
		t.Errorf("Expected recognizer override 'tesseract', got '%s'", cfg.Recognizer)
	}
}

func TestLoadDeadline(t *testing.T) {
	cases := map[string]int{
		"45":   45,
		"0":    0,
		"-3":   DefaultDeadlineSec,
		"soon": DefaultDeadlineSec,
	}
	for value, want := range cases {
		os.Setenv("RECOGNITION_DEADLINE_SECONDS", value)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Failed to load configuration: %v", err)
		}
		if cfg.RecognitionDeadlineSec != want {
			t.Errorf("Deadline %q: expected %d, got %d", value, want, cfg.RecognitionDeadlineSec)
		}
	}
	os.Unsetenv("RECOGNITION_DEADLINE_SECONDS")
}

func TestLoadProviders(t *testing.T) {
	os.Setenv("PROVIDERS", "openai, anthropic ,, deepinfra")
	defer os.Unsetenv("PROVIDERS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	want := []string{"openai", "anthropic", "deepinfra"}
	if len(cfg.Providers) != len(want) {
		t.Fatalf("Expected %d providers, got %d: %v", len(want), len(cfg.Providers), cfg.Providers)
	}
	for i, provider := range want {
		if cfg.Providers[i] != provider {
			t.Errorf("Provider %d: expected '%s', got '%s'", i, provider, cfg.Providers[i])
		}
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "on"} {
		if !parseBool(v) {
			t.Errorf("parseBool(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"", "0", "false", "no", "off", "maybe"} {
		if parseBool(v) {
			t.Errorf("parseBool(%q) = true, want false", v)
		}
	}
}
