package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/openrouter"
	APIKeyPathEnvVar  = "OPENROUTER_API_KEY_FILE"
	EnvFileEnvVar     = "SNAPOCR_ENV"

	RecognizerVision    = "vision"
	RecognizerTesseract = "tesseract"

	DefaultHotkey      = "ctrl+shift+o"
	DefaultLanguage    = "chi_sim+eng"
	DefaultDeadlineSec = 120
)

// LoadOptions carries programmatic overrides, used by the CLI flag layer
// and by tests. Overrides always win over environment and file values.
type LoadOptions struct {
	EnvFileOverride    string
	APIKeyPathOverride string
	LanguageOverride   string
	RecognizerOverride string
	MathMarkupOverride *bool
}

type Config struct {
	APIKey                 string
	APIKeyPath             string
	Model                  string
	Providers              []string
	Recognizer             string
	Hotkey                 string
	Language               string
	MathMarkup             bool
	ShowNotification       bool
	EnableFileLogging      bool
	RecognitionDeadlineSec int
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Configuration sources in priority order:
	// 1) explicit env file from the --config flag
	// 2) .env in the executable directory
	// 3) SNAPOCR_ENV pointing at an env file
	// Process environment variables always override file values.
	envPath := resolveEnvPath(opts)
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	var providers []string
	if providersStr := os.Getenv("PROVIDERS"); providersStr != "" {
		for _, provider := range strings.Split(providersStr, ",") {
			if trimmed := strings.TrimSpace(provider); trimmed != "" {
				providers = append(providers, trimmed)
			}
		}
	}

	// An explicit 0 disables the recognition deadline; invalid or negative
	// values fall back to the default.
	deadlineSec := DefaultDeadlineSec
	if v := os.Getenv("RECOGNITION_DEADLINE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			deadlineSec = n
		}
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	cfg := &Config{
		APIKey:                 resolveAPIKey(apiKeyPath),
		APIKeyPath:             apiKeyPath,
		Model:                  os.Getenv("MODEL"),
		Providers:              providers,
		Recognizer:             resolveRecognizer(opts),
		Hotkey:                 getEnvWithDefault("HOTKEY", DefaultHotkey),
		Language:               resolveLanguage(opts),
		MathMarkup:             resolveMathMarkup(opts),
		ShowNotification:       parseBool(getEnvWithDefault("SHOW_NOTIFICATION", "true")),
		EnableFileLogging:      parseBool(os.Getenv("ENABLE_FILE_LOGGING")),
		RecognitionDeadlineSec: deadlineSec,
	}

	return cfg, nil
}

func resolveEnvPath(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.EnvFileOverride); override != "" {
		return override
	}

	execPath, err := os.Executable()
	if err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	return os.Getenv("OPENROUTER_API_KEY")
}

func resolveRecognizer(opts LoadOptions) string {
	value := opts.RecognizerOverride
	if value == "" {
		value = os.Getenv("RECOGNIZER")
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case RecognizerTesseract:
		return RecognizerTesseract
	default:
		return RecognizerVision
	}
}

func resolveLanguage(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.LanguageOverride); override != "" {
		return override
	}
	return getEnvWithDefault("OCR_LANGUAGE", DefaultLanguage)
}

func resolveMathMarkup(opts LoadOptions) bool {
	if opts.MathMarkupOverride != nil {
		return *opts.MathMarkupOverride
	}
	return parseBool(os.Getenv("MATH_MARKUP"))
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
