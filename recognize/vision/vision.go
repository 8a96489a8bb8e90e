// Package vision recognizes text through an OpenRouter vision model.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nfnt/resize"

	"snapocr/screenshot"
)

// OpenRouter API structures
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ProviderPreferences struct {
	Order          []string `json:"order,omitempty"`
	Quantizations  []string `json:"quantizations,omitempty"`
	AllowFallbacks *bool    `json:"allow_fallbacks,omitempty"`
}

type ChatRequest struct {
	Model       string               `json:"model"`
	Messages    []Message            `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
	Provider    *ProviderPreferences `json:"provider,omitempty"`
}

type ChatResponse struct {
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

type Choice struct {
	Message ResponseMessage `json:"message"`
}

type ResponseMessage struct {
	Content string `json:"content"`
}

type APIError struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Code    interface{} `json:"code"` // Can be string or number
}

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"

	// Models report NO_TEXT_FOUND when the image holds nothing legible.
	// That is a valid result, not an error.
	noTextSentinel = "NO_TEXT_FOUND"

	// Vision models gain nothing from inputs larger than this on the
	// longest side, and oversized uploads slow the round trip.
	maxUploadDimension = 2000

	maxAttempts  = 3
	initialDelay = 1 * time.Second
)

const textPrompt = "Perform OCR on this image. Return ONLY the raw extracted text with:\n" +
	"- No formatting\n" +
	"- No XML/HTML tags\n" +
	"- No markdown\n" +
	"- No explanations\n" +
	"- Preserve line breaks accurately from the visual layout.\n" +
	"If no text found, return 'NO_TEXT_FOUND'"

const markupPrompt = "Transcribe the mathematical content of this image as LaTeX source. Return ONLY the LaTeX with:\n" +
	"- No $ or \\[ delimiters\n" +
	"- No markdown fences\n" +
	"- No explanations\n" +
	"If the image contains no mathematical notation, return 'NO_TEXT_FOUND'"

// Config holds the OpenRouter connection settings.
type Config struct {
	APIKey    string
	Model     string
	Providers []string
	// Language lists expected scripts in tesseract notation, e.g.
	// "chi_sim+eng". Used to hint the model, may be empty.
	Language string
	// BaseURL overrides the OpenRouter endpoint. Tests point it at a
	// local server; empty means DefaultBaseURL.
	BaseURL string
}

// Engine extracts text and LaTeX markup from images via OpenRouter.
type Engine struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Engine {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Engine{
		cfg:    cfg,
		client: &http.Client{Timeout: 45 * time.Second},
	}
}

func (e *Engine) Name() string { return "vision" }

// Text performs the OCR pass. An empty string with a nil error means the
// model saw no text in the image.
func (e *Engine) Text(ctx context.Context, img image.Image) (string, error) {
	prompt := textPrompt
	if hint := languageHint(e.cfg.Language); hint != "" {
		prompt += "\nThe text may be in: " + hint + "."
	}
	return e.query(ctx, prompt, img)
}

// Markup performs the LaTeX pass. Empty with nil error means the model
// found no mathematical notation.
func (e *Engine) Markup(ctx context.Context, img image.Image) (string, error) {
	return e.query(ctx, markupPrompt, img)
}

// Ping verifies the endpoint accepts our credentials without spending a
// vision call. Returns nil when the models listing responds OK.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.validate(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "GET", modelsURL(e.cfg.BaseURL), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", e.cfg.APIKey))
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("API unreachable: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("API rejected credentials (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return nil
}

func (e *Engine) validate() error {
	if e.cfg.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if e.cfg.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}

func (e *Engine) query(ctx context.Context, prompt string, img image.Image) (string, error) {
	if err := e.validate(); err != nil {
		return "", err
	}

	pngData, err := encodeUpload(img)
	if err != nil {
		return "", err
	}
	imageURL := fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(pngData))

	request := ChatRequest{
		Model: e.cfg.Model,
		Messages: []Message{
			{
				Role: "user",
				Content: []Content{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
				},
			},
		},
		Temperature: 0.1,
		MaxTokens:   2000,
		Provider:    e.providerPreferences(),
	}

	var content string
	err = retry.Do(
		func() error {
			response, err := e.post(ctx, request)
			if err != nil {
				return err
			}
			if len(response.Choices) == 0 {
				return fmt.Errorf("no choices in API response")
			}
			content = response.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(maxAttempts),
		retry.Delay(initialDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("VISION: attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("request failed after %d attempts: %w", maxAttempts, err)
	}

	content = strings.TrimSpace(cleanExtracted(content))
	if content == noTextSentinel {
		return "", nil
	}
	return content, nil
}

func (e *Engine) post(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.cfg.BaseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", e.cfg.APIKey))
	req.Header.Set("HTTP-Referer", "https://github.com/snapocr/snapocr")
	req.Header.Set("X-Title", "SnapOCR")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %v", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("API error: %s (type: %s, code: %v)", response.Error.Message, response.Error.Type, response.Error.Code)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return &response, nil
}

func (e *Engine) providerPreferences() *ProviderPreferences {
	if len(e.cfg.Providers) == 0 {
		// No providers specified, use default OpenRouter routing
		return nil
	}
	allowFallbacks := false
	return &ProviderPreferences{
		Order:          e.cfg.Providers,
		AllowFallbacks: &allowFallbacks,
	}
}

// encodeUpload prepares a capture for transport, downscaling anything
// whose longest side exceeds maxUploadDimension.
func encodeUpload(img image.Image) ([]byte, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxUploadDimension || h > maxUploadDimension {
		if w >= h {
			img = resize.Resize(maxUploadDimension, 0, img, resize.Lanczos3)
		} else {
			img = resize.Resize(0, maxUploadDimension, img, resize.Lanczos3)
		}
	}
	return screenshot.EncodePNG(img)
}

// cleanExtracted strips stray image tags some models append.
func cleanExtracted(text string) string {
	if text == "</image>" {
		return ""
	}
	return strings.TrimSuffix(text, "</image>")
}

var languageNames = map[string]string{
	"eng":     "English",
	"chi_sim": "Simplified Chinese",
	"chi_tra": "Traditional Chinese",
	"jpn":     "Japanese",
	"kor":     "Korean",
	"deu":     "German",
	"fra":     "French",
	"spa":     "Spanish",
	"rus":     "Russian",
}

// languageHint turns tesseract language notation ("chi_sim+eng") into a
// readable hint for the model.
func languageHint(language string) string {
	if language == "" {
		return ""
	}
	var names []string
	for _, code := range strings.Split(language, "+") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if name, ok := languageNames[code]; ok {
			names = append(names, name)
		} else {
			names = append(names, code)
		}
	}
	return strings.Join(names, ", ")
}

func modelsURL(baseURL string) string {
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return strings.TrimSuffix(baseURL, "/chat/completions") + "/models"
	}
	return baseURL
}
