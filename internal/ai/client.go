package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	scriptEndpoint    = "/chat/completions"
	videoEndpoint     = "/videos/generations"
	imageEndpoint     = "/images/generations"
	voiceoverEndpoint = "/audio/speech"
)

// Sentinel errors per generation step. Callers match with errors.Is.
var (
	ErrScriptGeneration    = errors.New("script generation failed")
	ErrVideoGeneration     = errors.New("video generation failed")
	ErrImageGeneration     = errors.New("image generation failed")
	ErrVoiceoverGeneration = errors.New("voiceover generation failed")
)

// VideoSettings are the synthesis parameters passed to the provider.
type VideoSettings struct {
	Style      string
	Resolution string
}

// VideoResult is the media descriptor returned by the provider.
type VideoResult struct {
	VideoURL      string `json:"video_url"`
	ThumbnailURL  string `json:"thumbnail_url"`
	Duration      int    `json:"duration"`
	Resolution    string `json:"resolution"`
	FileSizeBytes int64  `json:"file_size"`
	Format        string `json:"format"`
}

// Client talks to the external AI provider.
type Client interface {
	// GenerateScript produces a marketing script for the prompt using the
	// type-specific instruction template.
	GenerateScript(ctx context.Context, prompt string, videoType string) (string, error)
	// GenerateVideo synthesizes a video from a script.
	GenerateVideo(ctx context.Context, script string, videoType string, settings VideoSettings) (*VideoResult, error)
	// GenerateImage produces a single product-showcase image URL.
	GenerateImage(ctx context.Context, prompt, style string) (string, error)
	// GenerateVoiceover produces MP3 speech audio for the given text.
	GenerateVoiceover(ctx context.Context, text, voice string) ([]byte, error)
}

type httpClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewClient creates an AI provider client with a request timeout.
func NewClient(baseURL, apiKey string) Client {
	return &httpClient{
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (c *httpClient) GenerateScript(ctx context.Context, prompt string, videoType string) (string, error) {
	requestBody := map[string]interface{}{
		"model": "gpt-4",
		"messages": []map[string]string{
			{"role": "system", "content": SystemPrompt(videoType)},
			{"role": "user", "content": prompt},
		},
		"max_tokens":  1500,
		"temperature": 0.7,
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.postJSON(ctx, scriptEndpoint, requestBody, &result); err != nil {
		return "", fmt.Errorf("%w: %w", ErrScriptGeneration, err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: provider returned no choices", ErrScriptGeneration)
	}
	return result.Choices[0].Message.Content, nil
}

func (c *httpClient) GenerateVideo(ctx context.Context, script string, videoType string, settings VideoSettings) (*VideoResult, error) {
	requestBody := map[string]interface{}{
		"prompt":     BuildVideoPrompt(script, videoType, settings.Style),
		"resolution": settings.Resolution,
	}

	var result VideoResult
	if err := c.postJSON(ctx, videoEndpoint, requestBody, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVideoGeneration, err)
	}
	if result.VideoURL == "" {
		return nil, fmt.Errorf("%w: provider returned no video URL", ErrVideoGeneration)
	}
	if result.Resolution == "" {
		result.Resolution = settings.Resolution
	}
	if result.Format == "" {
		result.Format = "mp4"
	}
	return &result, nil
}

func (c *httpClient) GenerateImage(ctx context.Context, prompt, style string) (string, error) {
	if style == "" {
		style = "realistic"
	}
	requestBody := map[string]interface{}{
		"model":   "dall-e-3",
		"prompt":  fmt.Sprintf("%s, %s style, high quality, professional photography", prompt, style),
		"size":    "1024x1024",
		"quality": "hd",
		"n":       1,
	}

	var result struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, imageEndpoint, requestBody, &result); err != nil {
		return "", fmt.Errorf("%w: %w", ErrImageGeneration, err)
	}
	if len(result.Data) == 0 {
		return "", fmt.Errorf("%w: provider returned no images", ErrImageGeneration)
	}
	return result.Data[0].URL, nil
}

func (c *httpClient) GenerateVoiceover(ctx context.Context, text, voice string) ([]byte, error) {
	if voice == "" {
		voice = "alloy"
	}
	requestBody := map[string]interface{}{
		"model":           "tts-1",
		"input":           text,
		"voice":           voice,
		"response_format": "mp3",
	}

	bodyJSON, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", ErrVoiceoverGeneration, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+voiceoverEndpoint, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVoiceoverGeneration, err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVoiceoverGeneration, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrVoiceoverGeneration, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrVoiceoverGeneration, providerError(resp.StatusCode, body))
	}
	return body, nil
}

// postJSON sends a JSON request and decodes a JSON response, translating
// provider error bodies into readable messages.
func (c *httpClient) postJSON(ctx context.Context, endpoint string, requestBody interface{}, out interface{}) error {
	bodyJSON, err := json.Marshal(requestBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyJSON))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.New(providerError(resp.StatusCode, body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *httpClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

func providerError(status int, body []byte) string {
	var errorResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
		return fmt.Sprintf("provider error (HTTP %d): %s", status, errorResp.Error.Message)
	}
	return fmt.Sprintf("provider error: HTTP %d", status)
}
