// Package media generates encounter art, narration audio, and
// transcriptions through the OpenAI media endpoints. Every method
// degrades cleanly when no API key is configured.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
)

// MountRoute is the URL prefix the server serves generated audio under.
const MountRoute = "/media/tts"

// Config configures the media generator.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	// AudioDir receives synthesized narration files. Empty disables
	// speech output.
	AudioDir string
}

// Generator calls the OpenAI image, speech, and transcription APIs.
type Generator struct {
	cfg Config
}

// NewGenerator builds a media generator. A missing API key yields a
// generator whose methods report media as unavailable.
func NewGenerator(cfg Config) *Generator {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	return &Generator{cfg: cfg}
}

// Enabled reports whether media generation is configured.
func (g *Generator) Enabled() bool {
	return g != nil && strings.TrimSpace(g.cfg.APIKey) != ""
}

func (g *Generator) endpoint(path string) string {
	return strings.TrimRight(g.cfg.BaseURL, "/") + path
}

func (g *Generator) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(g.cfg.APIKey))
}

func readAPIError(res *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
	if err != nil {
		return fmt.Errorf("read media error body: %w", err)
	}
	return fmt.Errorf("media request status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
}

// EncounterImage generates one illustration for an encounter and
// returns its hosted URL. Returns empty without error when disabled.
func (g *Generator) EncounterImage(ctx context.Context, prompt string) (string, error) {
	if !g.Enabled() {
		return "", nil
	}
	requestBody, err := json.Marshal(map[string]any{
		"model":  "dall-e-3",
		"prompt": prompt,
		"n":      1,
		"size":   "1024x1024",
	})
	if err != nil {
		return "", fmt.Errorf("marshal image request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint("/images/generations"), bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	g.authorize(req)

	res, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", readAPIError(res)
	}

	var payload struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode image response: %w", err)
	}
	if len(payload.Data) == 0 || payload.Data[0].URL == "" {
		return "", fmt.Errorf("image response missing url")
	}
	return payload.Data[0].URL, nil
}

// Narration synthesizes speech for narration text, writes the audio
// under AudioDir, and returns its serving URL. Returns empty without
// error when disabled.
func (g *Generator) Narration(ctx context.Context, text string) (string, error) {
	if !g.Enabled() || strings.TrimSpace(g.cfg.AudioDir) == "" {
		return "", nil
	}
	requestBody, err := json.Marshal(map[string]any{
		"model": "tts-1",
		"voice": "onyx",
		"input": text,
	})
	if err != nil {
		return "", fmt.Errorf("marshal speech request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint("/audio/speech"), bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("build speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	g.authorize(req)

	res, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", readAPIError(res)
	}

	if err := os.MkdirAll(g.cfg.AudioDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}
	filename := uuid.NewString() + ".mp3"
	path := filepath.Join(g.cfg.AudioDir, filename)
	audio, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}
	defer audio.Close()
	if _, err := io.Copy(audio, res.Body); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write audio file: %w", err)
	}
	return MountRoute + "/" + filename, nil
}

// Transcribe sends recorded audio to the speech-to-text endpoint and
// returns the text.
func (g *Generator) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if !g.Enabled() {
		return "", apperrors.New(apperrors.CodeAdventureGMFailure, "audio transcription is not available")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build transcription form: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("copy transcription audio: %w", err)
	}
	if err := form.WriteField("model", "whisper-1"); err != nil {
		return "", fmt.Errorf("build transcription form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close transcription form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint("/audio/transcriptions"), &body)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	g.authorize(req)

	res, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", readAPIError(res)
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	return strings.TrimSpace(payload.Text), nil
}
