// Package supertone wraps the Supertone text-to-speech API behind the
// capability.Speech interface.
package supertone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/namurok/dialogue-engine/internal/capability"
)

var errMissingAPIKey = errors.New("supertone: api key is required")

type Config struct {
	APIKey         string
	BaseURL        string
	VoiceName      string
	RequestTimeout time.Duration
}

func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:         apiKey,
		BaseURL:        "https://supertoneapi.com",
		VoiceName:      "Aiden",
		RequestTimeout: 30 * time.Second,
	}
}

// Client synthesizes Korean speech. The voice id is resolved once by name
// through the search endpoint and cached for the lifetime of the client.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger

	mu      sync.Mutex
	voiceID string
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errMissingAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://supertoneapi.com"
	}
	if cfg.VoiceName == "" {
		cfg.VoiceName = "Aiden"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger,
	}, nil
}

type voiceSearchResponse struct {
	Items []struct {
		VoiceID string `json:"voice_id"`
		Name    string `json:"name"`
	} `json:"items"`
}

func (c *Client) resolveVoice(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.voiceID != "" {
		return c.voiceID, nil
	}

	endpoint := c.cfg.BaseURL + "/v1/voices/search?name=" + url.QueryEscape(c.cfg.VoiceName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build voice search: %w", err)
	}
	req.Header.Set("x-sup-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("voice search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("voice search status %d: %s", resp.StatusCode, msg)
	}

	var out voiceSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode voice search: %w", err)
	}
	if len(out.Items) == 0 {
		return "", fmt.Errorf("voice %q not found", c.cfg.VoiceName)
	}

	c.voiceID = out.Items[0].VoiceID
	c.logger.Info("resolved tts voice", "name", c.cfg.VoiceName, "voice_id", c.voiceID)
	return c.voiceID, nil
}

type synthesizeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Style    string `json:"style"`
	Model    string `json:"model"`
}

// Synthesize renders text as Korean child-friendly speech. The duration is
// estimated from character count since the API does not report it.
func (c *Client) Synthesize(ctx context.Context, text string) (capability.Audio, error) {
	if text == "" {
		return capability.Audio{}, fmt.Errorf("empty text")
	}

	voiceID, err := c.resolveVoice(ctx)
	if err != nil {
		return capability.Audio{}, err
	}

	body, err := json.Marshal(synthesizeRequest{
		Text:     text,
		Language: "ko",
		Style:    "neutral",
		Model:    "sona_speech_1",
	})
	if err != nil {
		return capability.Audio{}, fmt.Errorf("marshal tts request: %w", err)
	}

	endpoint := c.cfg.BaseURL + "/v1/text-to-speech/" + voiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return capability.Audio{}, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("x-sup-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return capability.Audio{}, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return capability.Audio{}, fmt.Errorf("tts status %d: %s", resp.StatusCode, msg)
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return capability.Audio{}, fmt.Errorf("read tts body: %w", err)
	}
	if len(wav) == 0 {
		return capability.Audio{}, fmt.Errorf("empty tts response")
	}

	return capability.Audio{
		WAV:        wav,
		DurationMS: int64(utf8.RuneCountInString(text)) * 400,
	}, nil
}
