package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/namurok/dialogue-engine/internal/capability"
)

// Transcriber converts child speech to text via the audio transcription API.
type Transcriber struct {
	client *Client
}

func NewTranscriber(client *Client) *Transcriber {
	return &Transcriber{client: client}
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Transcribe uploads the audio payload as multipart form data. The format is
// used as the file extension so the API can sniff the container.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, format string) (capability.Transcript, error) {
	if len(audio) == 0 {
		return capability.Transcript{}, fmt.Errorf("empty audio payload")
	}
	if format == "" {
		format = "wav"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "speech."+format)
	if err != nil {
		return capability.Transcript{}, fmt.Errorf("build form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return capability.Transcript{}, fmt.Errorf("write audio: %w", err)
	}
	if err := mw.WriteField("model", t.client.cfg.TranscribeModel); err != nil {
		return capability.Transcript{}, fmt.Errorf("write model field: %w", err)
	}
	if err := mw.WriteField("language", "ko"); err != nil {
		return capability.Transcript{}, fmt.Errorf("write language field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return capability.Transcript{}, fmt.Errorf("close form: %w", err)
	}

	url := t.client.cfg.BaseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return capability.Transcript{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.client.cfg.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.client.http.Do(req)
	if err != nil {
		return capability.Transcript{}, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return capability.Transcript{}, fmt.Errorf("transcription status %d: %s", resp.StatusCode, msg)
	}

	var out transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return capability.Transcript{}, fmt.Errorf("decode transcription: %w", err)
	}

	return capability.Transcript{
		Text:       out.Text,
		Confidence: 1.0,
		Language:   out.Language,
	}, nil
}
