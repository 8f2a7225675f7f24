package speech

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/assistantgpt/voice-task-bot/pkg/metrics"
)

// WhisperTranscriber uses the OpenAI audio transcription endpoint.
type WhisperTranscriber struct {
	client   *openai.Client
	language string
}

// NewWhisperTranscriber wraps an existing OpenAI client.
func NewWhisperTranscriber(client *openai.Client, cfg Config) *WhisperTranscriber {
	return &WhisperTranscriber{
		client:   client,
		language: baseLanguage(cfg.LanguageCode),
	}
}

// Name returns the provider name.
func (t *WhisperTranscriber) Name() string {
	return "whisper"
}

// Recognize uploads audio as an Ogg file and returns the transcript.
func (t *WhisperTranscriber) Recognize(ctx context.Context, audio []byte) (string, error) {
	start := time.Now()

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "voice.ogg",
		Reader:   bytes.NewReader(audio),
		Language: t.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		metrics.RecordTranscription(t.Name(), "error", time.Since(start).Seconds())
		return "", fmt.Errorf("whisper transcription failed: %w", err)
	}

	transcript := strings.TrimSpace(resp.Text)
	status := "ok"
	if transcript == "" {
		status = "empty"
	}
	metrics.RecordTranscription(t.Name(), status, time.Since(start).Seconds())

	return transcript, nil
}
