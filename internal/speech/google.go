package speech

import (
	"context"
	"fmt"
	"time"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/assistantgpt/voice-task-bot/pkg/logger"
	"github.com/assistantgpt/voice-task-bot/pkg/metrics"
)

// GoogleTranscriber uses Google Cloud Speech-to-Text v1. Credentials come
// from Application Default Credentials.
type GoogleTranscriber struct {
	client *gspeech.Client
	config *speechpb.RecognitionConfig
	logger *logger.Logger
}

// NewGoogleTranscriber dials the Speech API.
func NewGoogleTranscriber(ctx context.Context, cfg Config, log *logger.Logger) (*GoogleTranscriber, error) {
	client, err := gspeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	return &GoogleTranscriber{
		client: client,
		config: recognitionConfig(cfg),
		logger: log,
	}, nil
}

func recognitionConfig(cfg Config) *speechpb.RecognitionConfig {
	encoding := speechpb.RecognitionConfig_OGG_OPUS
	if v, ok := speechpb.RecognitionConfig_AudioEncoding_value[cfg.Encoding]; ok {
		encoding = speechpb.RecognitionConfig_AudioEncoding(v)
	}
	return &speechpb.RecognitionConfig{
		Encoding:        encoding,
		SampleRateHertz: int32(cfg.SampleRateHertz),
		LanguageCode:    cfg.LanguageCode,
	}
}

// Name returns the provider name.
func (t *GoogleTranscriber) Name() string {
	return "google"
}

// Recognize sends audio for synchronous recognition.
func (t *GoogleTranscriber) Recognize(ctx context.Context, audio []byte) (string, error) {
	start := time.Now()

	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: t.config,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		metrics.RecordTranscription(t.Name(), "error", time.Since(start).Seconds())
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	transcript := firstTranscript(resp)
	status := "ok"
	if transcript == "" {
		status = "empty"
	}
	metrics.RecordTranscription(t.Name(), status, time.Since(start).Seconds())
	t.logger.Debug("speech recognized",
		zap.Int("results", len(resp.GetResults())),
		zap.Int("audio_bytes", len(audio)),
	)

	return transcript, nil
}

// Close releases the underlying gRPC connection.
func (t *GoogleTranscriber) Close() error {
	return t.client.Close()
}

// firstTranscript returns the top alternative of the first result.
func firstTranscript(resp *speechpb.RecognizeResponse) string {
	results := resp.GetResults()
	if len(results) == 0 {
		return ""
	}
	alternatives := results[0].GetAlternatives()
	if len(alternatives) == 0 {
		return ""
	}
	return alternatives[0].GetTranscript()
}
