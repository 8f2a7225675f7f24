package middleware

import (
	"strings"
	"unicode/utf8"

	"github.com/assistantgpt/voice-task-bot/internal/errs"
)

// MaxTranscriptLength bounds what is forwarded to the model.
const MaxTranscriptLength = 100000

// ValidateTranscript validates a recognized transcript.
func ValidateTranscript(transcript string) error {
	if strings.TrimSpace(transcript) == "" {
		return errs.ValidationErrorf("transcript cannot be empty")
	}
	if len(transcript) > MaxTranscriptLength {
		return errs.ValidationErrorf("transcript exceeds maximum length")
	}
	if !utf8.ValidString(transcript) {
		return errs.ValidationErrorf("transcript must be valid UTF-8")
	}
	return nil
}

// ValidateAudio validates a downloaded voice recording.
func ValidateAudio(audio []byte, maxBytes int) error {
	if len(audio) == 0 {
		return errs.ValidationErrorf("voice message is empty")
	}
	if maxBytes > 0 && len(audio) > maxBytes {
		return errs.ValidationErrorf("voice message exceeds %d bytes", maxBytes)
	}
	return nil
}
