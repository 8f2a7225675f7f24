// Package speech turns voice recordings into text.
package speech

import (
	"context"
	"strings"
)

// Transcriber recognizes speech in an audio recording. An empty transcript
// with a nil error means no speech was recognized.
type Transcriber interface {
	Recognize(ctx context.Context, audio []byte) (string, error)
	Name() string
}

// Config describes the audio handed to a Transcriber.
type Config struct {
	Encoding        string
	SampleRateHertz int
	LanguageCode    string
}

// DefaultConfig matches voice notes recorded by the chat platform.
func DefaultConfig() Config {
	return Config{
		Encoding:        "OGG_OPUS",
		SampleRateHertz: 48000,
		LanguageCode:    "en-US",
	}
}

// baseLanguage returns the ISO-639-1 part of a BCP-47 tag such as "en-US".
func baseLanguage(code string) string {
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return strings.ToLower(code)
}
