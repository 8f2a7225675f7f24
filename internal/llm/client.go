// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/assistantgpt/voice-task-bot/internal/model"
)

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []model.Message
	Functions   []model.FunctionSpec
	MaxTokens   int
	Temperature float64
}

// CompletionResponse represents a completion response. Message is the
// assistant reply and may request a function call.
type CompletionResponse struct {
	Message    model.Message
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends the conversation and returns the next assistant message.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// DefaultModel is the model used when a request leaves Model empty.
	DefaultModel() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Options configures a provider client.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, opts Options) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(opts)
	case ProviderOpenAI:
		return NewOpenAIClient(opts)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", provider)
	}
}
