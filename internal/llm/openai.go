package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/assistantgpt/voice-task-bot/internal/model"
)

// OpenAIClient is the OpenAI LLM client. It uses the chat completions
// functions API.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(opts Options) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(openAIConfig(opts)),
	}, nil
}

func openAIConfig(opts Options) openai.ClientConfig {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	return cfg
}

// SDK exposes the underlying go-openai client for other OpenAI endpoints.
func (c *OpenAIClient) SDK() *openai.Client {
	return c.client
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// DefaultModel is used when a request names no model.
func (c *OpenAIClient) DefaultModel() string {
	return openai.GPT4
}

// Complete sends a completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	modelName := req.Model
	if modelName == "" {
		modelName = c.DefaultModel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       modelName,
		Messages:    toOpenAIMessages(req.Messages),
		Functions:   toOpenAIFunctions(req.Functions),
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("OpenAI returned no choices")
	}

	choice := resp.Choices[0]

	return &CompletionResponse{
		Message:    fromOpenAIMessage(choice.Message),
		Model:      resp.Model,
		TokensIn:   resp.Usage.PromptTokens,
		TokensOut:  resp.Usage.CompletionTokens,
		StopReason: string(choice.FinishReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

func toOpenAIMessages(msgs []model.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, msg := range msgs {
		m := openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
		switch msg.Role {
		case model.RoleFunction:
			m.Name = msg.Name
		case model.RoleAssistant:
			if msg.FunctionCall != nil {
				m.FunctionCall = &openai.FunctionCall{
					Name:      msg.FunctionCall.Name,
					Arguments: msg.FunctionCall.Arguments,
				}
			}
		}
		out[i] = m
	}
	return out
}

func toOpenAIFunctions(specs []model.FunctionSpec) []openai.FunctionDefinition {
	if len(specs) == 0 {
		return nil
	}
	out := make([]openai.FunctionDefinition, len(specs))
	for i, spec := range specs {
		out[i] = openai.FunctionDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.Parameters,
		}
	}
	return out
}

func fromOpenAIMessage(msg openai.ChatCompletionMessage) model.Message {
	out := model.Message{
		Role:    model.RoleAssistant,
		Content: msg.Content,
	}
	if msg.FunctionCall != nil && msg.FunctionCall.Name != "" {
		out.FunctionCall = &model.FunctionCall{
			Name:      msg.FunctionCall.Name,
			Arguments: msg.FunctionCall.Arguments,
		}
	}
	return out
}
