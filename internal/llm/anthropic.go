package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/assistantgpt/voice-task-bot/internal/model"
)

const defaultAnthropicModel = "claude-3-5-sonnet-20241022"

// AnthropicClient is the Anthropic LLM client. Function calls map onto
// tool_use blocks and function results onto tool_result blocks.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(opts Options) (*AnthropicClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(reqOpts...),
	}, nil
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// DefaultModel is used when a request names no model.
func (c *AnthropicClient) DefaultModel() string {
	return defaultAnthropicModel
}

// Complete sends a completion request.
func (c *AnthropicClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	modelName := req.Model
	if modelName == "" {
		modelName = c.DefaultModel()
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	system, messages := toAnthropicMessages(req.Messages)

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelName),
		MaxTokens: int64(maxTokens),
		System:    system,
		Messages:  messages,
		Tools:     toAnthropicTools(req.Functions),
	})
	if err != nil {
		return nil, err
	}

	return &CompletionResponse{
		Message:    fromAnthropicContent(resp.Content),
		Model:      string(resp.Model),
		TokensIn:   int(resp.Usage.InputTokens),
		TokensOut:  int(resp.Usage.OutputTokens),
		StopReason: string(resp.StopReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

func toAnthropicMessages(msgs []model.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	out := make([]anthropic.MessageParam, 0, len(msgs))

	for _, msg := range msgs {
		switch msg.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case model.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case model.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			if msg.FunctionCall != nil {
				blocks = append(blocks, anthropic.NewToolUseBlock(
					msg.FunctionCall.ID,
					toolInput(msg.FunctionCall.Arguments),
					msg.FunctionCall.Name,
				))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case model.RoleFunction:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.CallID, msg.Content, false),
			))
		}
	}

	return system, out
}

func toolInput(arguments string) json.RawMessage {
	if strings.TrimSpace(arguments) == "" || !json.Valid([]byte(arguments)) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(arguments)
}

func toAnthropicTools(specs []model.FunctionSpec) []anthropic.ToolUnionParam {
	if len(specs) == 0 {
		return nil
	}
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		schema := anthropic.ToolInputSchemaParam{
			Properties: spec.Parameters.Properties,
			Required:   spec.Parameters.Required,
		}
		tool := anthropic.ToolUnionParamOfTool(schema, spec.Name)
		tool.OfTool.Description = anthropic.String(spec.Description)
		tools = append(tools, tool)
	}
	return tools
}

// fromAnthropicContent folds the response blocks into one assistant message.
// Only the first tool_use block is honoured.
func fromAnthropicContent(blocks []anthropic.ContentBlockUnion) model.Message {
	out := model.Message{Role: model.RoleAssistant}
	var text []string

	for _, block := range blocks {
		switch block.Type {
		case "text":
			text = append(text, block.Text)
		case "tool_use":
			if out.FunctionCall == nil {
				out.FunctionCall = &model.FunctionCall{
					ID:        block.ID,
					Name:      block.Name,
					Arguments: string(block.Input),
				}
			}
		}
	}

	out.Content = strings.Join(text, "")
	return out
}
