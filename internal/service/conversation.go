// Package service contains the conversation engine that drives the language
// model through function calls.
package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/assistantgpt/voice-task-bot/internal/errs"
	"github.com/assistantgpt/voice-task-bot/internal/llm"
	"github.com/assistantgpt/voice-task-bot/internal/middleware"
	"github.com/assistantgpt/voice-task-bot/internal/model"
	"github.com/assistantgpt/voice-task-bot/internal/tools"
	"github.com/assistantgpt/voice-task-bot/pkg/logger"
	"github.com/assistantgpt/voice-task-bot/pkg/metrics"
	"github.com/assistantgpt/voice-task-bot/pkg/tracing"
)

// EngineOptions tunes a ConversationEngine.
type EngineOptions struct {
	Model        string
	SystemPrompt string

	// MaxSteps caps model round-trips per conversation. Zero means no cap.
	MaxSteps int

	MaxTokens   int
	Temperature float64
}

// Outcome describes a finished conversation.
type Outcome struct {
	Reply         string
	Steps         int
	FunctionCalls []string
	Messages      []model.Message
}

// ConversationEngine runs one transcript through the model, executing every
// function call the model requests until it produces a plain reply.
// It holds no per-conversation state and is safe for concurrent use.
type ConversationEngine struct {
	llmClient llm.Client
	registry  *tools.Registry
	opts      EngineOptions
	logger    *logger.Logger
	tracer    trace.Tracer
}

// NewConversationEngine creates a new conversation engine.
func NewConversationEngine(
	llmClient llm.Client,
	registry *tools.Registry,
	opts EngineOptions,
	log *logger.Logger,
) *ConversationEngine {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = SystemPrompt
	}
	if opts.Model == "" {
		opts.Model = llmClient.DefaultModel()
	}
	return &ConversationEngine{
		llmClient: llmClient,
		registry:  registry,
		opts:      opts,
		logger:    log,
		tracer:    tracing.Tracer(),
	}
}

// Converse returns the model's final reply to transcript.
func (e *ConversationEngine) Converse(ctx context.Context, transcript string) (string, error) {
	outcome, err := e.Run(ctx, transcript)
	if err != nil {
		return "", err
	}
	return outcome.Reply, nil
}

// Run is Converse with bookkeeping. On error the returned Outcome holds the
// progress made before the failure.
func (e *ConversationEngine) Run(ctx context.Context, transcript string) (*Outcome, error) {
	if err := middleware.ValidateTranscript(transcript); err != nil {
		return &Outcome{}, err
	}

	ctx, span := e.tracer.Start(ctx, "conversation.run")
	defer span.End()

	outcome := &Outcome{
		Messages: []model.Message{
			model.NewSystemMessage(e.opts.SystemPrompt),
			model.NewUserMessage(transcript),
		},
	}
	defer func() { metrics.RecordConversation(outcome.Steps) }()

	specs := e.registry.Specs()

	for {
		if e.opts.MaxSteps > 0 && outcome.Steps >= e.opts.MaxSteps {
			err := errs.StepLimitErrorf("conversation exceeded %d model calls", e.opts.MaxSteps)
			span.SetStatus(codes.Error, err.Error())
			return outcome, err
		}
		if err := model.ValidateSequence(outcome.Messages); err != nil {
			return outcome, fmt.Errorf("invalid conversation state: %w", err)
		}

		reply, err := e.complete(ctx, outcome.Messages, specs)
		outcome.Steps++
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "model request failed")
			return outcome, fmt.Errorf("model request failed: %w", err)
		}
		outcome.Messages = append(outcome.Messages, reply)

		if !reply.HasFunctionCall() {
			outcome.Reply = reply.Content
			span.SetAttributes(
				attribute.Int("conversation.steps", outcome.Steps),
				attribute.Int("conversation.function_calls", len(outcome.FunctionCalls)),
			)
			e.logger.Info("conversation finished",
				zap.Int("steps", outcome.Steps),
				zap.Strings("function_calls", outcome.FunctionCalls),
			)
			return outcome, nil
		}

		call := *reply.FunctionCall
		outcome.FunctionCalls = append(outcome.FunctionCalls, call.Name)

		result, err := e.invoke(ctx, call)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "function call failed")
			return outcome, err
		}
		outcome.Messages = append(outcome.Messages, model.NewFunctionResultMessage(call, result))
	}
}

func (e *ConversationEngine) complete(ctx context.Context, messages []model.Message, specs []model.FunctionSpec) (model.Message, error) {
	ctx, span := e.tracer.Start(ctx, "llm.complete",
		trace.WithAttributes(
			attribute.String("llm.provider", e.llmClient.Name()),
			attribute.String("llm.model", e.opts.Model),
			attribute.Int("llm.messages", len(messages)),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := e.llmClient.Complete(ctx, &llm.CompletionRequest{
		Model:       e.opts.Model,
		Messages:    messages,
		Functions:   specs,
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
	})
	if err != nil {
		metrics.RecordLLMRequest(e.opts.Model, "error", time.Since(start).Seconds(), 0, 0)
		span.RecordError(err)
		return model.Message{}, err
	}

	metrics.RecordLLMRequest(e.opts.Model, "ok", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	e.logger.Debug("model replied",
		zap.String("model", resp.Model),
		zap.String("stop_reason", resp.StopReason),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Int64("latency_ms", resp.LatencyMs),
	)

	reply := resp.Message
	reply.Role = model.RoleAssistant
	return reply, nil
}

// invoke resolves and runs one function call. Unknown names and malformed
// arguments are reported with typed errors; handler failures are wrapped.
func (e *ConversationEngine) invoke(ctx context.Context, call model.FunctionCall) (string, error) {
	ctx, span := e.tracer.Start(ctx, "function.call",
		trace.WithAttributes(attribute.String("function.name", call.Name)),
	)
	defer span.End()

	tool, ok := e.registry.Lookup(call.Name)
	if !ok {
		metrics.RecordFunctionCall(call.Name, "not_found")
		return "", errs.ToolNotFoundErrorf("function %q is not registered", call.Name)
	}

	args, err := tools.ParseArguments(call.Arguments)
	if err != nil {
		metrics.RecordFunctionCall(call.Name, "bad_arguments")
		return "", err
	}

	e.logger.Info("calling function",
		zap.String("function", call.Name),
		zap.Stringer("arguments", args),
	)

	result, err := tool.Handler(ctx, args)
	if err != nil {
		metrics.RecordFunctionCall(call.Name, "error")
		span.RecordError(err)
		return "", fmt.Errorf("function %s failed: %w", call.Name, err)
	}

	metrics.RecordFunctionCall(call.Name, "ok")
	return result, nil
}
