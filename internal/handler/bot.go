package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/assistantgpt/voice-task-bot/internal/errs"
	"github.com/assistantgpt/voice-task-bot/internal/middleware"
	"github.com/assistantgpt/voice-task-bot/internal/model"
	"github.com/assistantgpt/voice-task-bot/internal/service"
	"github.com/assistantgpt/voice-task-bot/internal/speech"
	"github.com/assistantgpt/voice-task-bot/pkg/logger"
	"github.com/assistantgpt/voice-task-bot/pkg/metrics"
	"github.com/assistantgpt/voice-task-bot/pkg/tracing"
)

// Replies sent by the bot.
const (
	WelcomeReply       = "I am AssistantGPT bot!"
	RejectionReply     = "Unfortunately this bot is no longer available."
	NoSpeechReply      = "Sorry, I couldn't make out any speech in that voice message."
	FailureReply       = "Sorry, something went wrong while creating your tasks."
	EmptyResponseReply = "Done."
)

// Routes an update can take.
const (
	RouteStart     = "start"
	RouteVoice     = "voice"
	RouteRejection = "rejection"
	RouteIgnored   = "ignored"
)

// BotAPI is the part of the Telegram client used by the handlers.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Conversation turns a transcript into the assistant's reply.
type Conversation interface {
	Run(ctx context.Context, transcript string) (*service.Outcome, error)
}

// ConversationEventPublisher receives a summary of every voice conversation.
type ConversationEventPublisher interface {
	PublishConversationEvent(ctx context.Context, event *model.ConversationEvent) error
}

// BotOptions configures a BotHandler.
type BotOptions struct {
	// AllowedUserID restricts the bot to one user. Zero allows everyone.
	AllowedUserID  int64
	TypingInterval time.Duration
	MaxAudioBytes  int
}

// BotHandler routes Telegram updates.
type BotHandler struct {
	bot         BotAPI
	fetcher     AudioFetcher
	transcriber speech.Transcriber
	engine      Conversation
	events      ConversationEventPublisher
	opts        BotOptions
	logger      *logger.Logger
	tracer      trace.Tracer
}

// NewBotHandler creates a new bot handler. events may be nil.
func NewBotHandler(
	bot BotAPI,
	fetcher AudioFetcher,
	transcriber speech.Transcriber,
	engine Conversation,
	events ConversationEventPublisher,
	opts BotOptions,
	log *logger.Logger,
) *BotHandler {
	if opts.TypingInterval <= 0 {
		opts.TypingInterval = 5 * time.Second
	}
	return &BotHandler{
		bot:         bot,
		fetcher:     fetcher,
		transcriber: transcriber,
		engine:      engine,
		events:      events,
		opts:        opts,
		logger:      log,
		tracer:      tracing.Tracer(),
	}
}

// Route decides which handler serves msg.
func (h *BotHandler) Route(msg *tgbotapi.Message) string {
	if !h.allowed(msg.From) {
		return RouteRejection
	}
	if msg.IsCommand() {
		if msg.Command() == "start" {
			return RouteStart
		}
		return RouteIgnored
	}
	if msg.Voice != nil {
		return RouteVoice
	}
	return RouteIgnored
}

func (h *BotHandler) allowed(from *tgbotapi.User) bool {
	if h.opts.AllowedUserID == 0 {
		return true
	}
	return from != nil && from.ID == h.opts.AllowedUserID
}

// HandleUpdate dispatches one update.
func (h *BotHandler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil {
		return nil
	}

	route := h.Route(msg)
	log := h.messageLogger(ctx, msg)

	var err error
	switch route {
	case RouteRejection:
		err = h.Rejection(ctx, msg)
	case RouteStart:
		err = h.Start(ctx, msg)
	case RouteVoice:
		err = h.Voice(ctx, msg)
	default:
		log.Debug("ignoring message")
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordUpdate(route, outcome)
	return err
}

// Start greets an allowed user.
func (h *BotHandler) Start(ctx context.Context, msg *tgbotapi.Message) error {
	return h.reply(msg.Chat.ID, WelcomeReply)
}

// Rejection turns away a user who is not allowed to use the bot.
func (h *BotHandler) Rejection(ctx context.Context, msg *tgbotapi.Message) error {
	h.messageLogger(ctx, msg).Info("rejected message from unknown user")
	return h.reply(msg.Chat.ID, RejectionReply)
}

// Voice transcribes a voice message, runs it through the conversation
// engine and replies with the result.
func (h *BotHandler) Voice(ctx context.Context, msg *tgbotapi.Message) error {
	log := h.messageLogger(ctx, msg)

	ctx, span := h.tracer.Start(ctx, "telegram.voice",
		trace.WithAttributes(
			attribute.Int64("telegram.chat_id", msg.Chat.ID),
			attribute.Int("telegram.voice_duration", msg.Voice.Duration),
		),
	)
	defer span.End()

	typing := StartTyping(ctx, h.bot, msg.Chat.ID, h.opts.TypingInterval, log)
	outcome, err := h.processVoice(ctx, msg.Voice)
	typing.Stop()

	h.publishOutcome(ctx, msg, outcome, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "voice message failed")
		log.Error("failed to handle voice message", zap.Error(err))
		if replyErr := h.reply(msg.Chat.ID, failureReply(err)); replyErr != nil {
			log.Warn("failed to send failure reply", zap.Error(replyErr))
		}
		return err
	}

	text := outcome.Reply
	if text == "" {
		text = EmptyResponseReply
	}
	return h.reply(msg.Chat.ID, text)
}

func (h *BotHandler) processVoice(ctx context.Context, voice *tgbotapi.Voice) (*service.Outcome, error) {
	url, err := h.bot.GetFileDirectURL(voice.FileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve voice file: %w", stripURL(err))
	}

	audio, err := h.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := middleware.ValidateAudio(audio, h.opts.MaxAudioBytes); err != nil {
		return nil, err
	}

	transcript, err := h.transcriber.Recognize(ctx, audio)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, errs.TranscriptionErrorf("no speech recognized in %d bytes of audio", len(audio))
	}

	return h.engine.Run(ctx, transcript)
}

func (h *BotHandler) publishOutcome(ctx context.Context, msg *tgbotapi.Message, outcome *service.Outcome, err error) {
	if h.events == nil {
		return
	}

	event := &model.ConversationEvent{
		ID:            uuid.New().String(),
		CorrelationID: middleware.GetCorrelationID(ctx),
		ChatID:        msg.Chat.ID,
		Type:          model.EventTypeConversationCompleted,
		CreatedAt:     time.Now().UTC(),
	}
	if outcome != nil {
		event.Steps = outcome.Steps
		event.FunctionCalls = outcome.FunctionCalls
	}
	if err != nil {
		event.Type = model.EventTypeConversationFailed
		event.Reason = errorKind(err)
	}

	if pubErr := h.events.PublishConversationEvent(ctx, event); pubErr != nil {
		h.logger.Warn("failed to publish conversation event", zap.Error(pubErr))
	}
}

func (h *BotHandler) reply(chatID int64, text string) error {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send reply: %w", stripURL(err))
	}
	return nil
}

func (h *BotHandler) messageLogger(ctx context.Context, msg *tgbotapi.Message) *logger.Logger {
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	var chatID int64
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}
	return h.logger.WithContext(middleware.GetCorrelationID(ctx), chatID, userID)
}

func failureReply(err error) string {
	var terr *errs.TranscriptionError
	if errors.As(err, &terr) {
		return NoSpeechReply
	}
	return FailureReply
}

func errorKind(err error) string {
	var (
		terr *errs.TranscriptionError
		nerr *errs.ToolNotFoundError
		perr *errs.ArgumentParseError
		serr *errs.StepLimitError
		verr *errs.ValidationError
	)
	switch {
	case errors.As(err, &terr):
		return "transcription"
	case errors.As(err, &nerr):
		return "tool_not_found"
	case errors.As(err, &perr):
		return "argument_parse"
	case errors.As(err, &serr):
		return "step_limit"
	case errors.As(err, &verr):
		return "validation"
	default:
		return "upstream"
	}
}
