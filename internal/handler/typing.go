package handler

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/assistantgpt/voice-task-bot/pkg/logger"
	"github.com/assistantgpt/voice-task-bot/pkg/metrics"
)

// TypingIndicator keeps the "typing" chat action visible while a reply is
// being prepared.
type TypingIndicator struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartTyping sends a typing action now and then once per interval until
// Stop is called or ctx is done.
func StartTyping(ctx context.Context, bot BotAPI, chatID int64, interval time.Duration, log *logger.Logger) *TypingIndicator {
	ctx, cancel := context.WithCancel(ctx)
	t := &TypingIndicator{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	metrics.IncrementTypingIndicators()
	go t.run(ctx, bot, chatID, interval, log)

	return t
}

func (t *TypingIndicator) run(ctx context.Context, bot BotAPI, chatID int64, interval time.Duration, log *logger.Logger) {
	defer close(t.done)
	defer metrics.DecrementTypingIndicators()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
			log.Debug("failed to send typing action", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop cancels the indicator and waits for its goroutine to exit. No typing
// action is sent once Stop has returned. Stop may be called more than once.
func (t *TypingIndicator) Stop() {
	t.once.Do(t.cancel)
	<-t.done
}
