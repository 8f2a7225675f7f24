package handler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/assistantgpt/voice-task-bot/internal/middleware"
	"github.com/assistantgpt/voice-task-bot/pkg/logger"
)

// UpdateSource delivers Telegram updates by long polling.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// UpdateHandler handles a single update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) error
}

// Poller feeds updates to a handler, one goroutine per update.
type Poller struct {
	source      UpdateSource
	handler     UpdateHandler
	pollTimeout int
	logger      *logger.Logger

	wg      sync.WaitGroup
	running atomic.Bool
}

// NewPoller creates a poller. pollTimeout is the long-poll timeout in seconds.
func NewPoller(source UpdateSource, handler UpdateHandler, pollTimeout int, log *logger.Logger) *Poller {
	return &Poller{
		source:      source,
		handler:     handler,
		pollTimeout: pollTimeout,
		logger:      log,
	}
}

// Run polls until ctx is done, then stops polling and waits for in-flight
// updates. Handlers keep running after ctx is cancelled so that replies
// already in progress are delivered.
func (p *Poller) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = p.pollTimeout
	updates := p.source.GetUpdatesChan(cfg)

	p.running.Store(true)
	defer p.running.Store(false)

	handlerCtx := context.WithoutCancel(ctx)

	p.logger.Info("polling for updates")
	for {
		select {
		case <-ctx.Done():
			p.source.StopReceivingUpdates()
			p.wg.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				p.wg.Wait()
				return fmt.Errorf("update channel closed")
			}
			p.wg.Add(1)
			go p.dispatch(handlerCtx, update)
		}
	}
}

// Running reports whether the poller is receiving updates.
func (p *Poller) Running() bool {
	return p.running.Load()
}

func (p *Poller) dispatch(ctx context.Context, update tgbotapi.Update) {
	defer p.wg.Done()

	correlationID := uuid.New().String()
	ctx = middleware.WithCorrelationID(ctx, correlationID)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic while handling update",
				zap.Any("panic", r),
				zap.Int("update_id", update.UpdateID),
				zap.String("correlation_id", correlationID),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	if err := p.handler.HandleUpdate(ctx, update); err != nil {
		p.logger.Warn("update failed",
			zap.Int("update_id", update.UpdateID),
			zap.String("correlation_id", correlationID),
			zap.Error(err),
		)
	}
}
