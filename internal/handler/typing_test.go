package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/assistantgpt/voice-task-bot/pkg/logger"
)

func TestTypingIndicator_StopsSending(t *testing.T) {
	bot := &fakeBot{}
	typing := StartTyping(context.Background(), bot, chatID, 5*time.Millisecond, logger.NewNop())

	assert.Eventually(t, func() bool { return bot.Actions() >= 3 }, time.Second, time.Millisecond)

	typing.Stop()
	stopped := bot.Actions()

	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, stopped, bot.Actions())

	// A second Stop is a no-op.
	typing.Stop()
}

func TestTypingIndicator_ParentCancel(t *testing.T) {
	bot := &fakeBot{}
	ctx, cancel := context.WithCancel(context.Background())
	typing := StartTyping(ctx, bot, chatID, time.Hour, logger.NewNop())

	assert.Eventually(t, func() bool { return bot.Actions() == 1 }, time.Second, time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		typing.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the parent context was cancelled")
	}
	assert.Equal(t, 1, bot.Actions())
}
