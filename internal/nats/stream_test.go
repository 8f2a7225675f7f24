package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assistantgpt/voice-task-bot/internal/model"
)

type recordingPublisher struct {
	subjects []string
	payloads [][]byte
	optCount []int
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	p.optCount = append(p.optCount, len(opts))
	return &jetstream.PubAck{Stream: StreamName, Sequence: uint64(len(p.subjects))}, nil
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "assistant.task.created", TaskSubject())
	assert.Equal(t, "assistant.conversation.completed", ConversationSubject(model.EventTypeConversationCompleted))
	assert.Equal(t, "assistant.conversation.failed", ConversationSubject(model.EventTypeConversationFailed))
}

func TestStreamManager_Publish(t *testing.T) {
	pub := &recordingPublisher{}
	m := &StreamManager{publisher: pub}

	err := m.PublishTaskEvent(context.Background(), &model.TaskEvent{
		ID:   "evt-1",
		Type: model.EventTypeTaskCreated,
		Task: model.Task{Name: "Call mom", Priority: 4},
	})
	require.NoError(t, err)

	err = m.PublishConversationEvent(context.Background(), &model.ConversationEvent{
		ID:    "evt-2",
		Type:  model.EventTypeConversationFailed,
		Steps: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"assistant.task.created", "assistant.conversation.failed"}, pub.subjects)

	var decoded model.TaskEvent
	require.NoError(t, json.Unmarshal(pub.payloads[0], &decoded))
	assert.Equal(t, "Call mom", decoded.Task.Name)

	// Both events carry an id, so both publishes are deduplicated.
	assert.Equal(t, []int{1, 1}, pub.optCount)
}

func TestStreamConfig(t *testing.T) {
	cfg := streamConfig()

	assert.Equal(t, StreamName, cfg.Name)
	assert.Equal(t, []string{"assistant.>"}, cfg.Subjects)
	assert.Equal(t, jetstream.FileStorage, cfg.Storage)
	assert.Positive(t, cfg.Duplicates)
}

func TestStreamManager_PublishError(t *testing.T) {
	m := &StreamManager{publisher: &recordingPublisher{err: errors.New("no responders")}}

	err := m.PublishTaskEvent(context.Background(), &model.TaskEvent{Type: model.EventTypeTaskCreated})

	assert.ErrorContains(t, err, "no responders")
}
