package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/assistantgpt/voice-task-bot/internal/model"
	"github.com/assistantgpt/voice-task-bot/pkg/metrics"
)

const (
	// StreamName is the name of the assistant events stream.
	StreamName = "ASSISTANT"

	// SubjectPrefix is the prefix for all assistant subjects.
	SubjectPrefix = "assistant"
)

// Publisher is the subset of JetStream used to publish events.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	client    *Client
	publisher Publisher
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client, publisher: client.JetStream()}
}

// EnsureStream creates the events stream or brings an existing one up to
// the current configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	if _, err := m.client.JetStream().CreateOrUpdateStream(ctx, streamConfig()); err != nil {
		return fmt.Errorf("failed to create stream %s: %w", StreamName, err)
	}
	return nil
}

func streamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Tasks created and conversations handled by the voice assistant",
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		Storage:     jetstream.FileStorage,
		MaxAge:      30 * 24 * time.Hour,
		MaxBytes:    256 * 1024 * 1024,
		Duplicates:  2 * time.Minute,
		Replicas:    1,
	}
}

// TaskSubject returns the subject for task events.
func TaskSubject() string {
	return fmt.Sprintf("%s.task.created", SubjectPrefix)
}

// ConversationSubject returns the subject for a conversation outcome.
func ConversationSubject(eventType model.EventType) string {
	status := "completed"
	if eventType == model.EventTypeConversationFailed {
		status = "failed"
	}
	return fmt.Sprintf("%s.conversation.%s", SubjectPrefix, status)
}

// PublishTaskEvent publishes a task-created event.
func (m *StreamManager) PublishTaskEvent(ctx context.Context, event *model.TaskEvent) error {
	_, err := m.publish(ctx, TaskSubject(), event.ID, string(event.Type), event)
	return err
}

// PublishConversationEvent publishes a conversation outcome.
func (m *StreamManager) PublishConversationEvent(ctx context.Context, event *model.ConversationEvent) error {
	_, err := m.publish(ctx, ConversationSubject(event.Type), event.ID, string(event.Type), event)
	return err
}

// publish sends v with msgID as the JetStream dedupe key, so a retried
// publish of the same event is stored once.
func (m *StreamManager) publish(ctx context.Context, subject, msgID, eventType string, v any) (uint64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	var opts []jetstream.PublishOpt
	if msgID != "" {
		opts = append(opts, jetstream.WithMsgID(msgID))
	}
	ack, err := m.publisher.Publish(ctx, subject, data, opts...)
	if err != nil {
		metrics.RecordEvent(eventType, "error")
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.RecordEvent(eventType, "ok")
	return ack.Sequence, nil
}
