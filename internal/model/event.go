package model

import (
	"time"
)

// EventType represents the type of assistant event.
type EventType string

const (
	EventTypeTaskCreated           EventType = "task.created"
	EventTypeConversationCompleted EventType = "conversation.completed"
	EventTypeConversationFailed    EventType = "conversation.failed"
)

// TaskEvent is published after a task has been sent to the tracker.
type TaskEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	ListID    string    `json:"list_id"`
	Task      Task      `json:"task"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}
