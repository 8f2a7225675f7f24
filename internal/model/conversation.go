// Package model defines data structures for the voice task assistant.
package model

import (
	"time"
)

// ConversationEvent summarizes one finished voice-message conversation.
// It carries metadata only; neither the transcript nor the reply is included.
type ConversationEvent struct {
	ID            string         `json:"id"`
	CorrelationID string         `json:"correlation_id"`
	ChatID        int64          `json:"chat_id"`
	Type          EventType      `json:"type"`
	Steps         int            `json:"steps"`
	FunctionCalls []string       `json:"function_calls,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
