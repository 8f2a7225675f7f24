package model

import (
	"fmt"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// FunctionCall is a model's request to invoke a registered function.
// Arguments holds the raw JSON payload exactly as the model produced it.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry of a conversation sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Name is set on function-result messages.
	Name string `json:"name,omitempty"`

	// FunctionCall is set on assistant messages that request a call.
	FunctionCall *FunctionCall `json:"function_call,omitempty"`

	// CallID ties a function result to the FunctionCall.ID it answers.
	CallID string `json:"call_id,omitempty"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewFunctionResultMessage creates the message answering call with output.
func NewFunctionResultMessage(call FunctionCall, output string) Message {
	return Message{
		Role:    RoleFunction,
		Name:    call.Name,
		Content: output,
		CallID:  call.ID,
	}
}

// HasFunctionCall reports whether the message requests a function call.
func (m Message) HasFunctionCall() bool {
	return m.FunctionCall != nil && m.FunctionCall.Name != ""
}

// ValidateSequence checks the ordering rules of a conversation: exactly one
// system message, placed first, and every function result directly preceded
// by the assistant message that requested it.
func ValidateSequence(messages []Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("conversation is empty")
	}
	if messages[0].Role != RoleSystem {
		return fmt.Errorf("first message has role %q, want %q", messages[0].Role, RoleSystem)
	}

	for i := 1; i < len(messages); i++ {
		msg := messages[i]
		switch msg.Role {
		case RoleSystem:
			return fmt.Errorf("message %d: unexpected second system message", i)
		case RoleFunction:
			prev := messages[i-1]
			if prev.Role != RoleAssistant || !prev.HasFunctionCall() {
				return fmt.Errorf("message %d: function result without a preceding call", i)
			}
			if prev.FunctionCall.Name != msg.Name {
				return fmt.Errorf("message %d: result for %q answers call to %q", i, msg.Name, prev.FunctionCall.Name)
			}
		}
	}

	return nil
}
