// Package tools holds the functions the language model is allowed to call.
//
// A Registry is assembled once at startup and is read-only afterwards, so it
// can be shared by any number of concurrent conversations.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/assistantgpt/voice-task-bot/internal/errs"
	"github.com/assistantgpt/voice-task-bot/internal/model"
)

// Handler executes a function call and returns its textual result.
type Handler func(ctx context.Context, args Arguments) (string, error)

// Tool pairs a function specification with its implementation.
type Tool struct {
	Spec    model.FunctionSpec
	Handler Handler
}

// Registry maps function names to tools.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds a registry from tools. Names must be unique.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := r.register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(t Tool) error {
	name := t.Spec.Name
	if name == "" {
		return errs.ValidationErrorf("tool name cannot be empty")
	}
	if t.Handler == nil {
		return errs.ValidationErrorf("tool %s has no handler", name)
	}
	if _, exists := r.tools[name]; exists {
		return errs.ValidationErrorf("tool %s registered twice", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Specs returns every function specification in registration order.
func (r *Registry) Specs() []model.FunctionSpec {
	specs := make([]model.FunctionSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].Spec)
	}
	return specs
}

// Names returns the registered function names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Arguments are the decoded top-level keys of a function call payload.
type Arguments map[string]json.RawMessage

// ParseArguments decodes the raw argument payload produced by the model.
// The payload must be a JSON object; an empty payload is treated as {}.
func ParseArguments(payload string) (Arguments, error) {
	if strings.TrimSpace(payload) == "" {
		return Arguments{}, nil
	}

	var args Arguments
	if err := json.Unmarshal([]byte(payload), &args); err != nil {
		return nil, errs.ArgumentParseErrorf("malformed arguments: %v", err)
	}
	if args == nil {
		args = Arguments{}
	}
	return args, nil
}

// Decode unmarshals the arguments into v. Keys that v does not declare are
// rejected so that a misspelled parameter never goes unnoticed.
func (a Arguments) Decode(v any) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return errs.ArgumentParseErrorf("failed to re-encode arguments: %v", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.ArgumentParseErrorf("invalid arguments: %v", err)
	}
	return nil
}

// String renders the arguments for logging.
func (a Arguments) String() string {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Sprintf("%d keys", len(a))
	}
	return string(raw)
}
