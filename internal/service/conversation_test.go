package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/assistantgpt/voice-task-bot/internal/errs"
	"github.com/assistantgpt/voice-task-bot/internal/llm"
	"github.com/assistantgpt/voice-task-bot/internal/model"
	"github.com/assistantgpt/voice-task-bot/internal/tools"
	"github.com/assistantgpt/voice-task-bot/pkg/logger"
)

// scriptedLLM replays canned assistant messages and records every request.
type scriptedLLM struct {
	replies  []model.Message
	err      error
	requests [][]model.Message
	specs    [][]model.FunctionSpec
	models   []string
}

func (s *scriptedLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	snapshot := append([]model.Message(nil), req.Messages...)
	s.requests = append(s.requests, snapshot)
	s.specs = append(s.specs, req.Functions)
	s.models = append(s.models, req.Model)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.replies) == 0 {
		return nil, errors.New("script exhausted")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return &llm.CompletionResponse{Message: reply, Model: req.Model}, nil
}

func (s *scriptedLLM) Name() string         { return "scripted" }
func (s *scriptedLLM) DefaultModel() string { return "scripted-default" }

type mockTaskCreator struct {
	mock.Mock
}

func (m *mockTaskCreator) CreateTask(ctx context.Context, task model.Task) (string, error) {
	args := m.Called(ctx, task)
	return args.String(0), args.Error(1)
}

func (m *mockTaskCreator) ListID() string { return "list" }

func callReply(name, args string) model.Message {
	return model.Message{
		Role:         model.RoleAssistant,
		FunctionCall: &model.FunctionCall{Name: name, Arguments: args},
	}
}

func textReply(content string) model.Message {
	return model.Message{Role: model.RoleAssistant, Content: content}
}

// Wednesday 2024-01-10 14:37 UTC.
var now = time.Date(2024, time.January, 10, 14, 37, 0, 0, time.UTC)

func newTestEngine(t *testing.T, client llm.Client, creator tools.TaskCreator, maxSteps int) *ConversationEngine {
	t.Helper()
	calc := tools.NewDateCalculator(func() time.Time { return now }, time.UTC)
	registry, err := tools.NewRegistry(
		calc.Tool(),
		tools.NewCreateTaskTool(creator, nil, logger.NewNop()),
	)
	require.NoError(t, err)
	return NewConversationEngine(client, registry, EngineOptions{Model: "gpt-4", MaxSteps: maxSteps}, logger.NewNop())
}

func TestConverse_PlainReply(t *testing.T) {
	client := &scriptedLLM{replies: []model.Message{textReply("Nothing to do.")}}
	creator := new(mockTaskCreator)
	engine := newTestEngine(t, client, creator, 0)

	reply, err := engine.Converse(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "Nothing to do.", reply)
	require.Len(t, client.requests, 1)

	sent := client.requests[0]
	require.Len(t, sent, 2)
	assert.Equal(t, model.RoleSystem, sent[0].Role)
	assert.Equal(t, SystemPrompt, sent[0].Content)
	assert.Equal(t, model.NewUserMessage("hello"), sent[1])

	require.Len(t, client.specs[0], 2)
	assert.Equal(t, tools.CalculateDateName, client.specs[0][0].Name)
	assert.Equal(t, tools.CreateTaskName, client.specs[0][1].Name)
	creator.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything)
}

func TestConverse_FallsBackToProviderModel(t *testing.T) {
	client := &scriptedLLM{replies: []model.Message{textReply("ok")}}
	registry, err := tools.NewRegistry()
	require.NoError(t, err)

	engine := NewConversationEngine(client, registry, EngineOptions{}, logger.NewNop())
	_, err = engine.Converse(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []string{"scripted-default"}, client.models)
}

func TestConverse_DateThenTask(t *testing.T) {
	due := time.Date(2024, time.January, 11, 9, 0, 0, 0, time.UTC).UnixMilli()
	dueStr := strconv.FormatInt(due, 10)

	client := &scriptedLLM{replies: []model.Message{
		callReply("calculate_date", `{"days": 1, "hours": 9}`),
		callReply("create_task", `{"name": "Call mom", "description": "Call mom", "due_date": `+dueStr+`, "due_date_time": true}`),
		textReply("Created 'Call mom' for tomorrow at 9."),
	}}
	creator := new(mockTaskCreator)
	creator.On("CreateTask", mock.Anything, model.Task{
		Name:        "Call mom",
		Description: "Call mom",
		DueDate:     due,
		DueDateTime: true,
		Priority:    model.PriorityLow,
		Tags:        []string{},
	}).Return(`{"id":"86abc"}`, nil).Once()

	engine := newTestEngine(t, client, creator, 0)
	outcome, err := engine.Run(context.Background(), "remind me to call mom tomorrow at 9")

	require.NoError(t, err)
	assert.Equal(t, "Created 'Call mom' for tomorrow at 9.", outcome.Reply)
	assert.Equal(t, 3, outcome.Steps)
	assert.Equal(t, []string{"calculate_date", "create_task"}, outcome.FunctionCalls)
	creator.AssertExpectations(t)

	// Second request carries the date result right after the call.
	second := client.requests[1]
	require.Len(t, second, 4)
	assert.Equal(t, model.RoleFunction, second[3].Role)
	assert.Equal(t, "calculate_date", second[3].Name)
	assert.Equal(t, dueStr, second[3].Content)

	third := client.requests[2]
	require.Len(t, third, 6)
	assert.Equal(t, "create_task", third[5].Name)
	assert.Equal(t, `{"id":"86abc"}`, third[5].Content)

	for _, req := range client.requests {
		assert.NoError(t, model.ValidateSequence(req))
	}
	assert.NoError(t, model.ValidateSequence(outcome.Messages))
}

func TestConverse_RepeatedCallsAreNotDeduplicated(t *testing.T) {
	client := &scriptedLLM{replies: []model.Message{
		callReply("calculate_date", `{"days": 1}`),
		callReply("calculate_date", `{"days": 1}`),
		textReply("ok"),
	}}
	engine := newTestEngine(t, client, new(mockTaskCreator), 0)

	outcome, err := engine.Run(context.Background(), "twice")

	require.NoError(t, err)
	assert.Equal(t, []string{"calculate_date", "calculate_date"}, outcome.FunctionCalls)
	assert.Len(t, client.requests, 3)
}

func TestConverse_UnknownFunction(t *testing.T) {
	client := &scriptedLLM{replies: []model.Message{
		callReply("delete_everything", `{}`),
		textReply("never reached"),
	}}
	engine := newTestEngine(t, client, new(mockTaskCreator), 0)

	_, err := engine.Converse(context.Background(), "do something")

	var nf *errs.ToolNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, err.Error(), "delete_everything")
	assert.Len(t, client.requests, 1, "no further model calls after an unknown function")
}

func TestConverse_MalformedArguments(t *testing.T) {
	client := &scriptedLLM{replies: []model.Message{
		callReply("calculate_date", `{"days": `),
		textReply("never reached"),
	}}
	engine := newTestEngine(t, client, new(mockTaskCreator), 0)

	_, err := engine.Converse(context.Background(), "tomorrow")

	var perr *errs.ArgumentParseError
	require.ErrorAs(t, err, &perr)
	assert.Len(t, client.requests, 1)
}

func TestConverse_HandlerErrorAborts(t *testing.T) {
	client := &scriptedLLM{replies: []model.Message{
		callReply("calculate_date", `{"week_day": 9}`),
		textReply("never reached"),
	}}
	engine := newTestEngine(t, client, new(mockTaskCreator), 0)

	_, err := engine.Converse(context.Background(), "on the ninth weekday")

	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, client.requests, 1)
}

func TestConverse_ModelError(t *testing.T) {
	upstream := errors.New("503 service unavailable")
	client := &scriptedLLM{err: upstream}
	engine := newTestEngine(t, client, new(mockTaskCreator), 0)

	_, err := engine.Converse(context.Background(), "hello")

	assert.ErrorIs(t, err, upstream)
	assert.Len(t, client.requests, 1, "errors are not retried")
}

func TestConverse_StepLimit(t *testing.T) {
	client := &scriptedLLM{replies: []model.Message{
		callReply("calculate_date", `{}`),
		callReply("calculate_date", `{}`),
		callReply("calculate_date", `{}`),
		textReply("never reached"),
	}}
	engine := newTestEngine(t, client, new(mockTaskCreator), 2)

	outcome, err := engine.Run(context.Background(), "loop")

	var serr *errs.StepLimitError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 2, outcome.Steps)
	assert.Len(t, client.requests, 2)
}

func TestConverse_EmptyTranscript(t *testing.T) {
	client := &scriptedLLM{}
	engine := newTestEngine(t, client, new(mockTaskCreator), 0)

	_, err := engine.Converse(context.Background(), "   ")

	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, client.requests)
}
