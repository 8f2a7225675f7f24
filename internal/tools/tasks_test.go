package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/assistantgpt/voice-task-bot/internal/errs"
	"github.com/assistantgpt/voice-task-bot/internal/model"
	"github.com/assistantgpt/voice-task-bot/pkg/logger"
)

type mockTaskCreator struct {
	mock.Mock
}

func (m *mockTaskCreator) CreateTask(ctx context.Context, task model.Task) (string, error) {
	args := m.Called(ctx, task)
	return args.String(0), args.Error(1)
}

func (m *mockTaskCreator) ListID() string {
	return "list-1"
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishTaskEvent(ctx context.Context, event *model.TaskEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func runCreateTask(t *testing.T, tool Tool, payload string) (string, error) {
	t.Helper()
	args, err := ParseArguments(payload)
	require.NoError(t, err)
	return tool.Handler(context.Background(), args)
}

func TestCreateTaskTool_Defaults(t *testing.T) {
	creator := new(mockTaskCreator)
	tool := NewCreateTaskTool(creator, nil, logger.NewNop())

	want := model.Task{
		Name:        "Call mom",
		Description: "Weekly call",
		DueDate:     1704186000000,
		Priority:    model.PriorityLow,
		Tags:        []string{},
	}
	creator.On("CreateTask", mock.Anything, want).Return(`{"id":"abc"}`, nil).Once()

	out, err := runCreateTask(t, tool, `{"name":"Call mom","description":"Weekly call","due_date":1704186000000}`)

	require.NoError(t, err)
	assert.Equal(t, `{"id":"abc"}`, out)
	creator.AssertExpectations(t)
}

func TestCreateTaskTool_AllFields(t *testing.T) {
	creator := new(mockTaskCreator)
	publisher := new(mockPublisher)
	tool := NewCreateTaskTool(creator, publisher, logger.NewNop())

	want := model.Task{
		Name:        "Report",
		Description: "Q1",
		DueDate:     1704186000000,
		DueDateTime: true,
		Priority:    model.PriorityNone,
		Tags:        []string{"work"},
	}
	creator.On("CreateTask", mock.Anything, want).Return(`{"id":"r1"}`, nil).Once()
	publisher.On("PublishTaskEvent", mock.Anything, mock.MatchedBy(func(e *model.TaskEvent) bool {
		return e.Type == model.EventTypeTaskCreated && e.ListID == "list-1" && e.Task.Name == "Report" && e.Response == `{"id":"r1"}`
	})).Return(errors.New("nats down")).Once()

	out, err := runCreateTask(t, tool,
		`{"name":"Report","description":"Q1","due_date":"1704186000000","due_date_time":true,"priority":0,"tags":["work"]}`)

	require.NoError(t, err, "publish failures are not fatal")
	assert.Equal(t, `{"id":"r1"}`, out)
	creator.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCreateTaskTool_Invalid(t *testing.T) {
	creator := new(mockTaskCreator)
	tool := NewCreateTaskTool(creator, nil, logger.NewNop())

	t.Run("missing due date", func(t *testing.T) {
		_, err := runCreateTask(t, tool, `{"name":"x","description":"y"}`)
		var verr *errs.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("priority out of range", func(t *testing.T) {
		_, err := runCreateTask(t, tool, `{"name":"x","description":"y","due_date":1,"priority":9}`)
		var verr *errs.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("non numeric due date", func(t *testing.T) {
		_, err := runCreateTask(t, tool, `{"name":"x","description":"y","due_date":"tomorrow"}`)
		var perr *errs.ArgumentParseError
		assert.ErrorAs(t, err, &perr)
	})

	creator.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything)
}

func TestCreateTaskTool_TrackerError(t *testing.T) {
	creator := new(mockTaskCreator)
	tool := NewCreateTaskTool(creator, nil, logger.NewNop())
	creator.On("CreateTask", mock.Anything, mock.Anything).Return("", errors.New("connection refused")).Once()

	_, err := runCreateTask(t, tool, `{"name":"x","description":"y","due_date":1}`)

	assert.ErrorContains(t, err, "connection refused")
}
