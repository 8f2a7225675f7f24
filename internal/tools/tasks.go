package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/assistantgpt/voice-task-bot/internal/errs"
	"github.com/assistantgpt/voice-task-bot/internal/model"
	"github.com/assistantgpt/voice-task-bot/pkg/logger"
)

// CreateTaskName is the function name exposed to the model.
const CreateTaskName = "create_task"

// TaskCreator submits tasks to the task tracker and returns its raw response.
type TaskCreator interface {
	CreateTask(ctx context.Context, task model.Task) (string, error)
	ListID() string
}

// TaskEventPublisher receives a notification for every created task.
type TaskEventPublisher interface {
	PublishTaskEvent(ctx context.Context, event *model.TaskEvent) error
}

// Millis is an epoch-milliseconds timestamp that also accepts a quoted
// decimal string, which is how calculate_date results are often echoed back.
type Millis int64

// UnmarshalJSON implements json.Unmarshaler.
func (m *Millis) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("due_date %s is not an integer timestamp", data)
	}
	*m = Millis(v)
	return nil
}

// createTaskArgs mirrors the create_task parameter schema.
type createTaskArgs struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	DueDate     *Millis  `json:"due_date"`
	DueDateTime *bool    `json:"due_date_time"`
	Priority    *int     `json:"priority"`
	Tags        []string `json:"tags"`
}

func (a createTaskArgs) task() (model.Task, error) {
	if a.Name == "" {
		return model.Task{}, errs.ValidationErrorf("create_task: name is required")
	}
	if a.DueDate == nil {
		return model.Task{}, errs.ValidationErrorf("create_task: due_date is required")
	}

	task := model.Task{
		Name:        a.Name,
		Description: a.Description,
		DueDate:     int64(*a.DueDate),
		Priority:    model.PriorityLow,
		Tags:        []string{},
	}
	if a.DueDateTime != nil {
		task.DueDateTime = *a.DueDateTime
	}
	if a.Priority != nil {
		if *a.Priority < model.PriorityNone || *a.Priority > model.PriorityLow {
			return model.Task{}, errs.ValidationErrorf("create_task: priority must be between 0 and 4, got %d", *a.Priority)
		}
		task.Priority = *a.Priority
	}
	if a.Tags != nil {
		task.Tags = a.Tags
	}
	return task, nil
}

// NewCreateTaskTool returns the create_task registry entry. The publisher is
// optional.
func NewCreateTaskTool(creator TaskCreator, publisher TaskEventPublisher, log *logger.Logger) Tool {
	return Tool{
		Spec: model.FunctionSpec{
			Name:        CreateTaskName,
			Description: "Creates a task in the task tracker.",
			Parameters: model.Schema{
				Type: "object",
				Properties: map[string]model.Schema{
					"name": {
						Type:        "string",
						Description: "Short task title.",
					},
					"description": {
						Type:        "string",
						Description: "Task details.",
					},
					"due_date": {
						Type:        "integer",
						Description: "Due date as a Unix timestamp in milliseconds, as returned by calculate_date.",
					},
					"due_date_time": {
						Type:        "boolean",
						Description: "True when the due date includes a specific time of day.",
					},
					"priority": {
						Type:        "integer",
						Description: "1 is the highest priority, 4 the lowest, 0 means no priority.",
						Enum:        []int{0, 1, 2, 3, 4},
					},
					"tags": {
						Type:        "array",
						Description: "Tags to attach to the task.",
						Items:       &model.Schema{Type: "string"},
					},
				},
				Required: []string{"name", "description", "due_date"},
			},
		},
		Handler: func(ctx context.Context, args Arguments) (string, error) {
			var a createTaskArgs
			if err := args.Decode(&a); err != nil {
				return "", err
			}
			task, err := a.task()
			if err != nil {
				return "", err
			}

			resp, err := creator.CreateTask(ctx, task)
			if err != nil {
				return "", fmt.Errorf("failed to create task: %w", err)
			}

			log.Info("task submitted",
				zap.String("name", task.Name),
				zap.Int("priority", task.Priority),
				zap.Int64("due_date", task.DueDate),
			)

			if publisher != nil {
				event := &model.TaskEvent{
					ID:        uuid.New().String(),
					Type:      model.EventTypeTaskCreated,
					ListID:    creator.ListID(),
					Task:      task,
					Response:  resp,
					CreatedAt: time.Now().UTC(),
				}
				if err := publisher.PublishTaskEvent(ctx, event); err != nil {
					log.Warn("failed to publish task event", zap.Error(err))
				}
			}

			return resp, nil
		},
	}
}
