// Package clickup is a minimal client for the ClickUp REST API v2.
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/assistantgpt/voice-task-bot/internal/model"
	"github.com/assistantgpt/voice-task-bot/pkg/logger"
)

// DefaultBaseURL is the public ClickUp API root.
const DefaultBaseURL = "https://api.clickup.com/api/v2"

// Config holds ClickUp credentials and the target list.
type Config struct {
	BaseURL    string
	APIKey     string
	ListID     string
	AssigneeID int64
}

// Client creates tasks in a single ClickUp list.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new ClickUp client. A nil httpClient uses
// http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client, log *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     log,
	}
}

// createTaskRequest is the body of POST /list/{id}/task.
type createTaskRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Priority    *int     `json:"priority"`
	DueDate     int64    `json:"due_date"`
	DueDateTime bool     `json:"due_date_time"`
	Assignees   []int64  `json:"assignees"`
	NotifyAll   bool     `json:"notify_all"`
}

func newCreateTaskRequest(task model.Task, assignee int64) createTaskRequest {
	req := createTaskRequest{
		Name:        task.Name,
		Description: task.Description,
		Tags:        task.Tags,
		DueDate:     task.DueDate,
		DueDateTime: task.DueDateTime,
		Assignees:   []int64{assignee},
		NotifyAll:   true,
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}
	// ClickUp has no priority 0; null clears it.
	if task.Priority != model.PriorityNone {
		p := task.Priority
		req.Priority = &p
	}
	return req
}

// ListID returns the list tasks are created in.
func (c *Client) ListID() string {
	return c.cfg.ListID
}

// CreateTask posts task to the configured list and returns the response body
// verbatim. Non-2xx responses are returned as bodies too; only transport
// failures produce an error.
func (c *Client) CreateTask(ctx context.Context, task model.Task) (string, error) {
	body, err := json.Marshal(newCreateTaskRequest(task, c.cfg.AssigneeID))
	if err != nil {
		return "", fmt.Errorf("failed to marshal task: %w", err)
	}

	endpoint := fmt.Sprintf("%s/list/%s/task", c.cfg.BaseURL, url.PathEscape(c.cfg.ListID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach ClickUp: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read ClickUp response: %w", err)
	}

	if resp.StatusCode >= 300 {
		c.logger.Warn("ClickUp rejected task",
			zap.Int("status", resp.StatusCode),
			zap.String("list_id", c.cfg.ListID),
		)
	} else {
		c.logger.Debug("ClickUp task created", zap.Int("status", resp.StatusCode))
	}

	return string(respBody), nil
}
