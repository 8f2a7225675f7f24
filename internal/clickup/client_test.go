package clickup

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assistantgpt/voice-task-bot/internal/model"
	"github.com/assistantgpt/voice-task-bot/pkg/logger"
)

func TestClient_CreateTask(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/list/901/task", r.URL.Path)
		assert.Equal(t, "pk_secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &gotBody))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"86abc","name":"Call mom"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:    srv.URL + "/api/v2/",
		APIKey:     "pk_secret",
		ListID:     "901",
		AssigneeID: 4242,
	}, srv.Client(), logger.NewNop())

	out, err := client.CreateTask(context.Background(), model.Task{
		Name:        "Call mom",
		Description: "Weekly call",
		Priority:    2,
		DueDate:     1704186000000,
		DueDateTime: true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"id":"86abc","name":"Call mom"}`, out)

	assert.Equal(t, "Call mom", gotBody["name"])
	assert.Equal(t, "Weekly call", gotBody["description"])
	assert.Equal(t, []any{}, gotBody["tags"])
	assert.Equal(t, float64(2), gotBody["priority"])
	assert.Equal(t, float64(1704186000000), gotBody["due_date"])
	assert.Equal(t, true, gotBody["due_date_time"])
	assert.Equal(t, []any{float64(4242)}, gotBody["assignees"])
	assert.Equal(t, true, gotBody["notify_all"])
}

func TestClient_CreateTask_NoPriority(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, ListID: "1"}, nil, logger.NewNop())
	_, err := client.CreateTask(context.Background(), model.Task{Name: "x", Priority: model.PriorityNone})

	require.NoError(t, err)
	v, ok := gotBody["priority"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestClient_CreateTask_ErrorBodyIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"err":"Token invalid","ECODE":"OAUTH_025"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, ListID: "1"}, nil, logger.NewNop())
	out, err := client.CreateTask(context.Background(), model.Task{Name: "x"})

	require.NoError(t, err)
	assert.Equal(t, `{"err":"Token invalid","ECODE":"OAUTH_025"}`, out)
}

func TestClient_CreateTask_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, ListID: "1"}, nil, logger.NewNop())
	_, err := client.CreateTask(context.Background(), model.Task{Name: "x"})

	assert.Error(t, err)
}
