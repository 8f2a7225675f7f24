package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticReadiness bool

func (r staticReadiness) Running() bool { return bool(r) }

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func readyBody(t *testing.T, rec *httptest.ResponseRecorder) healthResponse {
	t.Helper()
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthHandler(t *testing.T) {
	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthHandler().Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	})

	t.Run("ready", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h := NewHealthHandler(
			PollerCheck(staticReadiness(true)),
			PingCheck("nats", pingerFunc(func(ctx context.Context) error {
				_, ok := ctx.Deadline()
				assert.True(t, ok)
				return nil
			})),
		)
		h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := readyBody(t, rec)
		assert.Equal(t, "ready", body.Status)
		assert.Equal(t, map[string]string{"telegram": "ok", "nats": "ok"}, body.Checks)
	})

	t.Run("not polling", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthHandler(PollerCheck(staticReadiness(false))).Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := readyBody(t, rec)
		assert.Equal(t, "not ready", body.Status)
		assert.Equal(t, "not polling for updates", body.Checks["telegram"])
	})

	t.Run("event stream down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h := NewHealthHandler(
			PollerCheck(staticReadiness(true)),
			PingCheck("nats", pingerFunc(func(context.Context) error { return errors.New("NATS not connected") })),
		)
		h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := readyBody(t, rec)
		assert.Equal(t, "ok", body.Checks["telegram"])
		assert.Equal(t, "NATS not connected", body.Checks["nats"])
	})
}
