package handler

import (
	"context"
	"errors"
	"net/http"
	"time"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck is one dependency consulted by /ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// PollerCheck reports ready while the poller is receiving updates.
func PollerCheck(poller interface{ Running() bool }) ReadinessCheck {
	return ReadinessCheck{
		Name: "telegram",
		Check: func(context.Context) error {
			if !poller.Running() {
				return errors.New("not polling for updates")
			}
			return nil
		},
	}
}

// PingCheck wraps anything that can round-trip to a server, such as the
// NATS client.
func PingCheck(name string, pinger interface{ Ping(context.Context) error }) ReadinessCheck {
	return ReadinessCheck{Name: name, Check: pinger.Ping}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler serves the liveness and readiness endpoints.
type HealthHandler struct {
	checks []ReadinessCheck
}

// NewHealthHandler creates a health handler that runs checks on /ready.
func NewHealthHandler(checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := healthResponse{Status: "ready", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			resp.Checks[c.Name] = err.Error()
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.Name] = "ok"
	}

	writeJSON(w, status, resp)
}
