// Package handler serves Telegram updates and the ops HTTP endpoints.
package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/assistantgpt/voice-task-bot/pkg/logger"
)

// writeJSON writes v as the response body. Encoding failures can only be
// logged since the status line is already sent.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Global().Warn("failed to write response", zap.Error(err))
	}
}
