// Package handler serves the item catalog over HTTP: the REST API, the
// WebSocket change feed and the health and readiness probes.
package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/item-catalog/internal/model"
)

// Version is the application version reported by /health.
const Version = "1.0.0"

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse is the /ready payload.
type ReadyResponse struct {
	Status string `json:"status"`
}

func healthy() model.APIResponse[HealthResponse] {
	return model.NewSuccessResponse(HealthResponse{Status: "healthy", Version: Version})
}

// writeJSON writes data as a JSON body. A nil data writes headers only.
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}
