package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/item-catalog/internal/middleware"
	"github.com/vyrodovalexey/item-catalog/internal/model"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProbeHandler serves liveness and readiness probes.
type ProbeHandler struct {
	pinger Pinger
	logger *zap.Logger
}

// NewProbeHandler creates a ProbeHandler. A nil pinger is always ready.
func NewProbeHandler(pinger Pinger, logger *zap.Logger) *ProbeHandler {
	return &ProbeHandler{
		pinger: pinger,
		logger: logger,
	}
}

// RegisterRoutes registers the probe routes with the router.
func (h *ProbeHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.Ready).Methods(http.MethodGet)
}

// Health handles GET /health requests.
func (h *ProbeHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, healthy())
}

// Ready handles GET /ready requests.
func (h *ProbeHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			middleware.Logger(r.Context(), h.logger).Warn("readiness check failed", zap.Error(err))
			writeJSON(w, h.logger, http.StatusServiceUnavailable, model.APIResponse[ReadyResponse]{
				Data:  ReadyResponse{Status: "not ready"},
				Error: "storage unavailable",
			})
			return
		}
	}

	writeJSON(w, h.logger, http.StatusOK, model.NewSuccessResponse(ReadyResponse{Status: "ready"}))
}
