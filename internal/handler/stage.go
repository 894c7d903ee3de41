package handler

import (
	"log/slog"
	"net/http"

	"redline/internal/httputil"
	"redline/internal/stage"
)

// StageHandler serves the static stage catalog
type StageHandler struct {
	registry *stage.Registry
	logger   *slog.Logger
}

// NewStageHandler creates a new stage handler
func NewStageHandler(registry *stage.Registry, logger *slog.Logger) *StageHandler {
	return &StageHandler{
		registry: registry,
		logger:   logger,
	}
}

// ListStages returns all editing stages in pipeline order
// GET /api/stages
func (h *StageHandler) ListStages(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.registry.List())
}
