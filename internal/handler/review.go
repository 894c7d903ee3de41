package handler

import (
	"log/slog"
	"net/http"

	"redline/internal/domain/services"
	"redline/internal/httputil"
)

// ReviewHandler handles stage analysis HTTP requests
type ReviewHandler struct {
	orchestrator services.ReviewOrchestrator
	logger       *slog.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(orchestrator services.ReviewOrchestrator, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// AnalyzeStage runs one editing stage against a document. The call is
// synchronous; the response carries the run's summary.
// POST /api/documents/{id}/analyze/{stage}
func (h *ReviewHandler) AnalyzeStage(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	stageKey := r.PathValue("stage")
	if documentID == "" || stageKey == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID and stage are required")
		return
	}

	report, err := h.orchestrator.AnalyzeStage(r.Context(), httputil.GetUserID(r), documentID, stageKey)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, report)
}
