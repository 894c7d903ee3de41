package handler

import (
	"log/slog"
	"net/http"

	"redline/internal/domain/repositories"
	"redline/internal/domain/services"
	"redline/internal/httputil"
)

// AnnotationHandler handles annotation HTTP requests
type AnnotationHandler struct {
	annotationService services.AnnotationService
	logger            *slog.Logger
}

// NewAnnotationHandler creates a new annotation handler
func NewAnnotationHandler(annotationService services.AnnotationService, logger *slog.Logger) *AnnotationHandler {
	return &AnnotationHandler{
		annotationService: annotationService,
		logger:            logger,
	}
}

// ListAnnotations returns a document's annotations, optionally filtered
// to one stage via ?stage=
// GET /api/documents/{id}/annotations
func (h *AnnotationHandler) ListAnnotations(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	if documentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	stage := r.URL.Query().Get("stage")

	annotations, err := h.annotationService.ListAnnotations(r.Context(), httputil.GetUserID(r), documentID, stage)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, annotations)
}

// UpdateAnnotation applies a partial flag update
// PATCH /api/annotations/{id}
func (h *AnnotationHandler) UpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "annotation ID is required")
		return
	}

	var update repositories.AnnotationFlagUpdate
	if err := httputil.ParseJSON(w, r, &update); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ann, err := h.annotationService.MutateAnnotation(r.Context(), httputil.GetUserID(r), id, &update)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, ann)
}

// ResolveAnnotation marks an annotation as resolved
// POST /api/annotations/{id}/resolve
func (h *AnnotationHandler) ResolveAnnotation(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, func(u *repositories.AnnotationFlagUpdate, v *bool) { u.IsResolved = v })
}

// DismissAnnotation marks an annotation as dismissed
// POST /api/annotations/{id}/dismiss
func (h *AnnotationHandler) DismissAnnotation(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, func(u *repositories.AnnotationFlagUpdate, v *bool) { u.IsDismissed = v })
}

// ApplyFixAnnotation records that the suggested fix was applied and
// resolves the annotation.
// POST /api/annotations/{id}/apply-fix
func (h *AnnotationHandler) ApplyFixAnnotation(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, func(u *repositories.AnnotationFlagUpdate, v *bool) {
		u.AppliedFix = v
		u.IsResolved = v
	})
}

func (h *AnnotationHandler) setFlag(w http.ResponseWriter, r *http.Request, set func(*repositories.AnnotationFlagUpdate, *bool)) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "annotation ID is required")
		return
	}

	on := true
	var update repositories.AnnotationFlagUpdate
	set(&update, &on)

	ann, err := h.annotationService.MutateAnnotation(r.Context(), httputil.GetUserID(r), id, &update)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, ann)
}
