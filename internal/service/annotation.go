package service

import (
	"context"
	"fmt"
	"log/slog"

	"redline/internal/domain"
	"redline/internal/domain/models"
	"redline/internal/domain/repositories"
	"redline/internal/domain/services"
)

// annotationService implements the AnnotationService interface
type annotationService struct {
	annotationRepo repositories.AnnotationRepository
	docRepo        repositories.DocumentRepository
	logger         *slog.Logger
}

// NewAnnotationService creates a new annotation service
func NewAnnotationService(
	annotationRepo repositories.AnnotationRepository,
	docRepo repositories.DocumentRepository,
	logger *slog.Logger,
) services.AnnotationService {
	return &annotationService{
		annotationRepo: annotationRepo,
		docRepo:        docRepo,
		logger:         logger,
	}
}

// ListAnnotations returns a document's annotations ordered by start index
func (s *annotationService) ListAnnotations(ctx context.Context, userID, documentID, stage string) ([]*models.Annotation, error) {
	if err := s.checkDocumentAccess(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return s.annotationRepo.ListByDocument(ctx, documentID, stage)
}

// MutateAnnotation applies a partial flag update after checking that the
// caller owns the annotation's document.
func (s *annotationService) MutateAnnotation(ctx context.Context, userID, id string, update *repositories.AnnotationFlagUpdate) (*models.Annotation, error) {
	if update == nil || update.Empty() {
		return nil, fmt.Errorf("%w: no flags to update", domain.ErrValidation)
	}

	ann, err := s.annotationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkDocumentAccess(ctx, userID, ann.DocumentID); err != nil {
		return nil, err
	}

	updated, err := s.annotationRepo.UpdateFlags(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.logger.Info("annotation updated",
		"id", updated.ID,
		"document_id", updated.DocumentID,
		"resolved", updated.IsResolved,
		"dismissed", updated.IsDismissed,
		"applied_fix", updated.AppliedFix,
	)

	return updated, nil
}

// checkDocumentAccess enforces ownership. An empty userID skips the
// check (internal callers).
func (s *annotationService) checkDocumentAccess(ctx context.Context, userID, documentID string) error {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if userID != "" && doc.OwnerID != userID {
		return fmt.Errorf("document %s: %w", documentID, domain.ErrForbidden)
	}
	return nil
}
