package services

import (
	"context"

	"redline/internal/domain/models"
	"redline/internal/domain/repositories"
)

// AnnotationService handles annotation queries and flag mutations
type AnnotationService interface {
	// ListAnnotations returns a document's annotations, optionally
	// filtered to one stage, ordered by start index.
	// userID is used for the document ownership check.
	ListAnnotations(ctx context.Context, userID, documentID, stage string) ([]*models.Annotation, error)

	// MutateAnnotation applies a partial flag update (isResolved,
	// isDismissed, appliedFix) and returns the updated annotation.
	// userID is used for the owning document's ownership check.
	MutateAnnotation(ctx context.Context, userID, id string, update *repositories.AnnotationFlagUpdate) (*models.Annotation, error)
}
