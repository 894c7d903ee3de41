package repositories

import (
	"context"

	"redline/internal/domain/models"
)

// AnnotationFlagUpdate is a partial update of an annotation's state flags.
// Nil fields are left untouched; position and classification fields are
// never updatable.
type AnnotationFlagUpdate struct {
	IsResolved  *bool `json:"is_resolved,omitempty"`
	IsDismissed *bool `json:"is_dismissed,omitempty"`
	AppliedFix  *bool `json:"applied_fix,omitempty"`
}

// Empty reports whether the update would change nothing.
func (u *AnnotationFlagUpdate) Empty() bool {
	return u.IsResolved == nil && u.IsDismissed == nil && u.AppliedFix == nil
}

// AnnotationRepository defines data access operations for annotations
type AnnotationRepository interface {
	// BulkInsert persists the annotations of one analysis run for one
	// (document, stage) pair. IDs and timestamps are assigned on insert.
	BulkInsert(ctx context.Context, documentID, stage string, annotations []*models.Annotation) error

	// GetByID retrieves a single annotation. Returns ErrNotFound if the
	// id is unknown.
	GetByID(ctx context.Context, id string) (*models.Annotation, error)

	// DeleteByStage removes all annotations for the (document, stage)
	// pair and returns the number removed (may be 0).
	DeleteByStage(ctx context.Context, documentID, stage string) (int64, error)

	// DeleteByDocument removes all annotations for a document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// ListByDocument returns a document's annotations, optionally filtered
	// to one stage (empty string = all stages), ordered by start_index
	// ascending with insertion order as the tie-break.
	ListByDocument(ctx context.Context, documentID, stage string) ([]*models.Annotation, error)

	// UpdateFlags applies a partial flag update and returns the updated
	// annotation. Returns ErrNotFound if the id is unknown.
	UpdateFlags(ctx context.Context, id string, update *AnnotationFlagUpdate) (*models.Annotation, error)
}
