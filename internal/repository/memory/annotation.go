package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"redline/internal/domain"
	"redline/internal/domain/models"
	"redline/internal/domain/repositories"
)

// AnnotationRepository is an in-memory AnnotationRepository. Insertion
// order is tracked so start-index ties sort stably, matching the postgres
// sequence column.
type AnnotationRepository struct {
	mu          sync.RWMutex
	annotations map[string]*models.Annotation
	order       map[string]int
	nextOrd     int
}

// NewAnnotationRepository creates an empty in-memory annotation repository.
func NewAnnotationRepository() *AnnotationRepository {
	return &AnnotationRepository{
		annotations: make(map[string]*models.Annotation),
		order:       make(map[string]int),
	}
}

// BulkInsert persists one run's annotations, assigning IDs and timestamps.
func (r *AnnotationRepository) BulkInsert(ctx context.Context, documentID, stage string, annotations []*models.Annotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, ann := range annotations {
		if ann.ID == "" {
			ann.ID = uuid.NewString()
		}
		ann.DocumentID = documentID
		ann.Stage = stage
		ann.CreatedAt = now

		r.annotations[ann.ID] = cloneAnnotation(ann)
		r.order[ann.ID] = r.nextOrd
		r.nextOrd++
	}
	return nil
}

// GetByID retrieves a single annotation.
func (r *AnnotationRepository) GetByID(ctx context.Context, id string) (*models.Annotation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ann, ok := r.annotations[id]
	if !ok {
		return nil, fmt.Errorf("annotation %s: %w", id, domain.ErrNotFound)
	}
	return cloneAnnotation(ann), nil
}

// DeleteByStage removes all annotations for the (document, stage) pair.
func (r *AnnotationRepository) DeleteByStage(ctx context.Context, documentID, stage string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, ann := range r.annotations {
		if ann.DocumentID == documentID && ann.Stage == stage {
			delete(r.annotations, id)
			delete(r.order, id)
			removed++
		}
	}
	return removed, nil
}

// DeleteByDocument removes all annotations for a document.
func (r *AnnotationRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, ann := range r.annotations {
		if ann.DocumentID == documentID {
			delete(r.annotations, id)
			delete(r.order, id)
		}
	}
	return nil
}

// ListByDocument returns annotations ordered by start index ascending,
// insertion order as the tie-break. stage == "" returns all stages.
func (r *AnnotationRepository) ListByDocument(ctx context.Context, documentID, stage string) ([]*models.Annotation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.Annotation{}
	for _, ann := range r.annotations {
		if ann.DocumentID != documentID {
			continue
		}
		if stage != "" && ann.Stage != stage {
			continue
		}
		out = append(out, cloneAnnotation(ann))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartIndex != out[j].StartIndex {
			return out[i].StartIndex < out[j].StartIndex
		}
		return r.order[out[i].ID] < r.order[out[j].ID]
	})
	return out, nil
}

// UpdateFlags applies a partial flag update.
func (r *AnnotationRepository) UpdateFlags(ctx context.Context, id string, update *repositories.AnnotationFlagUpdate) (*models.Annotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ann, ok := r.annotations[id]
	if !ok {
		return nil, fmt.Errorf("annotation %s: %w", id, domain.ErrNotFound)
	}

	if update.IsResolved != nil {
		ann.IsResolved = *update.IsResolved
	}
	if update.IsDismissed != nil {
		ann.IsDismissed = *update.IsDismissed
	}
	if update.AppliedFix != nil {
		ann.AppliedFix = *update.AppliedFix
	}

	return cloneAnnotation(ann), nil
}

func cloneAnnotation(ann *models.Annotation) *models.Annotation {
	clone := *ann
	return &clone
}

var _ repositories.AnnotationRepository = (*AnnotationRepository)(nil)
