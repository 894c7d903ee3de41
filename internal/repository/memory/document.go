// Package memory provides process-local repository implementations with
// the same semantics as the postgres repositories. They back the test
// suite and DB-less development mode.
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

// DocumentRepository is an in-memory DocumentRepository.
type DocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]*models.Document
}

// NewDocumentRepository creates an empty in-memory document repository.
func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{
		docs: make(map[string]*models.Document),
	}
}

// Create creates a new document, assigning an ID if absent.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, exists := r.docs[doc.ID]; exists {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrConflict)
	}
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}

	r.docs[doc.ID] = cloneDocument(doc)
	return nil
}

// GetByID retrieves a document by ID.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return cloneDocument(doc), nil
}

// ListByOwner lists an owner's documents, most recently updated first.
func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.Document{}
	for _, doc := range r.docs {
		if doc.OwnerID == ownerID {
			out = append(out, cloneDocument(doc))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Update replaces an existing document row.
func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[doc.ID]; !ok {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}
	r.docs[doc.ID] = cloneDocument(doc)
	return nil
}

// Delete deletes a document.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(r.docs, id)
	return nil
}

func cloneDocument(doc *models.Document) *models.Document {
	clone := *doc
	clone.StagesCompleted = append([]string(nil), doc.StagesCompleted...)
	return &clone
}

var _ repositories.DocumentRepository = (*DocumentRepository)(nil)
