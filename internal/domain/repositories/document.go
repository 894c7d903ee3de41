package repositories

import (
	"context"

	"redline/internal/domain/models"
)

// DocumentRepository defines data access operations for documents
type DocumentRepository interface {
	// Create creates a new document
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// ListByOwner lists an owner's documents, most recently updated first
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error)

	// Update updates an existing document row
	Update(ctx context.Context, doc *models.Document) error

	// Delete deletes a document. Annotation cascade is the caller's
	// responsibility (run both inside one transaction).
	Delete(ctx context.Context, id string) error
}
