package services

import (
	"context"

	"redline/internal/domain/models"
)

// DocumentService handles document business logic
type DocumentService interface {
	// CreateDocument creates a new document for the owner
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*models.Document, error)

	// GetDocument retrieves a document
	// userID is used for the ownership check
	GetDocument(ctx context.Context, userID, documentID string) (*models.Document, error)

	// ListDocuments lists the caller's documents, most recently updated first
	ListDocuments(ctx context.Context, userID string) ([]*models.Document, error)

	// UpdateDocument applies a partial update; word count is recomputed
	// whenever content is part of the update
	UpdateDocument(ctx context.Context, userID, documentID string, req *UpdateDocumentRequest) (*models.Document, error)

	// DeleteDocument deletes a document and all of its annotations
	DeleteDocument(ctx context.Context, userID, documentID string) error
}

// CreateDocumentRequest represents a document creation request
type CreateDocumentRequest struct {
	OwnerID string `json:"-"` // Set by handler from auth context, not from request body
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status,omitempty"` // Defaults to "draft"
}

// UpdateDocumentRequest represents a document update request
type UpdateDocumentRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Status  *string `json:"status,omitempty"`
}
