package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"redline/internal/config"
	"redline/internal/domain"
	"redline/internal/domain/models"
	"redline/internal/domain/repositories"
	"redline/internal/domain/services"
)

// documentService implements the DocumentService interface
type documentService struct {
	docRepo        repositories.DocumentRepository
	annotationRepo repositories.AnnotationRepository
	txManager      repositories.TransactionManager
	logger         *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo repositories.DocumentRepository,
	annotationRepo repositories.AnnotationRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.DocumentService {
	return &documentService{
		docRepo:        docRepo,
		annotationRepo: annotationRepo,
		txManager:      txManager,
		logger:         logger,
	}
}

// CreateDocument creates a new document owned by the caller
func (s *documentService) CreateDocument(ctx context.Context, req *services.CreateDocumentRequest) (*models.Document, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	status := req.Status
	if status == "" {
		status = models.StatusDraft
	}

	now := time.Now()
	doc := &models.Document{
		OwnerID:         req.OwnerID,
		Title:           req.Title,
		Content:         req.Content,
		WordCount:       countWords(req.Content),
		Status:          status,
		StagesCompleted: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		"id", doc.ID,
		"title", doc.Title,
		"owner_id", doc.OwnerID,
		"word_count", doc.WordCount,
	)

	return doc, nil
}

// GetDocument retrieves a document after checking ownership
func (s *documentService) GetDocument(ctx context.Context, userID, documentID string) (*models.Document, error) {
	return s.ownedDocument(ctx, userID, documentID)
}

// ListDocuments lists the caller's documents, most recently updated first
func (s *documentService) ListDocuments(ctx context.Context, userID string) ([]*models.Document, error) {
	return s.docRepo.ListByOwner(ctx, userID)
}

// UpdateDocument applies a partial update. Changing content recomputes the
// word count but deliberately leaves existing annotations untouched; their
// offsets refer to the content that was analyzed, and the client decides
// when to re-run a stage.
func (s *documentService) UpdateDocument(ctx context.Context, userID, documentID string, req *services.UpdateDocumentRequest) (*models.Document, error) {
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.Content != nil {
		doc.Content = *req.Content
		doc.WordCount = countWords(doc.Content)
	}
	if req.Status != nil {
		doc.Status = *req.Status
	}

	doc.UpdatedAt = time.Now()

	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document updated",
		"id", doc.ID,
		"title", doc.Title,
		"word_count", doc.WordCount,
	)

	return doc, nil
}

// DeleteDocument deletes a document and all of its annotations in one
// transaction.
func (s *documentService) DeleteDocument(ctx context.Context, userID, documentID string) error {
	if _, err := s.ownedDocument(ctx, userID, documentID); err != nil {
		return err
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.annotationRepo.DeleteByDocument(txCtx, documentID); err != nil {
			return err
		}
		return s.docRepo.Delete(txCtx, documentID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("document deleted", "id", documentID, "owner_id", userID)

	return nil
}

// ownedDocument loads the document and enforces ownership. An empty
// userID skips the check (internal callers).
func (s *documentService) ownedDocument(ctx context.Context, userID, documentID string) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if userID != "" && doc.OwnerID != userID {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrForbidden)
	}
	return doc, nil
}

// validateCreateRequest validates a document creation request
func (s *documentService) validateCreateRequest(req *services.CreateDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxDocumentTitleLength),
		),
		validation.Field(&req.Content,
			validation.Length(0, config.MaxDocumentContentBytes),
		),
	)
}

// validateUpdateRequest validates a document update request
func (s *documentService) validateUpdateRequest(req *services.UpdateDocumentRequest) error {
	if req.Title == nil && req.Content == nil && req.Status == nil {
		return fmt.Errorf("no fields to update")
	}
	if req.Title != nil {
		if err := validation.Validate(*req.Title,
			validation.Required,
			validation.Length(1, config.MaxDocumentTitleLength),
		); err != nil {
			return fmt.Errorf("title: %w", err)
		}
	}
	if req.Content != nil {
		if err := validation.Validate(*req.Content,
			validation.Length(0, config.MaxDocumentContentBytes),
		); err != nil {
			return fmt.Errorf("content: %w", err)
		}
	}
	return nil
}

// countWords counts whitespace-separated tokens.
func countWords(content string) int {
	return len(strings.Fields(content))
}
