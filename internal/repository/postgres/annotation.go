package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"redline/internal/domain"
	"redline/internal/domain/models"
	"redline/internal/domain/repositories"
)

// PostgresAnnotationRepository implements the AnnotationRepository interface
type PostgresAnnotationRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewAnnotationRepository creates a new annotation repository
func NewAnnotationRepository(config *RepositoryConfig) repositories.AnnotationRepository {
	return &PostgresAnnotationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// BulkInsert persists one run's annotations for the (document, stage)
// pair. The seq column preserves insertion order for tie-breaking.
func (r *PostgresAnnotationRepository) BulkInsert(ctx context.Context, documentID, stage string, annotations []*models.Annotation) error {
	if len(annotations) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, stage, type, category, message, suggestion, start_index, end_index, confidence, severity, is_resolved, is_dismissed, applied_fix, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, r.tables.Annotations)

	executor := GetExecutor(ctx, r.pool)
	now := time.Now()
	for _, ann := range annotations {
		ann.DocumentID = documentID
		ann.Stage = stage
		ann.CreatedAt = now

		err := executor.QueryRow(ctx, query,
			ann.DocumentID,
			ann.Stage,
			ann.Type,
			ann.Category,
			ann.Message,
			ann.Suggestion,
			ann.StartIndex,
			ann.EndIndex,
			ann.Confidence,
			ann.Severity,
			ann.IsResolved,
			ann.IsDismissed,
			ann.AppliedFix,
			ann.CreatedAt,
		).Scan(&ann.ID)
		if err != nil {
			if IsPgForeignKeyError(err) {
				return fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
			}
			return fmt.Errorf("insert annotation: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a single annotation
func (r *PostgresAnnotationRepository) GetByID(ctx context.Context, id string) (*models.Annotation, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, stage, type, category, message, suggestion, start_index, end_index, confidence, severity, is_resolved, is_dismissed, applied_fix, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Annotations)

	var ann models.Annotation
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&ann.ID,
		&ann.DocumentID,
		&ann.Stage,
		&ann.Type,
		&ann.Category,
		&ann.Message,
		&ann.Suggestion,
		&ann.StartIndex,
		&ann.EndIndex,
		&ann.Confidence,
		&ann.Severity,
		&ann.IsResolved,
		&ann.IsDismissed,
		&ann.AppliedFix,
		&ann.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("annotation %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get annotation: %w", err)
	}

	return &ann, nil
}

// DeleteByStage removes all annotations for the (document, stage) pair
func (r *PostgresAnnotationRepository) DeleteByStage(ctx context.Context, documentID, stage string) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE document_id = $1 AND stage = $2
	`, r.tables.Annotations)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, documentID, stage)
	if err != nil {
		return 0, fmt.Errorf("delete annotations by stage: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteByDocument removes all annotations for a document
func (r *PostgresAnnotationRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE document_id = $1
	`, r.tables.Annotations)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query, documentID)
	if err != nil {
		return fmt.Errorf("delete annotations by document: %w", err)
	}

	return nil
}

// ListByDocument returns annotations ordered by start index ascending,
// insertion order (seq) as the tie-break. stage == "" returns all stages.
func (r *PostgresAnnotationRepository) ListByDocument(ctx context.Context, documentID, stage string) ([]*models.Annotation, error) {
	var query string
	var args []interface{}

	if stage != "" {
		query = fmt.Sprintf(`
			SELECT id, document_id, stage, type, category, message, suggestion, start_index, end_index, confidence, severity, is_resolved, is_dismissed, applied_fix, created_at
			FROM %s
			WHERE document_id = $1 AND stage = $2
			ORDER BY start_index ASC, seq ASC
		`, r.tables.Annotations)
		args = []interface{}{documentID, stage}
	} else {
		query = fmt.Sprintf(`
			SELECT id, document_id, stage, type, category, message, suggestion, start_index, end_index, confidence, severity, is_resolved, is_dismissed, applied_fix, created_at
			FROM %s
			WHERE document_id = $1
			ORDER BY start_index ASC, seq ASC
		`, r.tables.Annotations)
		args = []interface{}{documentID}
	}

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer rows.Close()

	var annotations []*models.Annotation
	for rows.Next() {
		var ann models.Annotation
		err := rows.Scan(
			&ann.ID,
			&ann.DocumentID,
			&ann.Stage,
			&ann.Type,
			&ann.Category,
			&ann.Message,
			&ann.Suggestion,
			&ann.StartIndex,
			&ann.EndIndex,
			&ann.Confidence,
			&ann.Severity,
			&ann.IsResolved,
			&ann.IsDismissed,
			&ann.AppliedFix,
			&ann.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		annotations = append(annotations, &ann)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annotations: %w", err)
	}

	// Return empty slice instead of nil
	if annotations == nil {
		annotations = []*models.Annotation{}
	}

	return annotations, nil
}

// UpdateFlags applies a partial flag update and returns the updated row
func (r *PostgresAnnotationRepository) UpdateFlags(ctx context.Context, id string, update *repositories.AnnotationFlagUpdate) (*models.Annotation, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_resolved = COALESCE($1, is_resolved),
		    is_dismissed = COALESCE($2, is_dismissed),
		    applied_fix = COALESCE($3, applied_fix)
		WHERE id = $4
		RETURNING id, document_id, stage, type, category, message, suggestion, start_index, end_index, confidence, severity, is_resolved, is_dismissed, applied_fix, created_at
	`, r.tables.Annotations)

	var ann models.Annotation
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		update.IsResolved,
		update.IsDismissed,
		update.AppliedFix,
		id,
	).Scan(
		&ann.ID,
		&ann.DocumentID,
		&ann.Stage,
		&ann.Type,
		&ann.Category,
		&ann.Message,
		&ann.Suggestion,
		&ann.StartIndex,
		&ann.EndIndex,
		&ann.Confidence,
		&ann.Severity,
		&ann.IsResolved,
		&ann.IsDismissed,
		&ann.AppliedFix,
		&ann.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("annotation %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update annotation flags: %w", err)
	}

	return &ann, nil
}
