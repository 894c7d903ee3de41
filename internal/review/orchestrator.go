package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"redline/internal/domain"
	"redline/internal/domain/models"
	"redline/internal/domain/repositories"
	"redline/internal/domain/services"
	"redline/internal/stage"
)

// DefaultOracleTimeout bounds the oracle round-trip when the config does
// not specify one. The oracle call is the only blocking operation in a run.
const DefaultOracleTimeout = 60 * time.Second

// Orchestrator drives the per-stage analysis state machine:
// Idle -> Running -> {Succeeded, Failed} for one (document, stage) pair.
type Orchestrator struct {
	registry    *stage.Registry
	docs        repositories.DocumentRepository
	annotations repositories.AnnotationRepository
	txManager   repositories.TransactionManager
	analyzer    *Analyzer
	inflight    *inflightRegistry
	timeout     time.Duration
	logger      *slog.Logger
}

// NewOrchestrator creates a new review orchestrator. All collaborators are
// injected; the oracle reaches this code only through the analyzer.
func NewOrchestrator(
	registry *stage.Registry,
	docs repositories.DocumentRepository,
	annotations repositories.AnnotationRepository,
	txManager repositories.TransactionManager,
	analyzer *Analyzer,
	timeout time.Duration,
	logger *slog.Logger,
) services.ReviewOrchestrator {
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	return &Orchestrator{
		registry:    registry,
		docs:        docs,
		annotations: annotations,
		txManager:   txManager,
		analyzer:    analyzer,
		inflight:    newInflightRegistry(),
		timeout:     timeout,
		logger:      logger,
	}
}

// AnalyzeStage runs one stage against one document.
//
// Failure ordering matters: stage and document lookups happen before any
// state mutation, and the busy check happens before the status write, so a
// rejected request leaves no trace. After the status write, any oracle
// failure reverts the status to "uploaded" but leaves currentStage set as a
// diagnostic breadcrumb; the pair's annotations stay empty because they
// were cleared before the call and never replaced.
func (o *Orchestrator) AnalyzeStage(ctx context.Context, userID, documentID, stageKey string) (*services.StageReport, error) {
	def, err := o.registry.Lookup(stageKey)
	if err != nil {
		return nil, err
	}

	doc, err := o.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if userID != "" && doc.OwnerID != userID {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrForbidden)
	}

	if !o.inflight.acquire(documentID, stageKey) {
		return nil, fmt.Errorf("stage %s for document %s: %w", stageKey, documentID, domain.ErrStageBusy)
	}
	defer o.inflight.release(documentID, stageKey)

	// Mark the document as under review. Visible to concurrent readers
	// immediately.
	doc.Status = stageKey + "-reviewing"
	doc.CurrentStage = stageKey
	doc.UpdatedAt = time.Now()
	if err := o.docs.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("mark reviewing: %w", err)
	}

	// Full replace semantics: a re-run never leaves annotations from a
	// previous run of the same stage.
	cleared, err := o.annotations.DeleteByStage(ctx, documentID, stageKey)
	if err != nil {
		o.revertStatus(ctx, doc)
		return nil, fmt.Errorf("clear prior annotations: %w", err)
	}

	oracleCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	analysis, err := o.analyzer.Run(oracleCtx, doc.Title, doc.Content, def)
	if err != nil {
		o.revertStatus(ctx, doc)
		o.logger.Warn("stage analysis failed",
			"document_id", documentID,
			"stage", stageKey,
			"error", err,
		)
		return nil, err
	}

	// Persist findings and record completion together: a stage is never
	// marked completed without its annotation set (an empty set is a valid
	// outcome and still completes the stage). The completion update runs
	// on a copy so a rolled-back transaction leaves the in-memory document
	// clean for the status revert.
	completed := *doc
	completed.StagesCompleted = append([]string(nil), doc.StagesCompleted...)
	err = o.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := o.annotations.BulkInsert(txCtx, documentID, stageKey, analysis.Annotations); err != nil {
			return fmt.Errorf("persist annotations: %w", err)
		}

		completed.CompleteStage(stageKey)
		completed.Status = models.StatusUploaded
		completed.UpdatedAt = time.Now()
		if err := o.docs.Update(txCtx, &completed); err != nil {
			return fmt.Errorf("record completion: %w", err)
		}
		return nil
	})
	if err != nil {
		o.revertStatus(ctx, doc)
		return nil, err
	}

	o.logger.Info("stage analysis completed",
		"document_id", documentID,
		"stage", stageKey,
		"cleared", cleared,
		"annotations", len(analysis.Annotations),
		"dropped", analysis.Dropped,
		"confidence", analysis.Confidence,
	)

	return &services.StageReport{
		Stage:           stageKey,
		Summary:         analysis.Summary,
		Confidence:      analysis.Confidence,
		CompletedStages: completed.StagesCompleted,
	}, nil
}

// revertStatus returns a document to the neutral idle status after a
// failed run. currentStage is left untouched on purpose so a failed run is
// observable. Best effort: the run is already failing.
func (o *Orchestrator) revertStatus(ctx context.Context, doc *models.Document) {
	doc.Status = models.StatusUploaded
	doc.UpdatedAt = time.Now()
	if err := o.docs.Update(ctx, doc); err != nil {
		o.logger.Error("failed to revert document status",
			"document_id", doc.ID,
			"error", err,
		)
	}
}
