package services

import (
	"context"

	"redline/internal/domain/models"
)

// ReviewOrchestrator drives one stage analysis run for one document.
type ReviewOrchestrator interface {
	// AnalyzeStage runs the named stage against the document's current
	// content: clears the pair's prior annotations, calls the oracle,
	// persists the validated findings, and records stage completion.
	//
	// Fails with ErrUnknownStage, ErrNotFound, ErrStageBusy,
	// ErrOracleUnavailable or ErrMalformedResponse. All failures are
	// terminal for the invocation; retry is a caller decision.
	AnalyzeStage(ctx context.Context, userID, documentID, stageKey string) (*StageReport, error)
}

// StageReport is the caller-facing result of a successful stage run.
type StageReport struct {
	Stage           string                   `json:"stage"`
	Summary         models.AnnotationSummary `json:"summary"`
	Confidence      int                      `json:"confidence"`
	CompletedStages []string                 `json:"completed_stages"`
}

// OracleClient is the transport to the external text-analysis service.
// One call per orchestrator run; implementations do not retry.
type OracleClient interface {
	// Complete sends a system directive plus a user payload and returns
	// the raw text of the model's reply.
	Complete(ctx context.Context, system, user string) (string, error)

	// Name returns the client name (e.g. "anthropic", "lorem")
	Name() string
}
