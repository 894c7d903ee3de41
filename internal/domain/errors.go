package domain

import "errors"

// Sentinel errors for the service and repository layers - match with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Review pipeline errors. Each maps to exactly one failure mode of an
// analysis run; none of them are retried automatically.
var (
	// ErrUnknownStage is returned when a stage key is not in the catalog.
	ErrUnknownStage = errors.New("unknown editing stage")

	// ErrStageBusy is returned when an analysis run for the same
	// (document, stage) pair is already in flight.
	ErrStageBusy = errors.New("stage analysis already in progress")

	// ErrOracleUnavailable is returned when the analysis service cannot be
	// reached, errors out, or times out. No partial results are retained.
	ErrOracleUnavailable = errors.New("analysis service unavailable")

	// ErrMalformedResponse is returned when the analysis service replies
	// but the reply cannot be parsed as the expected structure.
	ErrMalformedResponse = errors.New("analysis service returned a malformed response")
)
