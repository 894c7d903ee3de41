package models

import (
	"time"
)

// Annotation types - the severity/disposition tag assigned by the oracle.
const (
	AnnotationCritical   = "critical"
	AnnotationWarning    = "warning"
	AnnotationSuggestion = "suggestion"
	AnnotationVerified   = "verified"
)

// Severity levels - a scoring axis distinct from the annotation type.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Annotation is a single finding attached to a character range of a
// document body, produced by one stage's analysis run.
//
// StartIndex/EndIndex are half-open byte offsets into the body as it
// existed at analysis time. They are validated at creation but never
// re-anchored when the body is edited afterward.
type Annotation struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Stage      string    `json:"stage" db:"stage"`
	Type       string    `json:"type" db:"type"`
	Category   string    `json:"category" db:"category"`
	Message    string    `json:"message" db:"message"`
	Suggestion string    `json:"suggestion,omitempty" db:"suggestion"`
	StartIndex int       `json:"start_index" db:"start_index"`
	EndIndex   int       `json:"end_index" db:"end_index"`
	Confidence int       `json:"confidence" db:"confidence"`
	Severity   string    `json:"severity" db:"severity"`
	IsResolved bool      `json:"is_resolved" db:"is_resolved"`
	IsDismissed bool     `json:"is_dismissed" db:"is_dismissed"`
	AppliedFix bool      `json:"applied_fix" db:"applied_fix"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ValidType reports whether t is one of the four annotation types.
func ValidType(t string) bool {
	switch t {
	case AnnotationCritical, AnnotationWarning, AnnotationSuggestion, AnnotationVerified:
		return true
	}
	return false
}

// ValidSeverity reports whether s is one of the four severity levels.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// AnnotationSummary counts annotations by type for one analysis run.
type AnnotationSummary struct {
	Critical    int `json:"critical"`
	Warnings    int `json:"warnings"`
	Suggestions int `json:"suggestions"`
	Verified    int `json:"verified"`
}

// Tally adds one annotation of the given type to the summary.
func (s *AnnotationSummary) Tally(annotationType string) {
	switch annotationType {
	case AnnotationCritical:
		s.Critical++
	case AnnotationWarning:
		s.Warnings++
	case AnnotationSuggestion:
		s.Suggestions++
	case AnnotationVerified:
		s.Verified++
	}
}

// StageAnalysis is the validated output of one oracle call: the surviving
// annotations (not yet persisted, no IDs), the oracle's overall confidence,
// a per-type summary, and the count of rows dropped during validation.
type StageAnalysis struct {
	Annotations []*Annotation     `json:"annotations"`
	Confidence  int               `json:"confidence"`
	Summary     AnnotationSummary `json:"summary"`
	Dropped     int               `json:"-"`
}
