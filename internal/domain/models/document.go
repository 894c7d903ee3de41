package models

import (
	"time"
)

// Document statuses used by the review pipeline. Status is a free-form
// phase label; these are the values the backend itself writes. A stage run
// additionally writes "<stage>-reviewing" while the oracle call is in
// flight.
const (
	StatusDraft    = "draft"
	StatusUploaded = "uploaded"
)

type Document struct {
	ID              string    `json:"id" db:"id"`
	OwnerID         string    `json:"owner_id" db:"owner_id"`
	Title           string    `json:"title" db:"title"`
	Content         string    `json:"content" db:"content"`
	WordCount       int       `json:"word_count" db:"word_count"`
	Status          string    `json:"status" db:"status"`
	CurrentStage    string    `json:"current_stage" db:"current_stage"`
	StagesCompleted []string  `json:"stages_completed" db:"stages_completed"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// HasCompletedStage reports whether the stage key is already in the
// completed set.
func (d *Document) HasCompletedStage(stage string) bool {
	for _, s := range d.StagesCompleted {
		if s == stage {
			return true
		}
	}
	return false
}

// CompleteStage appends the stage key to the completed set if absent.
func (d *Document) CompleteStage(stage string) {
	if !d.HasCompletedStage(stage) {
		d.StagesCompleted = append(d.StagesCompleted, stage)
	}
}
