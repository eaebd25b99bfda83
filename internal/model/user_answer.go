package model

import (
	"time"

	"github.com/google/uuid"
)

// ConfidenceLevel is a self-assessment tag attached to an answered question.
type ConfidenceLevel string

const (
	ConfidenceGuessing  ConfidenceLevel = "guessing"
	ConfidenceUnsure    ConfidenceLevel = "unsure"
	ConfidenceConfident ConfidenceLevel = "confident"
)

// Valid reports whether the level is one of the three known values.
func (c ConfidenceLevel) Valid() bool {
	switch c {
	case ConfidenceGuessing, ConfidenceUnsure, ConfidenceConfident:
		return true
	}
	return false
}

// UserAnswer is one persisted answer row. One row exists per question per
// session, including skipped questions (null selected_option). IsCorrect is
// computed once at submission and is authoritative for all later reads.
type UserAnswer struct {
	ID              uuid.UUID        `json:"id"`
	SessionID       uuid.UUID        `json:"session_id"`
	QuestionID      uuid.UUID        `json:"question_id"`
	SelectedOption  *string          `json:"selected_option,omitempty"`
	ConfidenceLevel *ConfidenceLevel `json:"confidence_level,omitempty"`
	IsCorrect       *bool            `json:"is_correct,omitempty"`
	AnsweredAt      time.Time        `json:"answered_at"`
}
