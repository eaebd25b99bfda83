package model

import (
	"time"

	"github.com/google/uuid"
)

// UserSession represents one completed (or in-progress) attempt of an exam.
// Score is the legacy raw correct count; answer-level records are preferred
// for percentage computation wherever they exist.
type UserSession struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	ExamID      uuid.UUID  `json:"exam_id"`
	Score       *int       `json:"score,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Completed reports whether the session has been submitted.
func (s *UserSession) Completed() bool {
	return s.CompletedAt != nil
}
