package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam represents a practice exam. Immutable once created.
type Exam struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Subject          string    `json:"subject"`
	TotalQuestions   int       `json:"total_questions"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	CreatedAt        time.Time `json:"created_at"`
}

// ExamPayload is the Redis-cached paper sent to exam takers. ExitPrep is a
// practice tool, so questions ship with explanations and the answer key —
// immediate feedback is the product, not something to hide.
type ExamPayload struct {
	ExamID           uuid.UUID  `json:"exam_id"`
	Title            string     `json:"title"`
	Subject          string     `json:"subject"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	Questions        []Question `json:"questions"`
}
