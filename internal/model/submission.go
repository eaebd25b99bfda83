package model

import (
	"time"

	"github.com/google/uuid"
)

// Submission is the durable write produced when an attempt is submitted: one
// completed session plus one answer row per question. It is JSON-encoded onto
// the retry queue when the immediate write fails, so the worker can replay it
// verbatim.
type Submission struct {
	UserID      uuid.UUID    `json:"user_id"`
	ExamID      uuid.UUID    `json:"exam_id"`
	Score       int          `json:"score"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at"`
	Answers     []UserAnswer `json:"answers"`
}
