package model

import "github.com/google/uuid"

// StartAttemptRequest is the payload for beginning (or resuming) an attempt.
type StartAttemptRequest struct {
	Retake bool `json:"retake"`
}

// GoToQuestionRequest moves the navigation cursor to an absolute index.
type GoToQuestionRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}

// SelectAnswerRequest records a choice for one question.
type SelectAnswerRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Option     string    `json:"option" binding:"required,len=1"`
}

// SetConfidenceRequest tags a question with a confidence level.
type SetConfidenceRequest struct {
	QuestionID uuid.UUID       `json:"question_id" binding:"required"`
	Level      ConfidenceLevel `json:"level" binding:"required,oneof=guessing unsure confident"`
}

// QuestionRequest targets a single question (flag, check, hide-result).
type QuestionRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
}

// StrikethroughRequest toggles elimination of one option on one question.
type StrikethroughRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Option     string    `json:"option" binding:"required,len=1"`
}
