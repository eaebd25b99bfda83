package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/exitprep/exitprep-backend/internal/middleware"
	"github.com/exitprep/exitprep-backend/internal/model"
	"github.com/exitprep/exitprep-backend/internal/response"
	"github.com/exitprep/exitprep-backend/internal/service"
	"github.com/exitprep/exitprep-backend/internal/session"
	"github.com/exitprep/exitprep-backend/internal/validator"
)

// AttemptHandler relays attempt operations to the live session engine. All
// engine mutations go through here; the engine itself treats harmless invalid
// inputs as no-ops, so most operations only fail when the attempt is gone.
type AttemptHandler struct {
	attemptService *service.AttemptService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// Start godoc
// POST /api/v1/exams/:exam_id/attempts
// Starts a fresh attempt, or resumes the latest completed session in review
// mode when one exists and retake is false. Guests get a fully functional
// attempt with no persistence.
func (h *AttemptHandler) Start(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// The body is optional; an empty body means a default start.
	var req model.StartAttemptRequest
	if c.Request.ContentLength > 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), middleware.GetUserID(c), examID, req.Retake)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		case errors.Is(err, service.ErrNoQuestions):
			response.Fail(c, http.StatusNotFound, response.ErrNoQuestions)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"attempt_id": attempt.ID,
		"state":      attempt.Snapshot(),
	})
}

// Get godoc
// GET /api/v1/attempts/:id
// Returns the full engine state projection.
func (h *AttemptHandler) Get(c *gin.Context) {
	attempt, ok := h.lookup(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, attempt.Snapshot())
}

// Goto godoc
// POST /api/v1/attempts/:id/goto
// Moves the cursor to an absolute question index. Out-of-range indexes are
// silently ignored.
func (h *AttemptHandler) Goto(c *gin.Context) {
	attempt, ok := h.lookup(c)
	if !ok {
		return
	}
	var req model.GoToQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	attempt.Do(func(e *session.Engine) { e.GoToQuestion(*req.Index) })
	response.Success(c, http.StatusOK, attempt.Snapshot())
}

// Next godoc
// POST /api/v1/attempts/:id/next
func (h *AttemptHandler) Next(c *gin.Context) {
	attempt, ok := h.lookup(c)
	if !ok {
		return
	}
	attempt.Do(func(e *session.Engine) { e.NextQuestion() })
	response.Success(c, http.StatusOK, attempt.Snapshot())
}

// Prev godoc
// POST /api/v1/attempts/:id/prev
func (h *AttemptHandler) Prev(c *gin.Context) {
	attempt, ok := h.lookup(c)
	if !ok {
		return
	}
	attempt.Do(func(e *session.Engine) { e.PrevQuestion() })
	response.Success(c, http.StatusOK, attempt.Snapshot())
}

// Answer godoc
// POST /api/v1/attempts/:id/answer
// Overwrites the selection for one question.
func (h *AttemptHandler) Answer(c *gin.Context) {
	attempt, ok := h.lookup(c)
	if !ok {
		return
	}
	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	attempt.Do(func(e *session.Engine) { e.SelectAnswer(req.QuestionID, req.Option) })
	response.Success(c, http.StatusOK, attempt.Snapshot())
}

// Confidence godoc
// POST /api/v1/attempts/:id/confidence
func (h *AttemptHandler) Confidence(c *gin.Context) {
	attempt, ok := h.lookup(c)
	if !ok {
		return
	}
	var req model.SetConfidenceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	attempt.Do(func(e *session.Engine) { e.SetConfidence(req.QuestionID, req.Level) })
	response.Success(c, http.StatusOK, attempt.Snapshot())
}

// Flag godoc
// POST /api/v1/attempts/:id/flag
func (h *AttemptHandler) Flag(c *gin.Context) {
	attempt, ok := h.lookup(c)
	if !ok {
		return
	}
	var req model.QuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	attempt.Do(func(e *session.Engine) { e.ToggleFlag(req.QuestionID) })
	response.Success(c, http.StatusOK, attempt.Snapshot())
}

// Strike godoc
// POST /api/v1/attempts/:id/strike
// Toggles elimination of one option. Does not touch the selection.
func (h *AttemptHandler) Strike(c *gin.Context) {
	attempt, ok := h.lookup(c)
	if !ok {
		return
	}
	var req model.StrikethroughRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	attempt.Do(func(e *session.Engine) { e.ToggleStrikethrough(req.QuestionID, req.Option) })
	response.Success(c, http.StatusOK, attempt.Snapshot())
}

// Check godoc
// POST /api/v1/attempts/:id/check
// Reveals correctness for one question before submission. Returns false
// without recording anything when the question is unanswered.
func (h *AttemptHandler) Check(c *gin.Context) {
	attempt, ok := h.lookup(c)
	if !ok {
		return
	}
	var req model.QuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	var verdict bool
	attempt.Do(func(e *session.Engine) { verdict = e.CheckAnswer(req.QuestionID) })
	response.Success(c, http.StatusOK, gin.H{"is_correct": verdict})
}

// HideResult godoc
// POST /api/v1/attempts/:id/hide-result
// Collapses the feedback panel without discarding the verdict.
func (h *AttemptHandler) HideResult(c *gin.Context) {
	attempt, ok := h.lookup(c)
	if !ok {
		return
	}
	var req model.QuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	attempt.Do(func(e *session.Engine) { e.HideResult(req.QuestionID) })
	response.Success(c, http.StatusOK, attempt.Snapshot())
}

// Submit godoc
// POST /api/v1/attempts/:id/submit
// Persists the attempt (signed-in users) and flips the engine terminal.
// Idempotent.
func (h *AttemptHandler) Submit(c *gin.Context) {
	attempt, ok := h.lookup(c)
	if !ok {
		return
	}
	h.attemptService.Submit(c.Request.Context(), attempt)
	response.Success(c, http.StatusOK, attempt.Snapshot())
}

// Report godoc
// GET /api/v1/attempts/:id/report
// Returns the score report with per-topic breakdown for a submitted attempt.
func (h *AttemptHandler) Report(c *gin.Context) {
	attempt, ok := h.lookup(c)
	if !ok {
		return
	}
	report, err := h.attemptService.Report(c.Request.Context(), attempt)
	if err != nil {
		if errors.Is(err, service.ErrAttemptNotComplete) {
			response.Fail(c, http.StatusConflict, response.ErrAttemptNotDone)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// Discard godoc
// DELETE /api/v1/attempts/:id
// Drops the live attempt. Partial progress is never autosaved.
func (h *AttemptHandler) Discard(c *gin.Context) {
	attempt, ok := h.lookup(c)
	if !ok {
		return
	}
	h.attemptService.Discard(attempt.ID)
	response.Success(c, http.StatusOK, gin.H{})
}

func (h *AttemptHandler) lookup(c *gin.Context) (*session.Attempt, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	attempt, err := h.attemptService.Get(id, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrAttemptNotOwned) {
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
			return nil, false
		}
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
		return nil, false
	}
	return attempt, true
}
