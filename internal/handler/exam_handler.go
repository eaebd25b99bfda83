package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/exitprep/exitprep-backend/internal/middleware"
	"github.com/exitprep/exitprep-backend/internal/response"
	"github.com/exitprep/exitprep-backend/internal/service"
)

// ExamHandler serves the exam catalog and exam payloads.
type ExamHandler struct {
	examService      *service.ExamService
	dashboardService *service.DashboardService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, dashboardService *service.DashboardService) *ExamHandler {
	return &ExamHandler{examService: examService, dashboardService: dashboardService}
}

// List godoc
// GET /api/v1/exams
// Lists all exams. Signed-in callers get their per-exam attempt status
// (best score, attempt count, in-progress flag) overlaid; guests get the
// plain catalog.
func (h *ExamHandler) List(c *gin.Context) {
	entries, err := h.dashboardService.GetCatalog(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": entries})
}

// Get godoc
// GET /api/v1/exams/:exam_id
// Returns the full exam payload: questions with options, explanations, and
// the answer key. This is a practice tool — immediate feedback is the
// product, so nothing is held back.
func (h *ExamHandler) Get(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	payload, err := h.examService.GetExamPayload(c.Request.Context(), examID)
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
	response.Success(c, http.StatusOK, payload)
}
