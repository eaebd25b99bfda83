package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/exitprep/exitprep-backend/internal/middleware"
	"github.com/exitprep/exitprep-backend/internal/response"
	"github.com/exitprep/exitprep-backend/internal/service"
)

// DashboardHandler serves the signed-in user's practice analytics.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Get godoc
// GET /api/v1/dashboard
// Returns best attempts per exam, the current day streak, and
// confidence-accuracy insights, all recomputed from persisted history.
func (h *DashboardHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	dashboard, err := h.dashboardService.GetDashboard(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, dashboard)
}
