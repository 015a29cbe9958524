package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/api/internal/service"
)

// OverviewHandler handles the dashboard and overview aggregate endpoints
type OverviewHandler struct {
	overviewService *service.OverviewService
}

// NewOverviewHandler creates a new overview handler
func NewOverviewHandler(overviewService *service.OverviewService) *OverviewHandler {
	return &OverviewHandler{overviewService: overviewService}
}

// Dashboard returns the scoped landing aggregate
// @Summary Dashboard stats
// @Description Voted/not-voted counts and percentages within the requester's scope
// @Tags Overview
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.DashboardStats
// @Failure 403 {object} map[string]string
// @Router /dashboard [get]
func (h *OverviewHandler) Dashboard(c *gin.Context) {
	stats, err := h.overviewService.Dashboard(c.Request.Context(), currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Overview returns the extended aggregate with drill-down filters
// @Summary Overview stats
// @Description Extended counts. Superadmins may drill down by ward_id; superadmins and team leads by worker_id.
// @Tags Overview
// @Produce json
// @Security BearerAuth
// @Param ward_id query int false "Drill down to one ward (superadmin)"
// @Param worker_id query int false "Drill down to one worker (superadmin, team lead)"
// @Success 200 {object} service.OverviewStats
// @Failure 403 {object} map[string]string
// @Router /overview [get]
func (h *OverviewHandler) Overview(c *gin.Context) {
	var query service.OverviewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stats, err := h.overviewService.Overview(c.Request.Context(), currentUser(c), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
