package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Admin Dashboard Stats ---
//

// GetDashboardStats returns KPI data for the admin dashboard
// GET /admin/dashboard-stats
func (h *Handlers) GetDashboardStats(c *gin.Context) {
	stats, err := h.Services.Dashboard.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
