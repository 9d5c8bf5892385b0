package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/internal/app/service"
)

const defaultDashboardDays = 7

type DashboardController struct {
	dashboardService service.DashboardService
}

func NewDashboardController(dashboardService service.DashboardService) *DashboardController {
	return &DashboardController{
		dashboardService: dashboardService,
	}
}

// GetMetrics returns the store metrics for a trailing window
// GET /api/v1/dashboard?days=7|30|90
func (ctrl *DashboardController) GetMetrics(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	days := defaultDashboardDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondWithServiceError(c, service.ErrInvalidWindow, "dashboard metrics")
			return
		}
		days = parsed
	}

	metrics, err := ctrl.dashboardService.Metrics(userID, days)
	if err != nil {
		respondWithServiceError(c, err, "dashboard metrics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metrics": metrics,
	})
}
