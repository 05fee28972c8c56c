package handlers

import (
	"net/http"

	statsvc "github.com/autobot/backoffice/internal/app/service/stats"
	"github.com/autobot/backoffice/pkg/logctx"
	"github.com/autobot/backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary      Billing Dashboard (Admin)
// @Description  Returns subscription counts by status, revenue this month and pending invoice totals.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespDashboardStats
// @Router       /api/v1/admin/dashboard/stats [get]
func ApiDashboardStats(svc *statsvc.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.Dashboard(c.Request.Context())
		if err != nil {
			logctx.FromGin(c, log).Errorw("dashboard stats failed", "error", err)
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, "dashboard stats failed"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(stats))
	}
}
