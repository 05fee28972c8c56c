package handlers

import (
	"net/http"

	plansvc "github.com/autobot/backoffice/internal/app/service/plan"
	"github.com/autobot/backoffice/pkg/logctx"
	"github.com/autobot/backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary      List Plans (Admin)
// @Description  Returns the active subscription plans ordered by price.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespListPlans
// @Router       /api/v1/admin/plans [get]
func ApiListPlans(svc *plansvc.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		plans, err := svc.List(c.Request.Context(), true)
		if err != nil {
			logctx.FromGin(c, log).Errorw("list plans failed", "error", err)
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, "list plans failed"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(plans))
	}
}
