package handlers

import (
	"errors"
	"net/http"

	billsvc "github.com/autobot/backoffice/internal/app/service/billing"
	"github.com/autobot/backoffice/pkg/logctx"
	"github.com/autobot/backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary      Run Billing Cycle (Admin)
// @Description  Charges every subscription whose next billing date is due and returns the per-subscription outcomes. Only one run may be active at a time.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespBillingRun
// @Router       /api/v1/admin/billing/process [post]
func ApiProcessBilling(engine *billsvc.Engine, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := engine.Run(c.Request.Context(), billsvc.TriggerManual)
		if err != nil {
			if errors.Is(err, billsvc.ErrRunInProgress) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeConflict, "a billing run is already in progress"))
				return
			}
			logctx.FromGin(c, log).Errorw("billing run failed", "error", err)
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, "billing run failed"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(summary))
	}
}
