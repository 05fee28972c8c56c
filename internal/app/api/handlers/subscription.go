package handlers

import (
	"errors"
	"net/http"
	"strconv"

	plansvc "github.com/autobot/backoffice/internal/app/service/plan"
	subsvc "github.com/autobot/backoffice/internal/app/service/subscription"
	"github.com/autobot/backoffice/pkg/logctx"
	"github.com/autobot/backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AssignSubscriptionRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
	PlanID int64 `json:"plan_id" binding:"required"`
}

type ExtendSubscriptionRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
	Days   int   `json:"days" binding:"required,min=1,max=3650"`
}

func serviceErrorCode(err error) (response.APIResponseCode, bool) {
	switch {
	case errors.Is(err, subsvc.ErrUserNotFound), errors.Is(err, subsvc.ErrPlanNotFound):
		return response.APIResponseCodeNotFound, true
	case errors.Is(err, subsvc.ErrPlanInactive), errors.Is(err, subsvc.ErrInvalidDays),
		errors.Is(err, plansvc.ErrNoActivePlan):
		return response.APIResponseCodeBadRequest, true
	}
	return 0, false
}

// @Summary      Assign Plan (Admin)
// @Description  Gives a user the requested plan, cancelling any other active subscription. Assigning the already-active plan is a no-op.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body AssignSubscriptionRequest true "Assign plan request"
// @Success      200  {object}  handlers.RespAssignSubscription
// @Router       /api/v1/admin/subscriptions/assign [post]
func ApiAssignSubscription(sub *subsvc.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AssignSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := sub.Assign(c.Request.Context(), req.UserID, req.PlanID)
		if err != nil {
			if code, ok := serviceErrorCode(err); ok {
				c.JSON(http.StatusOK, response.ErrorT[any](code, err.Error()))
				return
			}
			logctx.FromGin(c, log).Errorw("assign plan failed", "user_id", req.UserID, "plan_id", req.PlanID, "error", err)
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, "assign plan failed"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Extend Subscription (Admin)
// @Description  Pushes the user's active subscription forward by the given number of days. Without an active subscription a new one is created on the cheapest active plan with auto-renew off.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ExtendSubscriptionRequest true "Extend subscription request"
// @Success      200  {object}  handlers.RespExtendSubscription
// @Router       /api/v1/admin/subscriptions/extend [post]
func ApiExtendSubscription(sub *subsvc.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ExtendSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := sub.Extend(c.Request.Context(), req.UserID, req.Days)
		if err != nil {
			if code, ok := serviceErrorCode(err); ok {
				c.JSON(http.StatusOK, response.ErrorT[any](code, err.Error()))
				return
			}
			logctx.FromGin(c, log).Errorw("extend subscription failed", "user_id", req.UserID, "days", req.Days, "error", err)
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, "extend subscription failed"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Subscription Info (Admin)
// @Description  Returns the user's newest subscription with its plan and latest invoices.
// @Tags         Admin
// @Produce      json
// @Param        user_id path int true "User ID"
// @Success      200  {object}  handlers.RespSubscriptionInfo
// @Router       /api/v1/admin/subscriptions/{user_id} [get]
func ApiSubscriptionInfo(sub *subsvc.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "user_id must be an integer"))
			return
		}
		info, err := sub.Info(c.Request.Context(), userID)
		if err != nil {
			if code, ok := serviceErrorCode(err); ok {
				c.JSON(http.StatusOK, response.ErrorT[any](code, err.Error()))
				return
			}
			logctx.FromGin(c, log).Errorw("subscription info failed", "user_id", userID, "error", err)
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, "subscription info failed"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(info))
	}
}
