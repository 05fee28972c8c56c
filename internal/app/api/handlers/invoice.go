package handlers

import (
	"net/http"

	invsvc "github.com/autobot/backoffice/internal/app/service/invoice"
	"github.com/autobot/backoffice/pkg/logctx"
	"github.com/autobot/backoffice/pkg/response"
	"github.com/autobot/backoffice/pkg/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ListInvoicesRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

// @Summary      List Invoices (Admin)
// @Description  Retrieves a paginated and filterable list of invoices.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ListInvoicesRequest true "List invoices request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListInvoices
// @Router       /api/v1/admin/invoices/list [post]
func ApiListInvoices(svc *invsvc.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListInvoicesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		scanReq := &invsvc.ScanInvoicesRequest{Filters: req.Filters, From: req.From, Size: req.Size, SortBy: req.SortBy, SortOrder: req.SortOrder}
		res, err := svc.ScanInvoices(c.Request.Context(), scanReq)
		if err != nil {
			logctx.FromGin(c, log).Errorw("list invoices failed", "error", err)
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, "list invoices failed"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}
