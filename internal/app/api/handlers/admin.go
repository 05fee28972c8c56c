package handlers

import (
	billsvc "github.com/autobot/backoffice/internal/app/service/billing"
	invsvc "github.com/autobot/backoffice/internal/app/service/invoice"
	plansvc "github.com/autobot/backoffice/internal/app/service/plan"
	statsvc "github.com/autobot/backoffice/internal/app/service/stats"
	subsvc "github.com/autobot/backoffice/internal/app/service/subscription"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterAdminRoutes(r gin.IRouter, engine *billsvc.Engine, sub *subsvc.Service, inv *invsvc.Service, plans *plansvc.Service, stats *statsvc.Service, log *zap.SugaredLogger) {
	r.POST("/billing/process", ApiProcessBilling(engine, log))
	r.POST("/subscriptions/assign", ApiAssignSubscription(sub, log))
	r.POST("/subscriptions/extend", ApiExtendSubscription(sub, log))
	r.GET("/subscriptions/:user_id", ApiSubscriptionInfo(sub, log))
	r.POST("/invoices/list", ApiListInvoices(inv, log))
	r.GET("/plans", ApiListPlans(plans, log))
	r.GET("/dashboard/stats", ApiDashboardStats(stats, log))
}
