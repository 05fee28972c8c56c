package handlers

import (
	billsvc "github.com/autobot/backoffice/internal/app/service/billing"
	invsvc "github.com/autobot/backoffice/internal/app/service/invoice"
	statsvc "github.com/autobot/backoffice/internal/app/service/stats"
	subsvc "github.com/autobot/backoffice/internal/app/service/subscription"
	"github.com/autobot/backoffice/internal/models"
	"github.com/autobot/backoffice/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespBillingRun wraps the billing run summary in the standard envelope.
type RespBillingRun struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    billsvc.RunSummary       `json:"data"`
}

// RespAssignSubscription wraps the assign result in the standard envelope.
type RespAssignSubscription struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    subsvc.AssignResult      `json:"data"`
}

// RespExtendSubscription wraps the extend result in the standard envelope.
type RespExtendSubscription struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    subsvc.ExtendResult      `json:"data"`
}

// RespSubscriptionInfo wraps the subscription info in the standard envelope.
type RespSubscriptionInfo struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    subsvc.Info              `json:"data"`
}

// RespListInvoices wraps the invoice listing in the standard envelope.
type RespListInvoices struct {
	Code    response.APIResponseCode  `json:"code"`
	Message string                    `json:"message"`
	Data    invsvc.ScanInvoicesResponse `json:"data"`
}

// RespListPlans wraps the plan listing in the standard envelope.
type RespListPlans struct {
	Code    response.APIResponseCode   `json:"code"`
	Message string                     `json:"message"`
	Data    []models.SubscriptionPlan  `json:"data"`
}

// RespDashboardStats wraps the dashboard aggregates in the standard envelope.
type RespDashboardStats struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    statsvc.DashboardStats   `json:"data"`
}
