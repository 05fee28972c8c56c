package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/autobot/backoffice/internal/models"
	"github.com/autobot/backoffice/internal/platform/omise"
	"github.com/autobot/backoffice/pkg/config"
	"github.com/autobot/backoffice/pkg/logctx"
	"github.com/autobot/backoffice/pkg/tool"
	"github.com/autobot/backoffice/pkg/types"
)

// Engine runs the recurring-billing reconciliation cycle. It owns every
// invoice and subscription status transition made during automated billing;
// admin assign/extend is a separate writer with its own transaction.
type Engine struct {
	store    Store
	charger  omise.Charger
	log      *zap.SugaredLogger
	currency string
	now      func() time.Time
}

func New(store Store, charger omise.Charger, cfg *config.Config, log *zap.SugaredLogger) *Engine {
	return &Engine{
		store:    store,
		charger:  charger,
		log:      log,
		currency: cfg.Billing.Currency,
		now:      time.Now,
	}
}

// Run executes one billing cycle under the run lock. Per-subscription
// failures are folded into the summary; only infrastructure errors (lock or
// due-list queries) abort the run.
func (e *Engine) Run(ctx context.Context, trigger Trigger) (*RunSummary, error) {
	log := logctx.FromCtx(ctx, e.log)

	var summary *RunSummary
	err := e.store.WithRunLock(ctx, func() error {
		today := dateOf(e.now())
		due, err := e.store.ListDue(ctx, today, trigger)
		if err != nil {
			return err
		}
		log.Infow("billing cycle started", "trigger", trigger, "due", len(due))

		s := &RunSummary{Total: len(due), Details: make([]Outcome, 0, len(due))}
		for _, d := range due {
			out := e.processOne(ctx, d, today)
			switch out.Status {
			case OutcomeSuccess:
				s.Successful++
			case OutcomeFailed:
				s.Failed++
			}
			outcomesTotal.WithLabelValues(string(out.Status)).Inc()
			log.Infow("billing outcome",
				"user_id", out.UserID,
				"subscription_id", out.SubscriptionID,
				"status", out.Status,
				"amount", out.Amount,
				"reason", out.Reason,
				"error", out.Error,
			)
			s.Details = append(s.Details, out)
		}
		summary = s
		return nil
	})
	if err != nil {
		runsTotal.WithLabelValues(string(trigger), "error").Inc()
		return nil, err
	}
	runsTotal.WithLabelValues(string(trigger), "ok").Inc()
	log.Infow("billing cycle finished",
		"trigger", trigger,
		"total", summary.Total,
		"successful", summary.Successful,
		"failed", summary.Failed,
	)
	return summary, nil
}

// processOne evaluates a single due subscription. Every error past this
// point is converted into a failed outcome; nothing propagates to Run.
func (e *Engine) processOne(ctx context.Context, due *DueSubscription, today time.Time) Outcome {
	sub := due.Subscription
	out := Outcome{
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
		Email:          due.Email,
		Package:        due.PlanName,
		Amount:         due.MonthlyPrice,
	}

	existing, err := e.store.InvoiceForPeriod(ctx, sub.UserID, sub.ID, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	if err != nil {
		return e.fail(ctx, &sub, nil, out, err)
	}
	pending, err := e.store.PendingInvoicesBefore(ctx, sub.UserID, sub.ID, dateOf(sub.CurrentPeriodStart))
	if err != nil {
		return e.fail(ctx, &sub, nil, out, err)
	}

	d := decide(existing, pending, today)
	switch d.kind {
	case actionSkipExisting:
		out.Status = OutcomeSkippedExistingInvoice
		out.InvoiceID = d.existing.ID
		out.InvoiceNumber = d.existing.InvoiceNumber
		out.InvoiceStatus = string(d.existing.Status)
		return out

	case actionSuspend:
		if err := e.store.SetSubscriptionStatus(ctx, sub.ID, types.SubscriptionStatusSuspended); err != nil {
			return e.fail(ctx, &sub, nil, out, err)
		}
		out.Status = OutcomeSuspended
		out.Reason = fmt.Sprintf("payment overdue - %d days; subscription suspended", d.daysOverdue)
		out.PendingCount = d.pendingCount
		out.OldestInvoice = d.oldest.InvoiceNumber
		return out

	case actionWaitPending:
		out.Status = OutcomeSkippedPending
		out.Reason = fmt.Sprintf("pending invoice exists within grace period (%d days)", d.daysOverdue)
		out.PendingCount = d.pendingCount
		out.OldestInvoice = d.oldest.InvoiceNumber
		return out
	}

	return e.bill(ctx, due, today, out)
}

// bill creates the period invoice and routes payment: auto-charge when a
// default card exists, otherwise leave the invoice open for manual payment.
func (e *Engine) bill(ctx context.Context, due *DueSubscription, today time.Time, out Outcome) Outcome {
	sub := due.Subscription

	inv := &models.Invoice{
		InvoiceNumber:      invoiceNumber(today, sub.UserID, sub.ID),
		UserID:             sub.UserID,
		SubscriptionID:     sub.ID,
		Amount:             due.MonthlyPrice,
		Tax:                0,
		Total:              due.MonthlyPrice,
		Currency:           e.currency,
		Status:             types.InvoiceStatusPending,
		BillingPeriodStart: dateOf(sub.CurrentPeriodStart),
		BillingPeriodEnd:   dateOf(sub.CurrentPeriodEnd),
		DueDate:            dateOf(sub.CurrentPeriodEnd).AddDate(0, 0, dueDateGraceDays),
	}
	item := &models.InvoiceItem{
		Description: due.PlanName + " - Monthly Subscription",
		Quantity:    1,
		UnitPrice:   due.MonthlyPrice,
		Amount:      due.MonthlyPrice,
	}
	if err := e.store.CreateInvoice(ctx, inv, item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent run won the insert; treat like the pre-check hit.
			out.Status = OutcomeSkippedExistingInvoice
			out.Reason = "duplicate invoice blocked by unique constraint"
			return out
		}
		return e.fail(ctx, &sub, nil, out, err)
	}
	out.InvoiceID = inv.ID
	out.InvoiceNumber = inv.InvoiceNumber

	newStart, newEnd, nextBilling := nextPeriod(sub.CurrentPeriodEnd, due.PeriodDays)

	if due.Payment == nil {
		// Manual payment path: the period still advances so the customer is
		// not cut off while the bank transfer is in flight.
		if err := e.store.AdvancePeriod(ctx, sub.ID, newStart, newEnd, nextBilling); err != nil {
			return e.fail(ctx, &sub, inv, out, err)
		}
		out.Status = OutcomePendingManualPayment
		out.Reason = "invoice created - awaiting manual payment"
		out.DueDate = inv.DueDate.Format(time.DateOnly)
		return out
	}

	res, err := e.charger.Charge(ctx, omise.ChargeRequest{
		Amount:         due.MonthlyPrice,
		Currency:       e.currency,
		CustomerToken:  due.Payment.CustomerToken,
		CardToken:      due.Payment.CardToken,
		Description:    fmt.Sprintf("Subscription: %s - %s", due.PlanName, inv.InvoiceNumber),
		IdempotencyKey: inv.InvoiceNumber,
	})
	if err != nil {
		return e.fail(ctx, &sub, inv, out, err)
	}
	if !res.Status.Settled() {
		reason := res.FailureMessage
		if reason == "" {
			reason = "unknown error"
		}
		return e.fail(ctx, &sub, inv, out, fmt.Errorf("charge failed: %s", reason))
	}

	txn := &models.Transaction{
		ID:              tool.GenerateUUIDV7(),
		InvoiceID:       inv.ID,
		PaymentMethodID: &due.Payment.ID,
		ChargeID:        res.ID,
		Amount:          due.MonthlyPrice,
		Currency:        e.currency,
		Status:          res.Status,
		Metadata: datatypes.JSONMap{
			"subscription_id": sub.ID,
			"user_id":         sub.UserID,
			"plan_id":         sub.PlanID,
			"invoice_id":      inv.ID,
			"payment_method":  "credit_card",
		},
	}
	if err := e.store.CreateTransaction(ctx, txn); err != nil {
		return e.fail(ctx, &sub, inv, out, err)
	}
	if err := e.store.MarkInvoicePaid(ctx, inv.ID, e.now()); err != nil {
		return e.fail(ctx, &sub, inv, out, err)
	}
	if err := e.store.AdvancePeriod(ctx, sub.ID, newStart, newEnd, nextBilling); err != nil {
		return e.fail(ctx, &sub, inv, out, err)
	}
	if sub.Status == types.SubscriptionStatusTrial {
		if err := e.store.SetSubscriptionStatus(ctx, sub.ID, types.SubscriptionStatusActive); err != nil {
			return e.fail(ctx, &sub, inv, out, err)
		}
	}

	out.Status = OutcomeSuccess
	out.TransactionID = res.ID
	return out
}

// fail applies the forced-recovery rule: pause the subscription, mark this
// attempt's invoice failed, report the cause, keep the run going. Secondary
// store errors are logged but cannot mask the original failure.
func (e *Engine) fail(ctx context.Context, sub *models.Subscription, inv *models.Invoice, out Outcome, cause error) Outcome {
	log := logctx.FromCtx(ctx, e.log)
	if err := e.store.SetSubscriptionStatus(ctx, sub.ID, types.SubscriptionStatusPaused); err != nil {
		log.Errorw("failed to pause subscription after billing error", "subscription_id", sub.ID, "err", err)
	}
	if inv != nil {
		if err := e.store.MarkInvoiceFailed(ctx, inv.ID); err != nil {
			log.Errorw("failed to mark invoice failed", "invoice_id", inv.ID, "err", err)
		}
	}
	log.Errorw("billing failed for subscription", "user_id", sub.UserID, "subscription_id", sub.ID, "err", cause)
	out.Status = OutcomeFailed
	out.Error = cause.Error()
	return out
}
