package billing

import (
	"fmt"
	"time"

	"github.com/autobot/backoffice/internal/models"
)

const (
	// gracePeriodDays is the dunning window: a pending invoice older than
	// this suspends the subscription; a younger one just defers billing.
	// The boundary is inclusive: exactly 7 days old still defers.
	gracePeriodDays = 7

	// dueDateGraceDays is added to the period end to form the invoice due date.
	dueDateGraceDays = 3
)

type actionKind int

const (
	actionBill actionKind = iota
	actionSkipExisting
	actionWaitPending
	actionSuspend
)

// decision is the outcome of the pure per-subscription decision procedure.
// Both billing triggers (admin endpoint and scheduled job) go through this
// single function so their dunning behavior cannot diverge.
type decision struct {
	kind         actionKind
	daysOverdue  int
	pendingCount int
	oldest       *models.Invoice
	existing     *models.Invoice
}

// decide picks the action for one due subscription given its existing invoice
// for the current period (nil if none), its still-pending invoices created
// before the current period started (oldest first), and today's date.
func decide(existing *models.Invoice, pending []*models.Invoice, today time.Time) decision {
	if existing != nil {
		return decision{kind: actionSkipExisting, existing: existing}
	}
	if len(pending) > 0 {
		oldest := pending[0]
		overdue := daysBetween(oldest.CreatedAt, today)
		d := decision{daysOverdue: overdue, pendingCount: len(pending), oldest: oldest}
		if overdue > gracePeriodDays {
			d.kind = actionSuspend
		} else {
			d.kind = actionWaitPending
		}
		return d
	}
	return decision{kind: actionBill}
}

// invoiceNumber builds the canonical invoice number:
// INV-YYYYMMDD-<user id zero-padded to 5>-<subscription id>.
func invoiceNumber(today time.Time, userID, subscriptionID int64) string {
	return fmt.Sprintf("INV-%s-%05d-%d", dateOf(today).Format("20060102"), userID, subscriptionID)
}
