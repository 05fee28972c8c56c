package billing

import (
	"context"
	"errors"
	"time"

	"github.com/autobot/backoffice/internal/models"
	"github.com/autobot/backoffice/pkg/types"
)

// Trigger identifies which entry point started a billing run. The two
// triggers select different subscription sets but share all decision logic.
type Trigger string

const (
	// TriggerManual is the admin "process due billing" action: every active
	// subscription at or past its billing date.
	TriggerManual Trigger = "manual"
	// TriggerScheduled is the daily job: auto-renewing trial/active
	// subscriptions whose billing date is today.
	TriggerScheduled Trigger = "scheduled"
)

// ErrRunInProgress is returned when another billing cycle holds the run lock.
var ErrRunInProgress = errors.New("billing cycle already running")

// DueSubscription is the joined view of one subscription due for billing:
// the row itself plus the owner, plan pricing, and the default saved card
// (nil when the customer pays manually).
type DueSubscription struct {
	Subscription models.Subscription
	Email        string
	FullName     string
	PlanName     string
	MonthlyPrice int64
	PeriodDays   int
	Payment      *models.PaymentMethod
}

// Store is the persistence handle the engine is given explicitly; the engine
// itself keeps no connection state. All mutating calls are single-row
// updates, so the run lock plus the invoice unique index carry the
// correctness burden.
type Store interface {
	// WithRunLock serializes billing cycles; a second concurrent caller gets
	// ErrRunInProgress instead of racing the first.
	WithRunLock(ctx context.Context, fn func() error) error

	ListDue(ctx context.Context, today time.Time, trigger Trigger) ([]*DueSubscription, error)
	InvoiceForPeriod(ctx context.Context, userID, subscriptionID int64, start, end time.Time) (*models.Invoice, error)
	// PendingInvoicesBefore returns pending invoices created strictly before
	// the given time, oldest first.
	PendingInvoicesBefore(ctx context.Context, userID, subscriptionID int64, before time.Time) ([]*models.Invoice, error)
	CreateInvoice(ctx context.Context, inv *models.Invoice, item *models.InvoiceItem) error
	MarkInvoicePaid(ctx context.Context, invoiceID int64, paidAt time.Time) error
	MarkInvoiceFailed(ctx context.Context, invoiceID int64) error
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	AdvancePeriod(ctx context.Context, subscriptionID int64, start, end, nextBilling time.Time) error
	SetSubscriptionStatus(ctx context.Context, subscriptionID int64, status types.SubscriptionStatus) error
}
