package billing

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/autobot/backoffice/internal/models"
	"github.com/autobot/backoffice/internal/platform/omise"
	"github.com/autobot/backoffice/pkg/types"
)

type dueMeta struct {
	email        string
	planName     string
	monthlyPrice int64
	periodDays   int
	payment      *models.PaymentMethod
}

// fakeStore is an in-memory Store mirroring the Postgres semantics the engine
// relies on: the run lock, the due-subscription filters per trigger, and the
// unique invoice-per-period constraint.
type fakeStore struct {
	mu       sync.Mutex
	lockHeld bool

	subs     map[int64]*models.Subscription
	meta     map[int64]dueMeta
	invoices map[int64]*models.Invoice
	items    []*models.InvoiceItem
	txns     []*models.Transaction
	nextID   int64

	now time.Time

	failInsertWithDuplicate bool
}

func newFakeStore(now time.Time) *fakeStore {
	return &fakeStore{
		subs:     map[int64]*models.Subscription{},
		meta:     map[int64]dueMeta{},
		invoices: map[int64]*models.Invoice{},
		now:      now,
	}
}

func (f *fakeStore) addSub(sub *models.Subscription, m dueMeta) {
	f.subs[sub.ID] = sub
	f.meta[sub.ID] = m
}

func (f *fakeStore) addInvoice(inv *models.Invoice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	inv.ID = f.nextID
	f.invoices[inv.ID] = inv
}

func (f *fakeStore) WithRunLock(_ context.Context, fn func() error) error {
	f.mu.Lock()
	if f.lockHeld {
		f.mu.Unlock()
		return ErrRunInProgress
	}
	f.lockHeld = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.lockHeld = false
		f.mu.Unlock()
	}()
	return fn()
}

func (f *fakeStore) ListDue(_ context.Context, today time.Time, trigger Trigger) ([]*DueSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*DueSubscription
	var ids []int64
	for id := range f.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		sub := f.subs[id]
		switch trigger {
		case TriggerScheduled:
			if !sub.NextBillingDate.Equal(today) || !sub.Status.Billable() || !sub.AutoRenew {
				continue
			}
		default:
			if sub.Status != types.SubscriptionStatusActive || sub.NextBillingDate.After(today) {
				continue
			}
		}
		m := f.meta[id]
		out = append(out, &DueSubscription{
			Subscription: *sub,
			Email:        m.email,
			PlanName:     m.planName,
			MonthlyPrice: m.monthlyPrice,
			PeriodDays:   m.periodDays,
			Payment:      m.payment,
		})
	}
	return out, nil
}

func (f *fakeStore) InvoiceForPeriod(_ context.Context, userID, subscriptionID int64, start, end time.Time) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invoices {
		if inv.UserID == userID && inv.SubscriptionID == subscriptionID &&
			inv.BillingPeriodStart.Equal(dateOf(start)) && inv.BillingPeriodEnd.Equal(dateOf(end)) {
			return inv, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) PendingInvoicesBefore(_ context.Context, userID, subscriptionID int64, before time.Time) ([]*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Invoice
	for _, inv := range f.invoices {
		if inv.UserID == userID && inv.SubscriptionID == subscriptionID &&
			inv.Status == types.InvoiceStatusPending && inv.CreatedAt.Before(before) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) CreateInvoice(_ context.Context, inv *models.Invoice, item *models.InvoiceItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertWithDuplicate {
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range f.invoices {
		if existing.UserID == inv.UserID && existing.SubscriptionID == inv.SubscriptionID &&
			existing.BillingPeriodStart.Equal(inv.BillingPeriodStart) && existing.BillingPeriodEnd.Equal(inv.BillingPeriodEnd) {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	inv.ID = f.nextID
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = f.now
	}
	f.invoices[inv.ID] = inv
	item.InvoiceID = inv.ID
	f.items = append(f.items, item)
	return nil
}

func (f *fakeStore) MarkInvoicePaid(_ context.Context, invoiceID int64, paidAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv := f.invoices[invoiceID]
	inv.Status = types.InvoiceStatusPaid
	inv.PaidAt = &paidAt
	return nil
}

func (f *fakeStore) MarkInvoiceFailed(_ context.Context, invoiceID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoices[invoiceID].Status = types.InvoiceStatusFailed
	return nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, txn *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txns = append(f.txns, txn)
	return nil
}

func (f *fakeStore) AdvancePeriod(_ context.Context, subscriptionID int64, start, end, nextBilling time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := f.subs[subscriptionID]
	sub.CurrentPeriodStart = start
	sub.CurrentPeriodEnd = end
	sub.NextBillingDate = nextBilling
	return nil
}

func (f *fakeStore) SetSubscriptionStatus(_ context.Context, subscriptionID int64, status types.SubscriptionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[subscriptionID].Status = status
	return nil
}

type fakeCharger struct {
	mu       sync.Mutex
	requests []omise.ChargeRequest
	result   *omise.ChargeResult
	err      error
}

func (c *fakeCharger) Charge(_ context.Context, req omise.ChargeRequest) (*omise.ChargeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

func newTestEngine(store Store, charger omise.Charger, today time.Time) *Engine {
	return &Engine{
		store:    store,
		charger:  charger,
		log:      zap.NewNop().Sugar(),
		currency: "THB",
		now:      func() time.Time { return today },
	}
}

func activeSub(id, userID int64, periodStart, periodEnd time.Time) *models.Subscription {
	return &models.Subscription{
		ID:                 id,
		UserID:             userID,
		PlanID:             1,
		Status:             types.SubscriptionStatusActive,
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
		NextBillingDate:    periodEnd,
		AutoRenew:          true,
	}
}

func basicMeta(card bool) dueMeta {
	m := dueMeta{email: "a@example.com", planName: "Basic", monthlyPrice: 299, periodDays: 30}
	if card {
		m.payment = &models.PaymentMethod{ID: 11, UserID: 7, CustomerToken: "cust_1", CardToken: "card_1", IsDefault: true}
	}
	return m
}

func TestEngine_Run_ChargesAndAdvancesPeriod(t *testing.T) {
	today := day(2026, 1, 31)
	store := newFakeStore(today)
	store.addSub(activeSub(3, 7, day(2026, 1, 1), day(2026, 1, 31)), basicMeta(true))
	charger := &fakeCharger{result: &omise.ChargeResult{ID: "chrg_1", Status: types.ChargeStatusSuccessful}}

	summary, err := newTestEngine(store, charger, today).Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Total)
	require.Equal(t, 1, summary.Successful)
	require.Equal(t, 0, summary.Failed)

	out := summary.Details[0]
	require.Equal(t, OutcomeSuccess, out.Status)
	require.Equal(t, "INV-20260131-00007-3", out.InvoiceNumber)
	require.Equal(t, "chrg_1", out.TransactionID)

	inv := store.invoices[out.InvoiceID]
	require.Equal(t, types.InvoiceStatusPaid, inv.Status)
	require.NotNil(t, inv.PaidAt)
	require.Equal(t, int64(299), inv.Total)
	require.Equal(t, day(2026, 2, 3), inv.DueDate)

	require.Len(t, store.txns, 1)
	require.Equal(t, "chrg_1", store.txns[0].ChargeID)

	sub := store.subs[3]
	require.Equal(t, day(2026, 1, 31), sub.CurrentPeriodStart)
	require.Equal(t, day(2026, 3, 2), sub.CurrentPeriodEnd)
	require.Equal(t, day(2026, 3, 3), sub.NextBillingDate)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)

	require.Len(t, charger.requests, 1)
	require.Equal(t, "INV-20260131-00007-3", charger.requests[0].IdempotencyKey)
	require.Equal(t, "cust_1", charger.requests[0].CustomerToken)
}

func TestEngine_Run_SecondRunFindsNothingDue(t *testing.T) {
	today := day(2026, 1, 31)
	store := newFakeStore(today)
	store.addSub(activeSub(3, 7, day(2026, 1, 1), day(2026, 1, 31)), basicMeta(true))
	charger := &fakeCharger{result: &omise.ChargeResult{ID: "chrg_1", Status: types.ChargeStatusSuccessful}}
	e := newTestEngine(store, charger, today)

	_, err := e.Run(context.Background(), TriggerManual)
	require.NoError(t, err)

	summary, err := e.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, 0, summary.Total)
	require.Len(t, store.invoices, 1)
	require.Len(t, charger.requests, 1)
}

func TestEngine_Run_ExistingInvoiceSkipsWithoutCharge(t *testing.T) {
	today := day(2026, 1, 31)
	store := newFakeStore(today)
	store.addSub(activeSub(3, 7, day(2026, 1, 1), day(2026, 1, 31)), basicMeta(true))
	store.addInvoice(&models.Invoice{
		InvoiceNumber:      "INV-20260131-00007-3",
		UserID:             7,
		SubscriptionID:     3,
		Status:             types.InvoiceStatusPaid,
		BillingPeriodStart: day(2026, 1, 1),
		BillingPeriodEnd:   day(2026, 1, 31),
		CreatedAt:          today,
	})
	charger := &fakeCharger{result: &omise.ChargeResult{ID: "chrg_x", Status: types.ChargeStatusSuccessful}}

	summary, err := newTestEngine(store, charger, today).Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Total)
	require.Equal(t, 0, summary.Successful)
	require.Equal(t, 0, summary.Failed)
	require.Equal(t, OutcomeSkippedExistingInvoice, summary.Details[0].Status)
	require.Empty(t, charger.requests)
	require.Len(t, store.invoices, 1)
}

func TestEngine_Run_NoCardLeavesInvoiceForManualPayment(t *testing.T) {
	today := day(2026, 1, 31)
	store := newFakeStore(today)
	store.addSub(activeSub(3, 7, day(2026, 1, 1), day(2026, 1, 31)), basicMeta(false))
	charger := &fakeCharger{}

	summary, err := newTestEngine(store, charger, today).Run(context.Background(), TriggerManual)
	require.NoError(t, err)

	out := summary.Details[0]
	require.Equal(t, OutcomePendingManualPayment, out.Status)
	require.Equal(t, "2026-02-03", out.DueDate)
	require.Empty(t, charger.requests)
	require.Empty(t, store.txns)

	inv := store.invoices[out.InvoiceID]
	require.Equal(t, types.InvoiceStatusPending, inv.Status)

	// The period still advances so the customer keeps access while paying
	// out of band.
	sub := store.subs[3]
	require.Equal(t, day(2026, 3, 2), sub.CurrentPeriodEnd)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)
}

func TestEngine_Run_DeclinePausesSubscriptionAndFailsInvoice(t *testing.T) {
	today := day(2026, 1, 31)
	store := newFakeStore(today)
	store.addSub(activeSub(3, 7, day(2026, 1, 1), day(2026, 1, 31)), basicMeta(true))
	charger := &fakeCharger{result: &omise.ChargeResult{Status: types.ChargeStatusFailed, FailureMessage: "insufficient_fund"}}

	summary, err := newTestEngine(store, charger, today).Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Failed)

	out := summary.Details[0]
	require.Equal(t, OutcomeFailed, out.Status)
	require.Contains(t, out.Error, "insufficient_fund")

	require.Equal(t, types.SubscriptionStatusPaused, store.subs[3].Status)
	require.Equal(t, types.InvoiceStatusFailed, store.invoices[out.InvoiceID].Status)
	require.Empty(t, store.txns)
	// Period must not advance for an unpaid cycle.
	require.Equal(t, day(2026, 1, 31), store.subs[3].CurrentPeriodEnd)
}

func TestEngine_Run_GatewayErrorPausesSubscription(t *testing.T) {
	today := day(2026, 1, 31)
	store := newFakeStore(today)
	store.addSub(activeSub(3, 7, day(2026, 1, 1), day(2026, 1, 31)), basicMeta(true))
	charger := &fakeCharger{err: errors.New("connection reset")}

	summary, err := newTestEngine(store, charger, today).Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, OutcomeFailed, summary.Details[0].Status)
	require.Equal(t, types.SubscriptionStatusPaused, store.subs[3].Status)
}

func TestEngine_Run_StalePendingInvoiceSuspends(t *testing.T) {
	today := day(2026, 2, 15)
	store := newFakeStore(today)
	store.addSub(activeSub(3, 7, day(2026, 1, 15), day(2026, 2, 14)), basicMeta(true))
	store.addInvoice(&models.Invoice{
		InvoiceNumber:      "INV-20260114-00007-3",
		UserID:             7,
		SubscriptionID:     3,
		Status:             types.InvoiceStatusPending,
		BillingPeriodStart: day(2025, 12, 15),
		BillingPeriodEnd:   day(2026, 1, 14),
		CreatedAt:          day(2026, 1, 14),
	})
	charger := &fakeCharger{}

	summary, err := newTestEngine(store, charger, today).Run(context.Background(), TriggerManual)
	require.NoError(t, err)

	out := summary.Details[0]
	require.Equal(t, OutcomeSuspended, out.Status)
	require.Equal(t, "INV-20260114-00007-3", out.OldestInvoice)
	require.Equal(t, 1, out.PendingCount)
	require.Equal(t, types.SubscriptionStatusSuspended, store.subs[3].Status)
	require.Empty(t, charger.requests)
	require.Len(t, store.invoices, 1)
	// Suspensions count in neither tally.
	require.Equal(t, 0, summary.Successful)
	require.Equal(t, 0, summary.Failed)
}

func TestEngine_Run_PendingWithinGraceDefers(t *testing.T) {
	today := day(2026, 2, 15)
	store := newFakeStore(today)
	sub := activeSub(3, 7, day(2026, 2, 12), day(2026, 3, 14))
	sub.NextBillingDate = day(2026, 2, 14)
	store.addSub(sub, basicMeta(true))
	store.addInvoice(&models.Invoice{
		InvoiceNumber:      "INV-20260210-00007-3",
		UserID:             7,
		SubscriptionID:     3,
		Status:             types.InvoiceStatusPending,
		BillingPeriodStart: day(2026, 1, 13),
		BillingPeriodEnd:   day(2026, 2, 12),
		CreatedAt:          day(2026, 2, 10),
	})

	summary, err := newTestEngine(store, &fakeCharger{}, today).Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, OutcomeSkippedPending, summary.Details[0].Status)
	require.Equal(t, types.SubscriptionStatusActive, store.subs[3].Status)
	require.Len(t, store.invoices, 1)
}

func TestEngine_Run_LockContention(t *testing.T) {
	today := day(2026, 1, 31)
	store := newFakeStore(today)
	store.lockHeld = true

	_, err := newTestEngine(store, &fakeCharger{}, today).Run(context.Background(), TriggerManual)
	require.ErrorIs(t, err, ErrRunInProgress)
}

func TestEngine_Run_DuplicateInsertRaceTreatedAsSkip(t *testing.T) {
	today := day(2026, 1, 31)
	store := newFakeStore(today)
	store.addSub(activeSub(3, 7, day(2026, 1, 1), day(2026, 1, 31)), basicMeta(true))
	store.failInsertWithDuplicate = true
	charger := &fakeCharger{}

	summary, err := newTestEngine(store, charger, today).Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	require.Equal(t, OutcomeSkippedExistingInvoice, summary.Details[0].Status)
	require.Empty(t, charger.requests)
	require.Equal(t, types.SubscriptionStatusActive, store.subs[3].Status)
}

func TestEngine_Run_ScheduledTriggerSelection(t *testing.T) {
	today := day(2026, 1, 31)
	store := newFakeStore(today)

	// Due today, auto-renewing trial: picked up and activated after charge.
	trial := activeSub(1, 7, day(2026, 1, 1), day(2026, 1, 31))
	trial.Status = types.SubscriptionStatusTrial
	store.addSub(trial, basicMeta(true))

	// Auto-renew off: scheduled run must not touch it.
	noRenew := activeSub(2, 8, day(2026, 1, 1), day(2026, 1, 31))
	noRenew.AutoRenew = false
	store.addSub(noRenew, dueMeta{email: "b@example.com", planName: "Basic", monthlyPrice: 299, periodDays: 30})

	// Past-due subscription: manual sweep territory, not the daily job's.
	pastDue := activeSub(4, 9, day(2025, 12, 1), day(2025, 12, 31))
	store.addSub(pastDue, dueMeta{email: "c@example.com", planName: "Basic", monthlyPrice: 299, periodDays: 30})

	charger := &fakeCharger{result: &omise.ChargeResult{ID: "chrg_t", Status: types.ChargeStatusPending}}
	summary, err := newTestEngine(store, charger, today).Run(context.Background(), TriggerScheduled)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Total)
	require.Equal(t, 1, summary.Successful)

	// A settled charge on a trial promotes it.
	require.Equal(t, types.SubscriptionStatusActive, store.subs[1].Status)
	require.Equal(t, types.SubscriptionStatusActive, store.subs[2].Status)
	require.Equal(t, day(2026, 1, 31), store.subs[2].CurrentPeriodEnd)
}
