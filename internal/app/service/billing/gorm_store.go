package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/autobot/backoffice/internal/models"
	"github.com/autobot/backoffice/pkg/types"
)

// runLockKey is an arbitrary but fixed advisory lock id shared by every
// process that can start a billing cycle.
const runLockKey = 7203001

// GormStore is the Postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// WithRunLock pins one pooled connection for the whole run so the advisory
// lock and its release happen on the same session.
func (s *GormStore) WithRunLock(ctx context.Context, fn func() error) error {
	return s.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		var locked bool
		if err := conn.Raw("SELECT pg_try_advisory_lock(?)", runLockKey).Scan(&locked).Error; err != nil {
			return fmt.Errorf("acquire billing run lock: %w", err)
		}
		if !locked {
			return ErrRunInProgress
		}
		defer conn.Exec("SELECT pg_advisory_unlock(?)", runLockKey)
		return fn()
	})
}

type dueRow struct {
	ID                 int64
	UserID             int64
	PlanID             int64
	Status             types.SubscriptionStatus
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	NextBillingDate    time.Time
	AutoRenew          bool
	Email              string
	FullName           string
	PlanName           string
	MonthlyPrice       int64
	PeriodDays         int
}

func (s *GormStore) ListDue(ctx context.Context, today time.Time, trigger Trigger) ([]*DueSubscription, error) {
	q := s.db.WithContext(ctx).Table("subscriptions AS s").
		Select(`s.id, s.user_id, s.plan_id, s.status,
			s.current_period_start, s.current_period_end, s.next_billing_date, s.auto_renew,
			u.email, u.full_name,
			p.name AS plan_name, p.monthly_price,
			COALESCE(NULLIF(p.billing_period_days, 0), 30) AS period_days`).
		Joins("JOIN users u ON u.id = s.user_id").
		Joins("JOIN subscription_plans p ON p.id = s.plan_id")

	switch trigger {
	case TriggerScheduled:
		q = q.Where("s.next_billing_date = ?", dateOf(today)).
			Where("s.status IN ?", []types.SubscriptionStatus{types.SubscriptionStatusTrial, types.SubscriptionStatusActive}).
			Where("s.auto_renew")
	default:
		q = q.Where("s.status = ?", types.SubscriptionStatusActive).
			Where("s.next_billing_date <= ?", dateOf(today))
	}

	var rows []dueRow
	if err := q.Order("s.id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Default cards resolved in one pass rather than per subscription.
	userIDs := make([]int64, 0, len(rows))
	for _, r := range rows {
		userIDs = append(userIDs, r.UserID)
	}
	var cards []*models.PaymentMethod
	if err := s.db.WithContext(ctx).
		Where("user_id IN ? AND is_default", userIDs).
		Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("load default payment methods: %w", err)
	}
	cardByUser := make(map[int64]*models.PaymentMethod, len(cards))
	for _, c := range cards {
		cardByUser[c.UserID] = c
	}

	due := make([]*DueSubscription, 0, len(rows))
	for _, r := range rows {
		due = append(due, &DueSubscription{
			Subscription: models.Subscription{
				ID:                 r.ID,
				UserID:             r.UserID,
				PlanID:             r.PlanID,
				Status:             r.Status,
				CurrentPeriodStart: r.CurrentPeriodStart,
				CurrentPeriodEnd:   r.CurrentPeriodEnd,
				NextBillingDate:    r.NextBillingDate,
				AutoRenew:          r.AutoRenew,
			},
			Email:        r.Email,
			FullName:     r.FullName,
			PlanName:     r.PlanName,
			MonthlyPrice: r.MonthlyPrice,
			PeriodDays:   r.PeriodDays,
			Payment:      cardByUser[r.UserID],
		})
	}
	return due, nil
}

func (s *GormStore) InvoiceForPeriod(ctx context.Context, userID, subscriptionID int64, start, end time.Time) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND subscription_id = ? AND billing_period_start = ? AND billing_period_end = ?",
			userID, subscriptionID, dateOf(start), dateOf(end)).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup invoice for period: %w", err)
	}
	return &inv, nil
}

func (s *GormStore) PendingInvoicesBefore(ctx context.Context, userID, subscriptionID int64, before time.Time) ([]*models.Invoice, error) {
	var invoices []*models.Invoice
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND subscription_id = ? AND status = ? AND created_at < ?",
			userID, subscriptionID, types.InvoiceStatusPending, before).
		Order("created_at ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("lookup pending invoices: %w", err)
	}
	return invoices, nil
}

func (s *GormStore) CreateInvoice(ctx context.Context, inv *models.Invoice, item *models.InvoiceItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
		item.InvoiceID = inv.ID
		return tx.Create(item).Error
	})
}

func (s *GormStore) MarkInvoicePaid(ctx context.Context, invoiceID int64, paidAt time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ?", invoiceID).
		Updates(map[string]any{"status": types.InvoiceStatusPaid, "paid_at": paidAt}).Error
}

func (s *GormStore) MarkInvoiceFailed(ctx context.Context, invoiceID int64) error {
	return s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ?", invoiceID).
		Update("status", types.InvoiceStatusFailed).Error
}

func (s *GormStore) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return s.db.WithContext(ctx).Create(txn).Error
}

func (s *GormStore) AdvancePeriod(ctx context.Context, subscriptionID int64, start, end, nextBilling time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", subscriptionID).
		Updates(map[string]any{
			"current_period_start": start,
			"current_period_end":   end,
			"next_billing_date":    nextBilling,
		}).Error
}

func (s *GormStore) SetSubscriptionStatus(ctx context.Context, subscriptionID int64, status types.SubscriptionStatus) error {
	return s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", subscriptionID).
		Update("status", status).Error
}
