package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/autobot/backoffice/internal/models"
	"github.com/autobot/backoffice/pkg/types"
)

// Service aggregates the numbers shown on the admin billing dashboard.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type DashboardStats struct {
	SubscriptionsByStatus map[string]int64 `json:"subscriptions_by_status"`
	RevenueThisMonth      int64            `json:"revenue_this_month"`
	PendingInvoiceCount   int64            `json:"pending_invoice_count"`
	PendingInvoiceTotal   int64            `json:"pending_invoice_total"`
	SuspendedCount        int64            `json:"suspended_count"`
}

func (s *Service) subscriptionsByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []statusCount
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return lo.SliceToMap(rows, func(r statusCount) (string, int64) { return r.Status, r.Count }), nil
}

func (s *Service) revenueThisMonth(ctx context.Context, now time.Time) (int64, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	var total *int64
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Select("sum(total)").
		Where("status = ? AND paid_at >= ?", types.InvoiceStatusPaid, monthStart).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (s *Service) pendingInvoices(ctx context.Context) (count, total int64, err error) {
	row := struct {
		Count int64
		Total *int64
	}{}
	err = s.db.WithContext(ctx).Model(&models.Invoice{}).
		Select("count(*) as count, sum(total) as total").
		Where("status = ?", types.InvoiceStatusPending).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	if row.Total != nil {
		total = *row.Total
	}
	return row.Count, total, nil
}

// Dashboard runs the independent aggregates concurrently and assembles the
// admin overview.
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	out := &DashboardStats{}
	var wg sync.WaitGroup
	errChan := make(chan error, 3)

	wg.Add(3)
	go func() {
		defer wg.Done()
		byStatus, err := s.subscriptionsByStatus(ctx)
		if err != nil {
			errChan <- fmt.Errorf("subscriptions by status: %w", err)
			return
		}
		out.SubscriptionsByStatus = byStatus
		out.SuspendedCount = byStatus[string(types.SubscriptionStatusSuspended)]
	}()
	go func() {
		defer wg.Done()
		revenue, err := s.revenueThisMonth(ctx, time.Now())
		if err != nil {
			errChan <- fmt.Errorf("revenue this month: %w", err)
			return
		}
		out.RevenueThisMonth = revenue
	}()
	go func() {
		defer wg.Done()
		count, total, err := s.pendingInvoices(ctx)
		if err != nil {
			errChan <- fmt.Errorf("pending invoices: %w", err)
			return
		}
		out.PendingInvoiceCount = count
		out.PendingInvoiceTotal = total
	}()

	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
