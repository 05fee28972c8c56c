package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/autobot/backoffice/internal/models"
	plansvc "github.com/autobot/backoffice/internal/app/service/plan"
	"github.com/autobot/backoffice/pkg/logctx"
	"github.com/autobot/backoffice/pkg/types"
)

const maxExtendDays = 3650

var (
	ErrUserNotFound = errors.New("user not found")
	ErrPlanNotFound = errors.New("plan not found")
	ErrPlanInactive = errors.New("plan is not active")
	ErrInvalidDays  = errors.New("days must be between 1 and 3650")
)

// Service implements the admin-facing subscription operations. It is a
// separate writer from the billing engine; each mutation runs in its own
// transaction so cancel-old plus insert-new is all-or-nothing.
type Service struct {
	db    *gorm.DB
	plans *plansvc.Service
	log   *zap.SugaredLogger
}

func NewService(db *gorm.DB, plans *plansvc.Service, log *zap.SugaredLogger) *Service {
	return &Service{db: db, plans: plans, log: log}
}

type AssignResult struct {
	SubscriptionID int64 `json:"subscription_id"`
	UserID         int64 `json:"user_id"`
	PlanID         int64 `json:"plan_id"`
	Unchanged      bool  `json:"unchanged,omitempty"`
}

// Assign gives a user a plan, cancelling any other active subscription in
// the same transaction. Assigning the already-active plan is a no-op.
func (s *Service) Assign(ctx context.Context, userID, planID int64) (*AssignResult, error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}
	p, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPlanNotFound
	}
	if !p.IsActive {
		return nil, ErrPlanInactive
	}

	res := &AssignResult{UserID: userID, PlanID: planID}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := activeSubscription(ctx, tx, userID)
		if err != nil {
			return err
		}
		ap := planAssign(userID, current, p, time.Now())
		if ap.Unchanged {
			res.SubscriptionID = current.ID
			res.Unchanged = true
			return nil
		}
		if ap.CancelID != 0 {
			now := time.Now()
			if err := tx.Model(&models.Subscription{}).
				Where("id = ?", ap.CancelID).
				Updates(map[string]any{
					"status":       types.SubscriptionStatusCancelled,
					"cancelled_at": now,
				}).Error; err != nil {
				return fmt.Errorf("cancel previous subscription: %w", err)
			}
		}
		if err := tx.Create(ap.NewSub).Error; err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		res.SubscriptionID = ap.NewSub.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("plan assigned",
		"user_id", userID, "plan_id", planID, "subscription_id", res.SubscriptionID, "unchanged", res.Unchanged)
	return res, nil
}

type ExtendResult struct {
	UserID         int64  `json:"user_id"`
	SubscriptionID int64  `json:"subscription_id"`
	PlanID         int64  `json:"plan_id,omitempty"`
	PlanName       string `json:"plan_name,omitempty"`
	OldEndDate     string `json:"old_end_date,omitempty"`
	NewEndDate     string `json:"new_end_date"`
	DaysAdded      int    `json:"days_added"`
	Created        bool   `json:"created,omitempty"`
}

// Extend pushes the user's active subscription forward by days, anchored at
// max(current period end, today). Without an active subscription a new one
// is created from today on the cheapest active plan with auto-renew off.
func (s *Service) Extend(ctx context.Context, userID int64, days int) (*ExtendResult, error) {
	if days < 1 || days > maxExtendDays {
		return nil, ErrInvalidDays
	}
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}

	res := &ExtendResult{UserID: userID, DaysAdded: days}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := activeSubscription(ctx, tx, userID)
		if err != nil {
			return err
		}
		today := time.Now()

		if current != nil {
			base := extendAnchor(current.CurrentPeriodEnd, today)
			newEnd := base.AddDate(0, 0, days)
			if err := tx.Model(&models.Subscription{}).
				Where("id = ?", current.ID).
				Updates(map[string]any{
					"current_period_end": newEnd,
					"next_billing_date":  newEnd,
				}).Error; err != nil {
				return fmt.Errorf("extend subscription: %w", err)
			}
			res.SubscriptionID = current.ID
			res.OldEndDate = dateOnly(current.CurrentPeriodEnd).Format(time.DateOnly)
			res.NewEndDate = newEnd.Format(time.DateOnly)
			return nil
		}

		p, err := s.plans.CheapestActive(ctx)
		if err != nil {
			return err
		}
		start := dateOnly(today)
		end := start.AddDate(0, 0, days)
		sub := &models.Subscription{
			UserID:             userID,
			PlanID:             p.ID,
			Status:             types.SubscriptionStatusActive,
			CurrentPeriodStart: start,
			CurrentPeriodEnd:   end,
			NextBillingDate:    end,
			AutoRenew:          false,
		}
		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		res.SubscriptionID = sub.ID
		res.PlanID = p.ID
		res.PlanName = p.Name
		res.NewEndDate = end.Format(time.DateOnly)
		res.Created = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("subscription extended",
		"user_id", userID, "days", days, "subscription_id", res.SubscriptionID, "created", res.Created)
	return res, nil
}

type Info struct {
	Subscription *models.Subscription    `json:"subscription"`
	Plan         *models.SubscriptionPlan `json:"plan,omitempty"`
	Invoices     []*models.Invoice       `json:"invoices"`
}

// Info returns the user's newest subscription with its plan and latest
// invoices, for the admin customer view.
func (s *Service) Info(ctx context.Context, userID int64) (*Info, error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup subscription: %w", err)
	}

	info := &Info{Subscription: &sub}
	if p, err := s.plans.Get(ctx, sub.PlanID); err == nil {
		info.Plan = p
	}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(10).
		Find(&info.Invoices).Error; err != nil {
		return nil, fmt.Errorf("lookup invoices: %w", err)
	}
	return info, nil
}

func (s *Service) userExists(ctx context.Context, userID int64) error {
	var u models.User
	err := s.db.WithContext(ctx).Select("id").Where("id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	return nil
}

func activeSubscription(ctx context.Context, tx *gorm.DB, userID int64) (*models.Subscription, error) {
	var sub models.Subscription
	err := tx.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, types.SubscriptionStatusActive).
		Order("id DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup active subscription: %w", err)
	}
	return &sub, nil
}
