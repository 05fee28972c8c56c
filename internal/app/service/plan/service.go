package plan

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/autobot/backoffice/internal/models"
)

// ErrNoActivePlan is returned when no plan is available to fall back to.
var ErrNoActivePlan = errors.New("no active plan available")

// Service provides read access to subscription plans.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*models.SubscriptionPlan, error) {
	q := s.db.WithContext(ctx).Order("monthly_price ASC")
	if activeOnly {
		q = q.Where("is_active")
	}
	var plans []*models.SubscriptionPlan
	if err := q.Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.SubscriptionPlan, error) {
	var p models.SubscriptionPlan
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &p, nil
}

// CheapestActive returns the most basic active plan, used as the default when
// an admin extends a user who has no subscription yet.
func (s *Service) CheapestActive(ctx context.Context) (*models.SubscriptionPlan, error) {
	var p models.SubscriptionPlan
	err := s.db.WithContext(ctx).
		Where("is_active").
		Order("monthly_price ASC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActivePlan
	}
	if err != nil {
		return nil, fmt.Errorf("lookup cheapest active plan: %w", err)
	}
	return &p, nil
}
