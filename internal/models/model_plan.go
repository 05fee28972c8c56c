package models

import "time"

const DefaultBillingPeriodDays = 30

// SubscriptionPlan is a sellable package. MonthlyPrice is in whole THB.
type SubscriptionPlan struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"column:name;type:varchar(128);not null" json:"name"`
	MonthlyPrice int64  `gorm:"column:monthly_price;type:bigint;not null" json:"monthly_price"`
	// BillingPeriodDays of zero means the plan predates the column; callers
	// must go through PeriodDays() instead of reading the field directly.
	BillingPeriodDays int       `gorm:"column:billing_period_days;default:30" json:"billing_period_days"`
	IncludedRequests  int64     `gorm:"column:included_requests;type:bigint;default:0" json:"included_requests"`
	OverageRate       int64     `gorm:"column:overage_rate;type:bigint;default:0" json:"overage_rate"`
	IsActive          bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

// PeriodDays returns the billing period length, falling back to 30 days when
// the plan has no configured period.
func (p *SubscriptionPlan) PeriodDays() int {
	if p == nil || p.BillingPeriodDays <= 0 {
		return DefaultBillingPeriodDays
	}
	return p.BillingPeriodDays
}
