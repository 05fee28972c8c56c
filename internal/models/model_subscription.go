package models

import (
	"time"

	"github.com/autobot/backoffice/pkg/types"
)

// Subscription ties a user to a plan for consecutive billing periods.
// Rows are never deleted; a replaced or ended subscription is soft-cancelled.
//
// Invariant: at most one subscription per user is in status "active" at any
// time. This is enforced inside the assign/extend transactions, with no
// matching database constraint, so every writer must go through those paths.
type Subscription struct {
	ID     int64                    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID int64                    `gorm:"column:user_id;not null;index" json:"user_id"`
	PlanID int64                    `gorm:"column:plan_id;not null" json:"plan_id"`
	Status types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	// CurrentPeriodStart/End bound the period the latest invoice covers.
	CurrentPeriodStart time.Time `gorm:"column:current_period_start;type:date;not null" json:"current_period_start"`
	CurrentPeriodEnd   time.Time `gorm:"column:current_period_end;type:date;not null" json:"current_period_end"`
	// NextBillingDate is the day the billing cycle will pick this row up.
	NextBillingDate time.Time  `gorm:"column:next_billing_date;type:date;not null;index" json:"next_billing_date"`
	AutoRenew       bool       `gorm:"column:auto_renew;default:false" json:"auto_renew"`
	CancelledAt     *time.Time `gorm:"column:cancelled_at;default:null" json:"cancelled_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

func (s *Subscription) IsActive() bool {
	return s != nil && s.Status == types.SubscriptionStatusActive
}
