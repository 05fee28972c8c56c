package subscription

import (
	"time"

	"github.com/autobot/backoffice/internal/models"
	"github.com/autobot/backoffice/pkg/types"
)

// The mutating admin operations are split into a pure planning step and a
// transactional apply step. The planners hold the invariant logic and are
// exercised directly by tests; Assign/Extend wrap them in one transaction.

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type assignPlan struct {
	// Unchanged means the requested plan is already active; nothing to do.
	Unchanged bool
	// CancelID is the subscription to soft-cancel before inserting, zero if
	// the user has no active subscription.
	CancelID int64
	NewSub   *models.Subscription
}

// planAssign computes the cancel+insert pair that keeps the at-most-one-
// active-subscription invariant. current is the user's active subscription
// or nil.
func planAssign(userID int64, current *models.Subscription, p *models.SubscriptionPlan, today time.Time) assignPlan {
	if current != nil && current.PlanID == p.ID {
		return assignPlan{Unchanged: true}
	}
	start := dateOnly(today)
	end := start.AddDate(0, 0, p.PeriodDays())
	out := assignPlan{
		NewSub: &models.Subscription{
			UserID:             userID,
			PlanID:             p.ID,
			Status:             types.SubscriptionStatusActive,
			CurrentPeriodStart: start,
			CurrentPeriodEnd:   end,
			NextBillingDate:    end,
			AutoRenew:          true,
		},
	}
	if current != nil {
		out.CancelID = current.ID
	}
	return out
}

// extendAnchor picks the base date for an extension: the current period end,
// unless it already lies in the past, in which case today. Extending a lapsed
// subscription from its stale end date would silently eat the purchased days.
func extendAnchor(currentPeriodEnd, today time.Time) time.Time {
	end := dateOnly(currentPeriodEnd)
	now := dateOnly(today)
	if end.Before(now) {
		return now
	}
	return end
}
