package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/autobot/backoffice/internal/models"
	"github.com/autobot/backoffice/pkg/types"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPlanAssign_SamePlanIsNoOp(t *testing.T) {
	current := &models.Subscription{ID: 5, UserID: 7, PlanID: 2, Status: types.SubscriptionStatusActive}
	p := &models.SubscriptionPlan{ID: 2, BillingPeriodDays: 30}

	got := planAssign(7, current, p, day(2026, 2, 15))
	require.True(t, got.Unchanged)
	require.Nil(t, got.NewSub)
	require.Zero(t, got.CancelID)
}

func TestPlanAssign_SwitchCancelsCurrent(t *testing.T) {
	current := &models.Subscription{ID: 5, UserID: 7, PlanID: 2, Status: types.SubscriptionStatusActive}
	p := &models.SubscriptionPlan{ID: 3, BillingPeriodDays: 30}

	got := planAssign(7, current, p, day(2026, 2, 15))
	require.False(t, got.Unchanged)
	require.Equal(t, int64(5), got.CancelID)
	require.Equal(t, int64(3), got.NewSub.PlanID)
	require.Equal(t, types.SubscriptionStatusActive, got.NewSub.Status)
	require.Equal(t, day(2026, 2, 15), got.NewSub.CurrentPeriodStart)
	require.Equal(t, day(2026, 3, 17), got.NewSub.CurrentPeriodEnd)
	require.Equal(t, day(2026, 3, 17), got.NewSub.NextBillingDate)
	require.True(t, got.NewSub.AutoRenew)
}

func TestPlanAssign_FirstSubscription(t *testing.T) {
	p := &models.SubscriptionPlan{ID: 1, BillingPeriodDays: 0}

	got := planAssign(9, nil, p, time.Date(2026, 2, 15, 18, 30, 0, 0, time.UTC))
	require.Zero(t, got.CancelID)
	// Zero period length falls back to thirty days, anchored at midnight.
	require.Equal(t, day(2026, 2, 15), got.NewSub.CurrentPeriodStart)
	require.Equal(t, day(2026, 3, 17), got.NewSub.CurrentPeriodEnd)
}

func TestExtendAnchor_FutureEndExtendsFromEnd(t *testing.T) {
	got := extendAnchor(day(2026, 3, 1), day(2026, 2, 15))
	require.Equal(t, day(2026, 3, 1), got)
}

func TestExtendAnchor_LapsedEndExtendsFromToday(t *testing.T) {
	got := extendAnchor(day(2026, 1, 10), day(2026, 2, 15))
	require.Equal(t, day(2026, 2, 15), got)
}

func TestExtendAnchor_EndingTodayExtendsFromToday(t *testing.T) {
	got := extendAnchor(day(2026, 2, 15), day(2026, 2, 15))
	require.Equal(t, day(2026, 2, 15), got)
}
