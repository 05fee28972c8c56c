package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubscriptionStatus_Billable(t *testing.T) {
	require.True(t, SubscriptionStatusTrial.Billable())
	require.True(t, SubscriptionStatusActive.Billable())
	require.False(t, SubscriptionStatusPaused.Billable())
	require.False(t, SubscriptionStatusSuspended.Billable())
	require.False(t, SubscriptionStatusCancelled.Billable())
}

func TestChargeStatus_Settled(t *testing.T) {
	require.True(t, ChargeStatusSuccessful.Settled())
	require.True(t, ChargeStatusPending.Settled())
	require.False(t, ChargeStatusFailed.Settled())
	require.False(t, ChargeStatus("expired").Settled())
}
