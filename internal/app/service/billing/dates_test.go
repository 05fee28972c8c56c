package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDaysBetween_IgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2026, 2, 8, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, 2, 15, 0, 1, 0, 0, time.UTC)
	require.Equal(t, 7, daysBetween(a, b))
	require.Equal(t, -7, daysBetween(b, a))
	require.Equal(t, 0, daysBetween(b, b))
}

func TestNextPeriod_RollsForwardFromOldEnd(t *testing.T) {
	start, end, next := nextPeriod(day(2026, 1, 31), 30)
	require.Equal(t, day(2026, 1, 31), start)
	require.Equal(t, day(2026, 3, 2), end)
	require.Equal(t, day(2026, 3, 3), next)
}

func TestNextPeriod_DefaultsToThirtyDays(t *testing.T) {
	_, end, _ := nextPeriod(day(2026, 1, 1), 0)
	require.Equal(t, day(2026, 1, 31), end)

	_, end, _ = nextPeriod(day(2026, 1, 1), -5)
	require.Equal(t, day(2026, 1, 31), end)
}

func TestNextPeriod_CustomPeriodLength(t *testing.T) {
	start, end, next := nextPeriod(day(2026, 6, 15), 7)
	require.Equal(t, day(2026, 6, 15), start)
	require.Equal(t, day(2026, 6, 22), end)
	require.Equal(t, day(2026, 6, 23), next)
}
