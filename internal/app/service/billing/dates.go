package billing

import "time"

// All billing arithmetic is calendar-day based: dates are normalized to UTC
// midnight and differences are counted in whole days.

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the number of whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(dateOf(b).Sub(dateOf(a)).Hours() / 24)
}

// nextPeriod rolls a billing period forward: the new period starts where the
// old one ended and the next billing date is the day after the new end.
func nextPeriod(oldPeriodEnd time.Time, periodDays int) (start, end, nextBilling time.Time) {
	if periodDays <= 0 {
		periodDays = 30
	}
	start = dateOf(oldPeriodEnd)
	end = start.AddDate(0, 0, periodDays)
	nextBilling = end.AddDate(0, 0, 1)
	return start, end, nextBilling
}
