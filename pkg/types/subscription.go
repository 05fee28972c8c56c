package types

type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Billable reports whether a subscription in this status may be picked up by
// the scheduled billing cycle.
func (s SubscriptionStatus) Billable() bool {
	return s == SubscriptionStatusTrial || s == SubscriptionStatusActive
}

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusFailed  InvoiceStatus = "failed"
)

// ChargeStatus is the status reported by the payment gateway for a charge.
type ChargeStatus string

const (
	ChargeStatusSuccessful ChargeStatus = "successful"
	ChargeStatusPending    ChargeStatus = "pending"
	ChargeStatusFailed     ChargeStatus = "failed"
)

// Settled reports whether the gateway result should be treated as payment
// received. Omise reports card charges as "pending" until async confirmation,
// so both statuses settle the invoice.
func (s ChargeStatus) Settled() bool {
	return s == ChargeStatusSuccessful || s == ChargeStatusPending
}
