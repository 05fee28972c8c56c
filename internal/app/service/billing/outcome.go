package billing

// OutcomeStatus classifies the result of processing one due subscription.
type OutcomeStatus string

const (
	OutcomeSuccess                OutcomeStatus = "success"
	OutcomeSkippedExistingInvoice OutcomeStatus = "skipped_existing_invoice"
	OutcomeSkippedPending         OutcomeStatus = "skipped_pending"
	OutcomeSuspended              OutcomeStatus = "suspended"
	OutcomePendingManualPayment   OutcomeStatus = "pending_manual_payment"
	OutcomeFailed                 OutcomeStatus = "failed"
)

// Outcome is the per-subscription detail record of a billing run. Optional
// fields are populated depending on Status.
type Outcome struct {
	UserID         int64         `json:"user_id"`
	SubscriptionID int64         `json:"subscription_id"`
	Email          string        `json:"email"`
	Package        string        `json:"package"`
	Amount         int64         `json:"amount"`
	Status         OutcomeStatus `json:"status"`
	Reason         string        `json:"reason,omitempty"`
	InvoiceID      int64         `json:"invoice_id,omitempty"`
	InvoiceNumber  string        `json:"invoice_number,omitempty"`
	InvoiceStatus  string        `json:"invoice_status,omitempty"`
	TransactionID  string        `json:"transaction_id,omitempty"`
	PendingCount   int           `json:"pending_count,omitempty"`
	OldestInvoice  string        `json:"oldest_invoice,omitempty"`
	DueDate        string        `json:"due_date,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// RunSummary is the aggregate result returned to the trigger (HTTP response
// body or cron log). Skips and suspensions count in neither tally; callers
// inspect Details for those.
type RunSummary struct {
	Total      int       `json:"total"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Details    []Outcome `json:"details"`
}
