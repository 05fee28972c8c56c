package models

import (
	"time"

	"github.com/autobot/backoffice/pkg/types"
)

// Invoice is one bill for one subscription billing period.
//
// The unique index over (user_id, subscription_id, billing_period_start,
// billing_period_end) is the duplicate-charge backstop: the billing engine
// checks before inserting, and the constraint catches a racing second run.
type Invoice struct {
	ID             int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	InvoiceNumber  string `gorm:"column:invoice_number;type:varchar(64);not null;uniqueIndex" json:"invoice_number"`
	UserID         int64  `gorm:"column:user_id;not null;uniqueIndex:uniq_invoice_period,priority:1" json:"user_id"`
	SubscriptionID int64  `gorm:"column:subscription_id;not null;uniqueIndex:uniq_invoice_period,priority:2" json:"subscription_id"`
	Amount         int64  `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Tax            int64  `gorm:"column:tax;type:bigint;default:0" json:"tax"`
	Total          int64  `gorm:"column:total;type:bigint;not null" json:"total"`
	Currency       string `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	// Status transitions pending -> paid or pending -> failed and is then
	// terminal except for manual admin correction.
	Status             types.InvoiceStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	BillingPeriodStart time.Time           `gorm:"column:billing_period_start;type:date;not null;uniqueIndex:uniq_invoice_period,priority:3" json:"billing_period_start"`
	BillingPeriodEnd   time.Time           `gorm:"column:billing_period_end;type:date;not null;uniqueIndex:uniq_invoice_period,priority:4" json:"billing_period_end"`
	DueDate            time.Time           `gorm:"column:due_date;type:date;not null" json:"due_date"`
	PaidAt             *time.Time          `gorm:"column:paid_at;default:null" json:"paid_at"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceItem is a single invoice line. Recurring billing writes exactly one
// line per invoice (the plan's monthly charge).
type InvoiceItem struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	InvoiceID   int64     `gorm:"column:invoice_id;not null;index" json:"invoice_id"`
	Description string    `gorm:"column:description;type:varchar(255);not null" json:"description"`
	Quantity    int       `gorm:"column:quantity;default:1" json:"quantity"`
	UnitPrice   int64     `gorm:"column:unit_price;type:bigint;not null" json:"unit_price"`
	Amount      int64     `gorm:"column:amount;type:bigint;not null" json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}
