package models

import (
	"time"

	"github.com/autobot/backoffice/pkg/types"

	"gorm.io/datatypes"
)

// Transaction records one gateway charge attempt against an invoice.
// Rows are append-only; a retried charge gets a new row.
type Transaction struct {
	ID              string  `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	InvoiceID       int64   `gorm:"column:invoice_id;not null;index" json:"invoice_id"`
	PaymentMethodID *int64  `gorm:"column:payment_method_id" json:"payment_method_id"`
	// ChargeID is the gateway-side charge identifier.
	ChargeID       string             `gorm:"column:charge_id;type:varchar(64);not null;uniqueIndex" json:"charge_id"`
	Amount         int64              `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Currency       string             `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Status         types.ChargeStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	FailureMessage *string            `gorm:"column:failure_message;type:varchar(255)" json:"failure_message"`
	Metadata       datatypes.JSONMap  `gorm:"column:metadata;type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt      time.Time          `json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
