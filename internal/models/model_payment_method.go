package models

import "time"

// PaymentMethod is a saved card reference at the gateway. The billing engine
// only reads these; card management happens in the customer portal.
type PaymentMethod struct {
	ID     int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"column:user_id;not null;index" json:"user_id"`
	// CustomerToken/CardToken are the gateway customer and card identifiers.
	CustomerToken string    `gorm:"column:omise_customer_id;type:varchar(64);not null" json:"omise_customer_id"`
	CardToken     string    `gorm:"column:omise_card_id;type:varchar(64);not null" json:"omise_card_id"`
	CardBrand     string    `gorm:"column:card_brand;type:varchar(32)" json:"card_brand"`
	CardLast4     string    `gorm:"column:card_last4;type:varchar(4)" json:"card_last4"`
	IsDefault     bool      `gorm:"column:is_default;default:false" json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}
