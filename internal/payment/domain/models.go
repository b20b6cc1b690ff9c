package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Payment is one journal entry against a contract. Entries are never
// updated in place: a mistaken payment is voided (soft-deleted) and a
// corrected one recorded, so the journal stays append-only.
type Payment struct {
	ID          snowflake.ID `gorm:"column:id;primaryKey" json:"id"`
	ContractID  snowflake.ID `gorm:"column:contract_id" json:"contract_id"`
	Amount      int64        `gorm:"column:amount" json:"amount"`
	Currency    string       `gorm:"column:currency" json:"currency"`
	PaymentDate time.Time    `gorm:"column:payment_date" json:"payment_date"`
	IsDeleted   bool         `gorm:"column:is_deleted" json:"is_deleted"`
	CreatedAt   time.Time    `gorm:"column:created_at" json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}
