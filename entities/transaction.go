package entities

import (
	"time"

	"github.com/google/uuid"
)

const (
	TransactionStatusPending = "pending"
	TransactionStatusPosted  = "posted"

	TransactionSourceManual     = "manual"
	TransactionSourceTelegram   = "telegram"
	TransactionSourceReceipt    = "receipt"
	TransactionSourceCommitment = "commitment"
)

type Transaction struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	HouseholdID uuid.UUID  `gorm:"type:uuid;index" json:"household_id"`
	OccurredOn  time.Time  `json:"occurred_on"`
	Amount      int64      `json:"amount"` // positive = income, negative = expense
	Description string     `json:"description"`
	CategoryID  *uuid.UUID `gorm:"type:uuid" json:"category_id,omitempty"`
	AccountID   uuid.UUID  `gorm:"type:uuid" json:"account_id"`
	Status      string     `json:"status"` // "pending", "posted"
	Source      string     `json:"source"` // "manual", "telegram", "receipt", "commitment"
	ReceiptID   *uuid.UUID `gorm:"type:uuid;index" json:"receipt_id,omitempty"`

	Timestamp
}
