package entities

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReceiptStatusUploaded    = "uploaded"
	ReceiptStatusExtracted   = "extracted"
	ReceiptStatusNeedsReview = "needs_review"
	ReceiptStatusConfirmed   = "confirmed"
	ReceiptStatusRejected    = "rejected"
)

type Receipt struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	HouseholdID   uuid.UUID  `gorm:"type:uuid;index" json:"household_id"`
	ImageURL      *string    `json:"image_url,omitempty"`
	ImagePath     *string    `json:"image_path,omitempty"`
	Status        string     `gorm:"index" json:"status"`
	StoreName     *string    `json:"store_name,omitempty"`
	StoreID       *uuid.UUID `gorm:"type:uuid" json:"store_id,omitempty"`
	OccurredOn    *time.Time `json:"occurred_on,omitempty"`
	Total         *int64     `json:"total,omitempty"`
	ExtractedJSON string     `gorm:"type:text" json:"extracted_json,omitempty"`
	IsManual      bool       `json:"is_manual"`
	CreatedBy     string     `json:"created_by"`

	Items []*ReceiptItem `gorm:"foreignKey:ReceiptID"`
	Timestamp
}

type ReceiptItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ReceiptID uuid.UUID  `gorm:"type:uuid;index" json:"receipt_id"`
	ProductID *uuid.UUID `gorm:"type:uuid" json:"product_id,omitempty"`
	NameRaw   string     `json:"name_raw"`
	NameClean *string    `json:"name_clean,omitempty"`
	NameBrand *string    `json:"name_brand,omitempty"`
	Qty       *float64   `json:"qty,omitempty"`
	Unit      *string    `json:"unit,omitempty"` // "kg", "g", "l", "ml", "unit"
	LineTotal *int64     `json:"line_total,omitempty"`
	UnitPrice *float64   `json:"unit_price,omitempty"`
	// Extraction confidence for this line, 0.0 to 1.0.
	Confidence float64 `json:"confidence"`

	Timestamp
}
