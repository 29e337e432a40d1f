package entities

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	HouseholdID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_products_household_name_norm" json:"household_id"`
	NameRaw     string    `json:"name_raw"`
	NameNorm    string    `gorm:"uniqueIndex:idx_products_household_name_norm" json:"name_norm"`
	UnitBase    string    `gorm:"default:unit" json:"unit_base"` // "kg", "g", "l", "ml", "unit"
	Category    *string   `json:"category,omitempty"`

	Timestamp
}

// ProductIndexEntry is the normalized-name lookup index for products.
// Entries are bucketed by the lowercase 3-character prefix of the
// normalized name so fuzzy matching only scans one bucket.
type ProductIndexEntry struct {
	ProductID   uuid.UUID `gorm:"type:uuid;primary_key" json:"product_id"`
	HouseholdID uuid.UUID `gorm:"type:uuid;index;index:idx_product_index_prefix" json:"household_id"`
	NameNorm    string    `gorm:"index" json:"name_norm"`
	Prefix      string    `gorm:"index:idx_product_index_prefix" json:"prefix"`
}

type ProductPrice struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	HouseholdID uuid.UUID  `gorm:"type:uuid;index" json:"household_id"`
	ProductID   uuid.UUID  `gorm:"type:uuid;index" json:"product_id"`
	StoreID     uuid.UUID  `gorm:"type:uuid;index" json:"store_id"`
	Date        time.Time  `json:"date"`
	Qty         float64    `json:"qty"`
	Unit        string     `json:"unit"`
	TotalPrice  int64      `json:"total_price"`
	UnitPrice   float64    `json:"unit_price"` // total_price / qty, 0 when qty is absent
	ReceiptID   *uuid.UUID `gorm:"type:uuid" json:"receipt_id,omitempty"`

	Timestamp
}
