package entities

import (
	"github.com/google/uuid"
)

type Household struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name string    `json:"name"`

	Timestamp
}

type Account struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	HouseholdID uuid.UUID `gorm:"type:uuid;index" json:"household_id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"` // "cash", "bank", "credit_card", "utility", "family_debt"
	Currency    string    `gorm:"default:CLP" json:"currency"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`

	Household *Household `gorm:"foreignKey:HouseholdID"`
	Timestamp
}

type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	HouseholdID uuid.UUID `gorm:"type:uuid;index" json:"household_id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"` // "income", "expense"
	Essential   bool      `json:"essential"`

	Household *Household `gorm:"foreignKey:HouseholdID"`
	Timestamp
}
