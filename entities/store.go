package entities

import (
	"github.com/google/uuid"
)

type Store struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	HouseholdID uuid.UUID `gorm:"type:uuid;index" json:"household_id"`
	Name        string    `json:"name"` // canonical display name
	LegalNames  []string  `gorm:"serializer:json" json:"legal_names"`
	Aliases     []string  `gorm:"serializer:json" json:"aliases"`
	City        *string   `json:"city,omitempty"`
	Tags        []string  `gorm:"serializer:json" json:"tags,omitempty"`

	Timestamp
}
