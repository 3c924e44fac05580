package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/pkg/enums"
)

// FoodListing is a batch of surplus food offered for pickup. One FoodItem
// row exists per unit of quantity; the listing status aggregates them.
type FoodListing struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID          `gorm:"column:organization_id;type:uuid;not null;index"`
	Title          string             `gorm:"type:text;not null"`
	Description    string             `gorm:"type:text;not null;default:''"`
	Category       enums.FoodCategory `gorm:"column:category;type:text;not null"`
	Unit           string             `gorm:"column:unit;type:text;not null"`
	Quantity       int                `gorm:"column:quantity;not null"`
	Status         enums.ListingStatus `gorm:"column:status;type:text;not null;default:'available';index"`
	PickupNotes    string             `gorm:"column:pickup_notes;type:text;not null;default:''"`
	AvailableFrom  time.Time          `gorm:"column:available_from;not null"`
	AvailableUntil time.Time          `gorm:"column:available_until;not null;index"`
	Items          []FoodItem         `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *FoodListing) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the pickup window has closed. Expiry is derived,
// never stored.
func (l *FoodListing) IsExpired(now time.Time) bool {
	return l.AvailableUntil.Before(now)
}
