package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/pkg/enums"
)

// FoodItem is one physical unit of a listing, numbered 1..quantity. Rows are
// created in bulk with the listing and never deleted; status is the only
// mutable field and is driven exclusively by claim transitions.
type FoodItem struct {
	ID         uuid.UUID            `gorm:"type:uuid;primaryKey"`
	ListingID  uuid.UUID            `gorm:"column:listing_id;type:uuid;not null;index"`
	ItemNumber int                  `gorm:"column:item_number;not null"`
	Status     enums.FoodItemStatus `gorm:"column:status;type:text;not null;default:'available';index"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (f *FoodItem) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
