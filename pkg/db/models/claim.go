package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/pkg/enums"
)

// Claim is a student's reservation of exactly one FoodItem, tracked through
// the pickup lifecycle. Rows are never deleted; they only move forward or
// into a terminal failure state.
//
// OrganizationID duplicates the listing's owner so ownership checks stay a
// single-row read. ItemStatus mirrors the FoodItem's status for read
// convenience; the lifecycle controller keeps both in sync in one
// transaction.
type Claim struct {
	ID                    uuid.UUID            `gorm:"type:uuid;primaryKey"`
	StudentUserID         uuid.UUID            `gorm:"column:student_user_id;type:uuid;not null;index"`
	FoodItemID            uuid.UUID            `gorm:"column:food_item_id;type:uuid;not null;uniqueIndex:ux_claims_item_live,where:status = 'pending' OR status = 'confirmed' OR status = 'ready'"`
	ListingID             uuid.UUID            `gorm:"column:listing_id;type:uuid;not null;index"`
	OrganizationID        uuid.UUID            `gorm:"column:organization_id;type:uuid;not null;index"`
	Status                enums.ClaimStatus    `gorm:"column:status;type:text;not null;default:'pending';index"`
	ItemStatus            enums.FoodItemStatus `gorm:"column:item_status;type:text;not null;default:'claimed'"`
	EstimatedImpactPoints float64              `gorm:"column:estimated_impact_points;not null;default:0"`
	ActualImpactPoints    *float64             `gorm:"column:actual_impact_points"`
	ClaimedAt             time.Time            `gorm:"column:claimed_at;not null"`
	ConfirmedAt           *time.Time           `gorm:"column:confirmed_at"`
	ReadyAt               *time.Time           `gorm:"column:ready_at"`
	CollectedAt           *time.Time           `gorm:"column:collected_at"`
	CancelledAt           *time.Time           `gorm:"column:cancelled_at"`
	CancelledBy           *enums.UserRole      `gorm:"column:cancelled_by;type:text"`
	CancellationReason    *string              `gorm:"column:cancellation_reason"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Claim) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
