package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/pkg/enums"
)

// Organization is a campus food donor (canteen, cafe, event caterer).
//
// The aggregate fields total_donations and total_impact_points are only ever
// incremented in place by claim collection; sdg_score and ranking are only
// ever overwritten by the ranking engine or SDG scorer. Ranking is non-null
// iff the organization is approved and has at least one completed donation.
type Organization struct {
	ID                uuid.UUID                `gorm:"type:uuid;primaryKey"`
	OwnerUserID       uuid.UUID                `gorm:"column:owner_user_id;type:uuid;not null;uniqueIndex"`
	Name              string                   `gorm:"type:text;not null"`
	Description       string                   `gorm:"type:text;not null;default:''"`
	CampusLocation    string                   `gorm:"column:campus_location;type:text;not null;default:''"`
	ContactEmail      string                   `gorm:"column:contact_email;type:text;not null"`
	Status            enums.OrganizationStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	TotalImpactPoints float64                  `gorm:"column:total_impact_points;not null;default:0"`
	TotalDonations    int                      `gorm:"column:total_donations;not null;default:0"`
	SDGScore          float64                  `gorm:"column:sdg_score;not null;default:0"`
	Ranking           *int                     `gorm:"column:ranking"`
	ApprovedAt        *time.Time               `gorm:"column:approved_at"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Organization) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
