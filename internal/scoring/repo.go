package scoring

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/internal/repo"
	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
)

// Repository defines the read-side queries and score write used by the SDG
// scorer.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	ListApprovedOrganizations(ctx context.Context) ([]models.Organization, error)
	CountClaims(ctx context.Context, orgID uuid.UUID) (total int64, collected int64, err error)
	CountActiveListings(ctx context.Context, orgID uuid.UUID, now time.Time) (int64, error)
	CountDistinctCategories(ctx context.Context, orgID uuid.UUID) (int64, error)
	CountCollectedSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int64, error)
	UpdateSDGScore(ctx context.Context, orgID uuid.UUID, score float64) error
}

type gormRepository struct {
	repo.Base
}

// NewRepository builds the scoring repository on the shared base.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{Base: repo.NewBase(tx)}
}

func (r *gormRepository) FindOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.DB(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *gormRepository) ListApprovedOrganizations(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.DB(ctx).
		Where("status = ?", enums.OrganizationStatusApproved).
		Order("created_at ASC").
		Find(&orgs).Error
	return orgs, err
}

func (r *gormRepository) CountClaims(ctx context.Context, orgID uuid.UUID) (int64, int64, error) {
	var total int64
	if err := r.DB(ctx).Model(&models.Claim{}).
		Where("organization_id = ?", orgID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	var collected int64
	if err := r.DB(ctx).Model(&models.Claim{}).
		Where("organization_id = ? AND status = ?", orgID, enums.ClaimStatusPickedUp).
		Count(&collected).Error; err != nil {
		return 0, 0, err
	}
	return total, collected, nil
}

func (r *gormRepository) CountActiveListings(ctx context.Context, orgID uuid.UUID, now time.Time) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.FoodListing{}).
		Where("organization_id = ? AND status = ? AND available_until > ?", orgID, enums.ListingStatusAvailable, now).
		Count(&n).Error
	return n, err
}

func (r *gormRepository) CountDistinctCategories(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.FoodListing{}).
		Where("organization_id = ?", orgID).
		Distinct("category").
		Count(&n).Error
	return n, err
}

func (r *gormRepository) CountCollectedSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.Claim{}).
		Where("organization_id = ? AND status = ? AND collected_at >= ?", orgID, enums.ClaimStatusPickedUp, since).
		Count(&n).Error
	return n, err
}

func (r *gormRepository) UpdateSDGScore(ctx context.Context, orgID uuid.UUID, score float64) error {
	return r.DB(ctx).Model(&models.Organization{}).
		Where("id = ?", orgID).
		Update("sdg_score", score).Error
}
