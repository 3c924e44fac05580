package ranking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/internal/repo"
	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
)

// ListingClaimLatency pairs a listing's creation time with its first claim.
type ListingClaimLatency struct {
	ListingID    uuid.UUID
	CreatedAt    time.Time
	FirstClaimAt time.Time
}

// Repository defines the reads and writes used by the ranking engine.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListApprovedOrganizations(ctx context.Context) ([]models.Organization, error)
	CountClaims(ctx context.Context, orgID uuid.UUID) (total int64, collected int64, err error)
	CountActiveListings(ctx context.Context, orgID uuid.UUID, now time.Time) (int64, error)
	CountDistinctCategories(ctx context.Context, orgID uuid.UUID) (int64, error)
	CountCollectedSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int64, error)
	ListClaimLatencies(ctx context.Context, orgID uuid.UUID) ([]ListingClaimLatency, error)
	UpdateScoreAndRank(ctx context.Context, orgID uuid.UUID, score float64, rank int) error
	ResetIneligible(ctx context.Context) error
}

type gormRepository struct {
	repo.Base
}

// NewRepository builds the ranking repository on the shared base.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{Base: repo.NewBase(tx)}
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

// ListClaimLatencies returns, per listing with at least one claim, the
// listing creation time and the earliest claim time. The hour math happens
// in the caller so the query stays portable across dialects.
func (r *gormRepository) ListClaimLatencies(ctx context.Context, orgID uuid.UUID) ([]ListingClaimLatency, error) {
	var rows []ListingClaimLatency
	err := r.DB(ctx).Model(&models.Claim{}).
		Select("claims.listing_id AS listing_id, food_listings.created_at AS created_at, MIN(claims.claimed_at) AS first_claim_at").
		Joins("JOIN food_listings ON food_listings.id = claims.listing_id").
		Where("claims.organization_id = ?", orgID).
		Group("claims.listing_id, food_listings.created_at").
		Scan(&rows).Error
	return rows, err
}

func (r *gormRepository) UpdateScoreAndRank(ctx context.Context, orgID uuid.UUID, score float64, rank int) error {
	return r.DB(ctx).Model(&models.Organization{}).
		Where("id = ?", orgID).
		Updates(map[string]any{
			"sdg_score": score,
			"ranking":   rank,
		}).Error
}

// ResetIneligible clears rank and score for organizations that are not
// approved or have no completed donations.
func (r *gormRepository) ResetIneligible(ctx context.Context) error {
	return r.DB(ctx).Model(&models.Organization{}).
		Where("status != ? OR total_donations = 0", enums.OrganizationStatusApproved).
		Updates(map[string]any{
			"sdg_score": 0,
			"ranking":   nil,
		}).Error
}
