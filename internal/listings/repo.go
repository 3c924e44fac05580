package listings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/internal/repo"
	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	"github.com/replate-app/replate-backend/pkg/pagination"
)

// Repository defines persistence operations for listings and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	CreateListing(ctx context.Context, listing *models.FoodListing) error
	CreateItems(ctx context.Context, items []models.FoodItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.FoodListing, error)
	CountAvailableItems(ctx context.Context, listingID uuid.UUID) (int64, error)
	ListAvailable(ctx context.Context, params BrowseParams, now time.Time) ([]models.FoodListing, *pagination.Cursor, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, params pagination.Params) ([]models.FoodListing, *pagination.Cursor, error)
	ListExpiredWithLiveClaims(ctx context.Context, now time.Time) ([]models.FoodListing, error)
	ListLiveClaims(ctx context.Context, listingID uuid.UUID) ([]models.Claim, error)
}

type gormRepository struct {
	repo.Base
}

// NewRepository builds the listings repository on the shared base.
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

func (r *gormRepository) CreateListing(ctx context.Context, listing *models.FoodListing) error {
	return r.DB(ctx).Create(listing).Error
}

func (r *gormRepository) CreateItems(ctx context.Context, items []models.FoodItem) error {
	return r.DB(ctx).Create(&items).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.FoodListing, error) {
	var listing models.FoodListing
	if err := r.DB(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *gormRepository) CountAvailableItems(ctx context.Context, listingID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.FoodItem{}).
		Where("listing_id = ? AND status = ?", listingID, enums.FoodItemStatusAvailable).
		Count(&n).Error
	return n, err
}

func (r *gormRepository) ListAvailable(ctx context.Context, params BrowseParams, now time.Time) ([]models.FoodListing, *pagination.Cursor, error) {
	query := r.DB(ctx).Model(&models.FoodListing{}).
		Where("status = ? AND available_until > ?", enums.ListingStatusAvailable, now)
	if params.Category != nil {
		query = query.Where("category = ?", *params.Category)
	}
	return paginateListings(query, params.Page)
}

func (r *gormRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, params pagination.Params) ([]models.FoodListing, *pagination.Cursor, error) {
	query := r.DB(ctx).Model(&models.FoodListing{}).Where("organization_id = ?", orgID)
	return paginateListings(query, params)
}

// ListExpiredWithLiveClaims finds listings whose pickup window has closed
// while claims are still live, for the expiry sweep.
func (r *gormRepository) ListExpiredWithLiveClaims(ctx context.Context, now time.Time) ([]models.FoodListing, error) {
	var rows []models.FoodListing
	err := r.DB(ctx).Model(&models.FoodListing{}).
		Where("available_until < ?", now).
		Where("id IN (?)", r.DB(ctx).Model(&models.Claim{}).
			Select("listing_id").
			Where("status IN ?", []enums.ClaimStatus{
				enums.ClaimStatusPending,
				enums.ClaimStatusConfirmed,
				enums.ClaimStatusReady,
			})).
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) ListLiveClaims(ctx context.Context, listingID uuid.UUID) ([]models.Claim, error) {
	var rows []models.Claim
	err := r.DB(ctx).Model(&models.Claim{}).
		Where("listing_id = ? AND status IN ?", listingID, []enums.ClaimStatus{
			enums.ClaimStatusPending,
			enums.ClaimStatusConfirmed,
			enums.ClaimStatusReady,
		}).
		Find(&rows).Error
	return rows, err
}

func paginateListings(query *gorm.DB, params pagination.Params) ([]models.FoodListing, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.FoodListing
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return rows, next, nil
}
