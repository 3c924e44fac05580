package claims

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/internal/repo"
	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	"github.com/replate-app/replate-backend/pkg/pagination"
)

type gormRepository struct {
	repo.Base
}

// NewRepository builds the claims repository on the shared base.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{Base: repo.NewBase(tx)}
}

func (r *gormRepository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) FindListing(ctx context.Context, id uuid.UUID) (*models.FoodListing, error) {
	var listing models.FoodListing
	if err := r.DB(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *gormRepository) FindClaim(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	var claim models.Claim
	if err := r.DB(ctx).First(&claim, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *gormRepository) CountAvailableItems(ctx context.Context, listingID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.FoodItem{}).
		Where("listing_id = ? AND status = ?", listingID, enums.FoodItemStatusAvailable).
		Count(&n).Error
	return n, err
}

func (r *gormRepository) SelectAvailableItemIDs(ctx context.Context, listingID uuid.UUID, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).Model(&models.FoodItem{}).
		Where("listing_id = ? AND status = ?", listingID, enums.FoodItemStatusAvailable).
		Order("item_number ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// MarkItemsClaimed flips the given items to claimed, guarded on them still
// being available. The caller compares RowsAffected against the requested
// count to detect a lost race.
func (r *gormRepository) MarkItemsClaimed(ctx context.Context, itemIDs []uuid.UUID) (int64, error) {
	result := r.DB(ctx).Model(&models.FoodItem{}).
		Where("id IN ? AND status = ?", itemIDs, enums.FoodItemStatusAvailable).
		Update("status", enums.FoodItemStatusClaimed)
	return result.RowsAffected, result.Error
}

func (r *gormRepository) CreateClaims(ctx context.Context, claims []*models.Claim) error {
	return r.DB(ctx).Create(claims).Error
}

func (r *gormRepository) UpdateClaimFromStatus(ctx context.Context, claimID uuid.UUID, from []enums.ClaimStatus, updates map[string]any) (int64, error) {
	result := r.DB(ctx).Model(&models.Claim{}).
		Where("id = ? AND status IN ?", claimID, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *gormRepository) UpdateItemFromStatus(ctx context.Context, itemID uuid.UUID, from []enums.FoodItemStatus, to enums.FoodItemStatus) (int64, error) {
	result := r.DB(ctx).Model(&models.FoodItem{}).
		Where("id = ? AND status IN ?", itemID, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

// IncrementOrgAggregates bumps the organization counters in place so
// concurrent collections cannot lose updates.
func (r *gormRepository) IncrementOrgAggregates(ctx context.Context, orgID uuid.UUID, points float64) error {
	return r.DB(ctx).Model(&models.Organization{}).
		Where("id = ?", orgID).
		Updates(map[string]any{
			"total_donations":     gorm.Expr("total_donations + ?", 1),
			"total_impact_points": gorm.Expr("total_impact_points + ?", points),
		}).Error
}

func (r *gormRepository) CountUncollectedItems(ctx context.Context, listingID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.FoodItem{}).
		Where("listing_id = ? AND status != ?", listingID, enums.FoodItemStatusCollected).
		Count(&n).Error
	return n, err
}

func (r *gormRepository) UpdateListingFromStatus(ctx context.Context, listingID uuid.UUID, from, to enums.ListingStatus) (int64, error) {
	result := r.DB(ctx).Model(&models.FoodListing{}).
		Where("id = ? AND status = ?", listingID, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

func (r *gormRepository) ListByStudent(ctx context.Context, studentID uuid.UUID, params pagination.Params) ([]models.Claim, *pagination.Cursor, error) {
	return r.listClaims(ctx, "student_user_id = ?", studentID, params)
}

func (r *gormRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, params pagination.Params) ([]models.Claim, *pagination.Cursor, error) {
	return r.listClaims(ctx, "organization_id = ?", orgID, params)
}

func (r *gormRepository) listClaims(ctx context.Context, filter string, id uuid.UUID, params pagination.Params) ([]models.Claim, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.DB(ctx).Model(&models.Claim{}).Where(filter, id)

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

	var rows []models.Claim
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
