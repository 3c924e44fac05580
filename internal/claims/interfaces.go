package claims

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	"github.com/replate-app/replate-backend/pkg/pagination"
)

// Repository defines persistence operations for the claim lifecycle.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindListing(ctx context.Context, id uuid.UUID) (*models.FoodListing, error)
	FindClaim(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	CountAvailableItems(ctx context.Context, listingID uuid.UUID) (int64, error)
	SelectAvailableItemIDs(ctx context.Context, listingID uuid.UUID, limit int) ([]uuid.UUID, error)
	MarkItemsClaimed(ctx context.Context, itemIDs []uuid.UUID) (int64, error)
	CreateClaims(ctx context.Context, claims []*models.Claim) error
	UpdateClaimFromStatus(ctx context.Context, claimID uuid.UUID, from []enums.ClaimStatus, updates map[string]any) (int64, error)
	UpdateItemFromStatus(ctx context.Context, itemID uuid.UUID, from []enums.FoodItemStatus, to enums.FoodItemStatus) (int64, error)
	IncrementOrgAggregates(ctx context.Context, orgID uuid.UUID, points float64) error
	CountUncollectedItems(ctx context.Context, listingID uuid.UUID) (int64, error)
	UpdateListingFromStatus(ctx context.Context, listingID uuid.UUID, from, to enums.ListingStatus) (int64, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID, params pagination.Params) ([]models.Claim, *pagination.Cursor, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, params pagination.Params) ([]models.Claim, *pagination.Cursor, error)
}
