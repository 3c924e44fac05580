package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/internal/claims"
	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	"github.com/replate-app/replate-backend/pkg/logger"
	"github.com/replate-app/replate-backend/pkg/outbox"
)

const expiredClaimReason = "listing expired before pickup"

var sweepLiveClaimStatuses = []enums.ClaimStatus{
	enums.ClaimStatusPending,
	enums.ClaimStatusConfirmed,
	enums.ClaimStatusReady,
}

var sweepLiveItemStatuses = []enums.FoodItemStatus{
	enums.FoodItemStatusClaimed,
	enums.FoodItemStatusConfirmed,
	enums.FoodItemStatusReady,
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type expiredListingReader interface {
	ListExpiredWithLiveClaims(ctx context.Context, now time.Time) ([]models.FoodListing, error)
	ListLiveClaims(ctx context.Context, listingID uuid.UUID) ([]models.Claim, error)
}

type claimSweeper interface {
	UpdateClaimFromStatus(ctx context.Context, claimID uuid.UUID, from []enums.ClaimStatus, updates map[string]any) (int64, error)
	UpdateItemFromStatus(ctx context.Context, itemID uuid.UUID, from []enums.FoodItemStatus, to enums.FoodItemStatus) (int64, error)
}

type claimSweeperFactory func(tx *gorm.DB) claimSweeper

func defaultClaimSweeper(tx *gorm.DB) claimSweeper {
	return claims.NewRepository(tx)
}

// ListingExpiryJobParams configure the listing expiry sweep.
type ListingExpiryJobParams struct {
	Logger         *logger.Logger
	DB             txRunner
	Listings       expiredListingReader
	Outbox         outboxEmitter
	SweeperFactory claimSweeperFactory
}

// NewListingExpiryJob builds the job that cancels live claims on listings
// whose pickup window has closed.
func NewListingExpiryJob(params ListingExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Listings == nil {
		return nil, fmt.Errorf("listings reader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	factory := params.SweeperFactory
	if factory == nil {
		factory = defaultClaimSweeper
	}
	return &listingExpiryJob{
		logg:    params.Logger,
		db:      params.DB,
		lists:   params.Listings,
		outbox:  params.Outbox,
		factory: factory,
		now:     time.Now,
	}, nil
}

type listingExpiryJob struct {
	logg    *logger.Logger
	db      txRunner
	lists   expiredListingReader
	outbox  outboxEmitter
	factory claimSweeperFactory
	now     func() time.Time
}

func (j *listingExpiryJob) Name() string { return "listing-expiry" }

func (j *listingExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	listings, err := j.lists.ListExpiredWithLiveClaims(ctx, now)
	if err != nil {
		return fmt.Errorf("query expired listings: %w", err)
	}

	swept := 0
	var errs []error
	for _, listing := range listings {
		if err := j.sweepListing(ctx, listing, now); err != nil {
			errs = append(errs, fmt.Errorf("sweep listing %s: %w", listing.ID, err))
			continue
		}
		swept++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"expired_listings": len(listings),
		"swept":            swept,
	})
	j.logg.Info(logCtx, "listing expiry sweep complete")
	return multierr.Combine(errs...)
}

func (j *listingExpiryJob) sweepListing(ctx context.Context, listing models.FoodListing, now time.Time) error {
	live, err := j.lists.ListLiveClaims(ctx, listing.ID)
	if err != nil {
		return fmt.Errorf("load live claims: %w", err)
	}
	if len(live) == 0 {
		return nil
	}

	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		sweeper := j.factory(tx)
		cancelled := 0
		for _, claim := range live {
			affected, err := sweeper.UpdateClaimFromStatus(ctx, claim.ID, sweepLiveClaimStatuses, map[string]any{
				"status":              enums.ClaimStatusCancelled,
				"item_status":         enums.FoodItemStatusAvailable,
				"cancelled_at":        now,
				"cancellation_reason": expiredClaimReason,
			})
			if err != nil {
				return err
			}
			if affected == 0 {
				continue
			}
			if _, err := sweeper.UpdateItemFromStatus(ctx, claim.FoodItemID, sweepLiveItemStatuses, enums.FoodItemStatusAvailable); err != nil {
				return err
			}
			cancelled++
		}
		if cancelled == 0 {
			return nil
		}
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingExpired,
			AggregateType: enums.AggregateListing,
			AggregateID:   listing.ID,
			Version:       1,
			OccurredAt:    now,
			Data: ListingExpiredEvent{
				ListingID:       listing.ID,
				OrganizationID:  listing.OrganizationID,
				CancelledClaims: cancelled,
				ExpiredAt:       listing.AvailableUntil,
			},
		})
	})
}

// ListingExpiredEvent describes the payload emitted when a sweep cancels
// claims on an expired listing.
type ListingExpiredEvent struct {
	ListingID       uuid.UUID `json:"listingId"`
	OrganizationID  uuid.UUID `json:"organizationId"`
	CancelledClaims int       `json:"cancelledClaims"`
	ExpiredAt       time.Time `json:"expiredAt"`
}
