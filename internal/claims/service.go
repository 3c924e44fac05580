package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/internal/impact"
	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	pkgerrors "github.com/replate-app/replate-backend/pkg/errors"
	"github.com/replate-app/replate-backend/pkg/outbox"
	"github.com/replate-app/replate-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

const noShowReason = "student did not show up for pickup"
const defaultCancelReason = "no reason provided"

// liveClaimStatuses are the non-terminal claim states.
var liveClaimStatuses = []enums.ClaimStatus{
	enums.ClaimStatusPending,
	enums.ClaimStatusConfirmed,
	enums.ClaimStatusReady,
}

var liveItemStatuses = []enums.FoodItemStatus{
	enums.FoodItemStatusClaimed,
	enums.FoodItemStatusConfirmed,
	enums.FoodItemStatusReady,
}

// Actor identifies the caller of a lifecycle operation.
type Actor struct {
	UserID         uuid.UUID
	Role           enums.UserRole
	OrganizationID *uuid.UUID
}

// CreateInput requests up to Quantity items of one listing.
type CreateInput struct {
	ListingID uuid.UUID
	Quantity  int
	Actor     Actor
}

// TransitionInput addresses one claim for a lifecycle transition.
type TransitionInput struct {
	ClaimID uuid.UUID
	Actor   Actor
	Reason  *string
}

// ClaimCollectedEvent is emitted when a claim reaches picked_up.
type ClaimCollectedEvent struct {
	ClaimID            uuid.UUID `json:"claim_id"`
	ListingID          uuid.UUID `json:"listing_id"`
	OrganizationID     uuid.UUID `json:"organization_id"`
	StudentUserID      uuid.UUID `json:"student_user_id"`
	ActualImpactPoints float64   `json:"actual_impact_points"`
}

// ClaimCancelledEvent is emitted when a claim is cancelled or no-showed.
type ClaimCancelledEvent struct {
	ClaimID        uuid.UUID      `json:"claim_id"`
	ListingID      uuid.UUID      `json:"listing_id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	CancelledBy    enums.UserRole `json:"cancelled_by"`
	Reason         string         `json:"reason"`
}

// Service drives the claim lifecycle state machine.
type Service interface {
	Create(ctx context.Context, input CreateInput) ([]models.Claim, error)
	Confirm(ctx context.Context, input TransitionInput) (*models.Claim, error)
	MarkReady(ctx context.Context, input TransitionInput) (*models.Claim, error)
	Collect(ctx context.Context, input TransitionInput) (*models.Claim, error)
	MarkNoShow(ctx context.Context, input TransitionInput) (*models.Claim, error)
	Cancel(ctx context.Context, input TransitionInput) (*models.Claim, error)
	ListMine(ctx context.Context, studentID uuid.UUID, params pagination.Params) ([]models.Claim, *pagination.Cursor, error)
	ListForOrganization(ctx context.Context, orgID uuid.UUID, params pagination.Params) ([]models.Claim, *pagination.Cursor, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// NewService builds the claim lifecycle service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("claims repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, now: time.Now}, nil
}

// Create reserves up to Quantity available items of the listing, one pending
// claim per item. The whole reservation succeeds or fails as a unit.
func (s *service) Create(ctx context.Context, input CreateInput) ([]models.Claim, error) {
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Actor.Role != enums.RoleStudent {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only students can claim food")
	}

	var created []models.Claim
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.now()

		student, err := repo.FindUser(ctx, input.Actor.UserID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown user")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if student.IsBanned {
			return pkgerrors.New(pkgerrors.CodeForbidden, "account is banned")
		}

		listing, err := repo.FindListing(ctx, input.ListingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		if listing.Status != enums.ListingStatusAvailable {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing is not available")
		}
		if listing.IsExpired(now) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing pickup window has closed")
		}

		available, err := repo.CountAvailableItems(ctx, listing.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count available items")
		}
		if available < int64(input.Quantity) {
			return pkgerrors.New(pkgerrors.CodeCapacity, "not enough items available").
				WithDetails(map[string]any{"available": available})
		}

		itemIDs, err := repo.SelectAvailableItemIDs(ctx, listing.ID, input.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "select available items")
		}
		claimed, err := repo.MarkItemsClaimed(ctx, itemIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark items claimed")
		}
		if claimed != int64(input.Quantity) {
			// Lost the race against a concurrent claim; roll everything back.
			return pkgerrors.New(pkgerrors.CodeCapacity, "not enough items available").
				WithDetails(map[string]any{"available": claimed})
		}

		estimated := impact.Score(listing.Category.String(), listing.Unit, 1)
		rows := make([]*models.Claim, 0, len(itemIDs))
		for _, itemID := range itemIDs {
			rows = append(rows, &models.Claim{
				StudentUserID:         student.ID,
				FoodItemID:            itemID,
				ListingID:             listing.ID,
				OrganizationID:        listing.OrganizationID,
				Status:                enums.ClaimStatusPending,
				ItemStatus:            enums.FoodItemStatusClaimed,
				EstimatedImpactPoints: estimated,
				ClaimedAt:             now,
			})
		}
		if err := repo.CreateClaims(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create claims")
		}

		if available == int64(input.Quantity) {
			if _, err := repo.UpdateListingFromStatus(ctx, listing.ID, enums.ListingStatusAvailable, enums.ListingStatusClaimed); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close out listing")
			}
		}

		created = make([]models.Claim, 0, len(rows))
		for _, row := range rows {
			created = append(created, *row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Confirm moves a pending claim to confirmed. Organization-only.
func (s *service) Confirm(ctx context.Context, input TransitionInput) (*models.Claim, error) {
	return s.transition(ctx, input, func(ctx context.Context, tx *gorm.DB, repo Repository, claim *models.Claim) error {
		if err := requireOwningOrganization(input.Actor, claim); err != nil {
			return err
		}
		now := s.now()
		affected, err := repo.UpdateClaimFromStatus(ctx, claim.ID,
			[]enums.ClaimStatus{enums.ClaimStatusPending},
			map[string]any{
				"status":       enums.ClaimStatusConfirmed,
				"item_status":  enums.FoodItemStatusConfirmed,
				"confirmed_at": now,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm claim")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "claim cannot be confirmed in its current state")
		}
		return s.mirrorItem(ctx, repo, claim.FoodItemID,
			[]enums.FoodItemStatus{enums.FoodItemStatusClaimed}, enums.FoodItemStatusConfirmed)
	})
}

// MarkReady moves a confirmed claim to ready. Organization-only.
func (s *service) MarkReady(ctx context.Context, input TransitionInput) (*models.Claim, error) {
	return s.transition(ctx, input, func(ctx context.Context, tx *gorm.DB, repo Repository, claim *models.Claim) error {
		if err := requireOwningOrganization(input.Actor, claim); err != nil {
			return err
		}
		now := s.now()
		affected, err := repo.UpdateClaimFromStatus(ctx, claim.ID,
			[]enums.ClaimStatus{enums.ClaimStatusConfirmed},
			map[string]any{
				"status":      enums.ClaimStatusReady,
				"item_status": enums.FoodItemStatusReady,
				"ready_at":    now,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark claim ready")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "claim cannot be marked ready in its current state")
		}
		return s.mirrorItem(ctx, repo, claim.FoodItemID,
			[]enums.FoodItemStatus{enums.FoodItemStatusConfirmed}, enums.FoodItemStatusReady)
	})
}

// Collect completes a ready claim: computes actual impact, updates the
// organization aggregates and completes the listing when its last item is
// collected. Emits a claim_collected event inside the same transaction.
func (s *service) Collect(ctx context.Context, input TransitionInput) (*models.Claim, error) {
	return s.transition(ctx, input, func(ctx context.Context, tx *gorm.DB, repo Repository, claim *models.Claim) error {
		if err := requireStudentOrOwningOrganization(input.Actor, claim); err != nil {
			return err
		}
		if input.Actor.Role == enums.RoleStudent {
			student, err := repo.FindUser(ctx, input.Actor.UserID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
			}
			if student.IsBanned {
				return pkgerrors.New(pkgerrors.CodeForbidden, "account is banned")
			}
		}

		listing, err := repo.FindListing(ctx, claim.ListingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		actual := impact.Score(listing.Category.String(), listing.Unit, 1)

		now := s.now()
		affected, err := repo.UpdateClaimFromStatus(ctx, claim.ID,
			[]enums.ClaimStatus{enums.ClaimStatusReady},
			map[string]any{
				"status":               enums.ClaimStatusPickedUp,
				"item_status":          enums.FoodItemStatusCollected,
				"collected_at":         now,
				"actual_impact_points": actual,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "collect claim")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "claim cannot be collected in its current state")
		}
		if err := s.mirrorItem(ctx, repo, claim.FoodItemID,
			[]enums.FoodItemStatus{enums.FoodItemStatusReady}, enums.FoodItemStatusCollected); err != nil {
			return err
		}

		if err := repo.IncrementOrgAggregates(ctx, claim.OrganizationID, actual); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update organization aggregates")
		}

		remaining, err := repo.CountUncollectedItems(ctx, claim.ListingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count uncollected items")
		}
		if remaining == 0 {
			if _, err := repo.UpdateListingFromStatus(ctx, claim.ListingID, enums.ListingStatusClaimed, enums.ListingStatusCollected); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete listing")
			}
		}

		return s.emit(ctx, tx, claim, enums.EventClaimCollected, ClaimCollectedEvent{
			ClaimID:            claim.ID,
			ListingID:          claim.ListingID,
			OrganizationID:     claim.OrganizationID,
			StudentUserID:      claim.StudentUserID,
			ActualImpactPoints: actual,
		}, input.Actor)
	})
}

// MarkNoShow releases a ready claim's item after a missed pickup.
// Organization-only.
func (s *service) MarkNoShow(ctx context.Context, input TransitionInput) (*models.Claim, error) {
	return s.transition(ctx, input, func(ctx context.Context, tx *gorm.DB, repo Repository, claim *models.Claim) error {
		if err := requireOwningOrganization(input.Actor, claim); err != nil {
			return err
		}
		now := s.now()
		affected, err := repo.UpdateClaimFromStatus(ctx, claim.ID,
			[]enums.ClaimStatus{enums.ClaimStatusReady},
			map[string]any{
				"status":              enums.ClaimStatusNoShow,
				"item_status":         enums.FoodItemStatusAvailable,
				"cancelled_at":        now,
				"cancelled_by":        enums.RoleOrganization,
				"cancellation_reason": noShowReason,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark claim no-show")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "claim cannot be marked no-show in its current state")
		}
		if err := s.releaseItem(ctx, repo, claim); err != nil {
			return err
		}
		return s.emit(ctx, tx, claim, enums.EventClaimCancelled, ClaimCancelledEvent{
			ClaimID:        claim.ID,
			ListingID:      claim.ListingID,
			OrganizationID: claim.OrganizationID,
			CancelledBy:    enums.RoleOrganization,
			Reason:         noShowReason,
		}, input.Actor)
	})
}

// Cancel aborts a live claim. Callable by the claiming student or the owning
// organization.
func (s *service) Cancel(ctx context.Context, input TransitionInput) (*models.Claim, error) {
	return s.transition(ctx, input, func(ctx context.Context, tx *gorm.DB, repo Repository, claim *models.Claim) error {
		if err := requireStudentOrOwningOrganization(input.Actor, claim); err != nil {
			return err
		}
		reason := defaultCancelReason
		if input.Reason != nil && *input.Reason != "" {
			reason = *input.Reason
		}
		now := s.now()
		affected, err := repo.UpdateClaimFromStatus(ctx, claim.ID, liveClaimStatuses,
			map[string]any{
				"status":              enums.ClaimStatusCancelled,
				"item_status":         enums.FoodItemStatusAvailable,
				"cancelled_at":        now,
				"cancelled_by":        input.Actor.Role,
				"cancellation_reason": reason,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel claim")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "claim cannot be cancelled in its current state")
		}
		if err := s.releaseItem(ctx, repo, claim); err != nil {
			return err
		}
		return s.emit(ctx, tx, claim, enums.EventClaimCancelled, ClaimCancelledEvent{
			ClaimID:        claim.ID,
			ListingID:      claim.ListingID,
			OrganizationID: claim.OrganizationID,
			CancelledBy:    input.Actor.Role,
			Reason:         reason,
		}, input.Actor)
	})
}

// ListMine returns the student's claims, newest first.
func (s *service) ListMine(ctx context.Context, studentID uuid.UUID, params pagination.Params) ([]models.Claim, *pagination.Cursor, error) {
	if studentID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.repo.ListByStudent(ctx, studentID, params)
}

// ListForOrganization returns claims against the organization's listings.
func (s *service) ListForOrganization(ctx context.Context, orgID uuid.UUID, params pagination.Params) ([]models.Claim, *pagination.Cursor, error) {
	if orgID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context required")
	}
	return s.repo.ListByOrganization(ctx, orgID, params)
}

// transition wraps the shared load/execute/reload flow of every lifecycle
// operation in one transaction.
func (s *service) transition(ctx context.Context, input TransitionInput, fn func(ctx context.Context, tx *gorm.DB, repo Repository, claim *models.Claim) error) (*models.Claim, error) {
	if input.ClaimID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "claim id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *models.Claim
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		claim, err := repo.FindClaim(ctx, input.ClaimID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "claim not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load claim")
		}
		if err := fn(ctx, tx, repo, claim); err != nil {
			return err
		}
		reloaded, err := repo.FindClaim(ctx, input.ClaimID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload claim")
		}
		result = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// mirrorItem keeps the FoodItem row in lockstep with the claim transition.
func (s *service) mirrorItem(ctx context.Context, repo Repository, itemID uuid.UUID, from []enums.FoodItemStatus, to enums.FoodItemStatus) error {
	affected, err := repo.UpdateItemFromStatus(ctx, itemID, from, to)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update food item")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "food item state does not match claim")
	}
	return nil
}

// releaseItem returns the food item to the pool and reopens a fully claimed
// listing.
func (s *service) releaseItem(ctx context.Context, repo Repository, claim *models.Claim) error {
	if err := s.mirrorItem(ctx, repo, claim.FoodItemID, liveItemStatuses, enums.FoodItemStatusAvailable); err != nil {
		return err
	}
	if _, err := repo.UpdateListingFromStatus(ctx, claim.ListingID, enums.ListingStatusClaimed, enums.ListingStatusAvailable); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reopen listing")
	}
	return nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, claim *models.Claim, eventType enums.OutboxEventType, data any, actor Actor) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateClaim,
		AggregateID:   claim.ID,
		Version:       1,
		Actor: &outbox.ActorRef{
			UserID:         actor.UserID,
			OrganizationID: actor.OrganizationID,
			Role:           actor.Role.String(),
		},
		Data: data,
	})
}

func requireOwningOrganization(actor Actor, claim *models.Claim) error {
	if actor.Role != enums.RoleOrganization || actor.OrganizationID == nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "organization access required")
	}
	if *actor.OrganizationID != claim.OrganizationID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "claim does not belong to organization")
	}
	return nil
}

func requireStudentOrOwningOrganization(actor Actor, claim *models.Claim) error {
	switch actor.Role {
	case enums.RoleStudent:
		if actor.UserID != claim.StudentUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "claim does not belong to student")
		}
		return nil
	case enums.RoleOrganization:
		return requireOwningOrganization(actor, claim)
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "student or organization access required")
	}
}
