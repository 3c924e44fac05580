package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	pkgerrors "github.com/replate-app/replate-backend/pkg/errors"
	"github.com/replate-app/replate-backend/pkg/logger"
	"github.com/replate-app/replate-backend/pkg/pagination"
)

const maxListingQuantity = 500

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes listing creation and browsing.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.FoodListing, error)
	Browse(ctx context.Context, params BrowseParams) (*Page, error)
	ListOwn(ctx context.Context, orgID uuid.UUID, params pagination.Params) (*Page, error)
	Get(ctx context.Context, id uuid.UUID) (*Detail, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the listings service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.FoodListing, error) {
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	var listing *models.FoodListing
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		org, err := repo.FindOrganization(ctx, input.OrganizationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load organization")
		}
		if org.Status != enums.OrganizationStatusApproved {
			return pkgerrors.New(pkgerrors.CodeForbidden, "organization is not approved to publish listings")
		}

		listing = &models.FoodListing{
			OrganizationID: input.OrganizationID,
			Title:          strings.TrimSpace(input.Title),
			Description:    strings.TrimSpace(input.Description),
			Category:       input.Category,
			Unit:           strings.ToLower(strings.TrimSpace(input.Unit)),
			Quantity:       input.Quantity,
			Status:         enums.ListingStatusAvailable,
			PickupNotes:    strings.TrimSpace(input.PickupNotes),
			AvailableFrom:  input.AvailableFrom,
			AvailableUntil: input.AvailableUntil,
		}
		if err := repo.CreateListing(ctx, listing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create listing")
		}

		items := make([]models.FoodItem, 0, input.Quantity)
		for n := 1; n <= input.Quantity; n++ {
			items = append(items, models.FoodItem{
				ListingID:  listing.ID,
				ItemNumber: n,
				Status:     enums.FoodItemStatusAvailable,
			})
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create listing items")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"listing_id":      listing.ID,
		"organization_id": listing.OrganizationID,
		"quantity":        listing.Quantity,
	})
	s.logg.Info(ctx, "listing published")
	return listing, nil
}

func (s *service) validateCreate(input CreateInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown food category")
	}
	if strings.TrimSpace(input.Unit) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit is required")
	}
	if input.Quantity < 1 || input.Quantity > maxListingQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 500")
	}
	if !input.AvailableUntil.After(input.AvailableFrom) {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup window must end after it starts")
	}
	if !input.AvailableUntil.After(s.now()) {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup window must end in the future")
	}
	return nil
}

func (s *service) Browse(ctx context.Context, params BrowseParams) (*Page, error) {
	if params.Category != nil && !params.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown food category")
	}
	rows, next, err := s.repo.ListAvailable(ctx, params, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to browse listings")
	}
	return buildPage(rows, next), nil
}

func (s *service) ListOwn(ctx context.Context, orgID uuid.UUID, params pagination.Params) (*Page, error) {
	rows, next, err := s.repo.ListByOrganization(ctx, orgID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list organization listings")
	}
	return buildPage(rows, next), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load listing")
	}
	available, err := s.repo.CountAvailableItems(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count available items")
	}
	return &Detail{Listing: *listing, AvailableItems: available}, nil
}

func buildPage(rows []models.FoodListing, next *pagination.Cursor) *Page {
	page := &Page{Listings: rows}
	if next != nil {
		page.NextCursor = next
	}
	return page
}
