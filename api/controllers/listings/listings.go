package listings

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/replate-app/replate-backend/api/middleware"
	"github.com/replate-app/replate-backend/api/responses"
	"github.com/replate-app/replate-backend/api/validators"
	listingsvc "github.com/replate-app/replate-backend/internal/listings"
	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	pkgerrors "github.com/replate-app/replate-backend/pkg/errors"
	"github.com/replate-app/replate-backend/pkg/logger"
	"github.com/replate-app/replate-backend/pkg/pagination"
)

type createRequest struct {
	Title          string    `json:"title" validate:"required,min=2,max=200"`
	Description    string    `json:"description,omitempty" validate:"max=2000"`
	Category       string    `json:"category" validate:"required"`
	Unit           string    `json:"unit" validate:"required,max=50"`
	Quantity       int       `json:"quantity" validate:"required,min=1"`
	PickupNotes    string    `json:"pickup_notes,omitempty" validate:"max=1000"`
	AvailableFrom  time.Time `json:"available_from" validate:"required"`
	AvailableUntil time.Time `json:"available_until" validate:"required"`
}

type pageResponse struct {
	Listings   []models.FoodListing `json:"listings"`
	NextCursor *string              `json:"next_cursor,omitempty"`
}

func pageOf(page *listingsvc.Page) pageResponse {
	resp := pageResponse{Listings: page.Listings}
	if page.NextCursor != nil {
		encoded := pagination.EncodeCursor(*page.NextCursor)
		resp.NextCursor = &encoded
	}
	return resp
}

func organizationID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.OrganizationIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organization id")
	}
	return id, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

// Create publishes a surplus listing for the caller's organization.
func Create(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseFoodCategory(body.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}

		listing, err := svc.Create(r.Context(), listingsvc.CreateInput{
			OrganizationID: orgID,
			Title:          strings.TrimSpace(body.Title),
			Description:    strings.TrimSpace(body.Description),
			Category:       category,
			Unit:           body.Unit,
			Quantity:       body.Quantity,
			PickupNotes:    strings.TrimSpace(body.PickupNotes),
			AvailableFrom:  body.AvailableFrom,
			AvailableUntil: body.AvailableUntil,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

// Browse serves the public feed of active listings.
func Browse(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		browse := listingsvc.BrowseParams{Page: params}
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category, err := enums.ParseFoodCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			browse.Category = &category
		}

		page, err := svc.Browse(r.Context(), browse)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pageOf(page))
	}
}

// Mine lists the caller organization's own listings, expired ones included.
func Mine(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListOwn(r.Context(), orgID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pageOf(page))
	}
}

// Detail returns one listing with its live availability count.
func Detail(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "listingId"), "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"listing":         detail.Listing,
			"available_items": detail.AvailableItems,
		})
	}
}
