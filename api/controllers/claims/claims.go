package claims

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/replate-app/replate-backend/api/middleware"
	"github.com/replate-app/replate-backend/api/responses"
	"github.com/replate-app/replate-backend/api/validators"
	claimsvc "github.com/replate-app/replate-backend/internal/claims"
	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	pkgerrors "github.com/replate-app/replate-backend/pkg/errors"
	"github.com/replate-app/replate-backend/pkg/logger"
	"github.com/replate-app/replate-backend/pkg/pagination"
)

type createRequest struct {
	ListingID string `json:"listing_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type transitionRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type listResponse struct {
	Claims     []models.Claim `json:"claims"`
	NextCursor *string        `json:"next_cursor,omitempty"`
}

func actorFromContext(r *http.Request) (claimsvc.Actor, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return claimsvc.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	uid, err := uuid.Parse(raw)
	if err != nil {
		return claimsvc.Actor{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}

	actor := claimsvc.Actor{
		UserID: uid,
		Role:   enums.UserRole(middleware.RoleFromContext(r.Context())),
	}
	if orgRaw := middleware.OrganizationIDFromContext(r.Context()); orgRaw != "" {
		orgID, err := uuid.Parse(orgRaw)
		if err != nil {
			return claimsvc.Actor{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organization id")
		}
		actor.OrganizationID = &orgID
	}
	return actor, nil
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

// Create reserves items from a listing for the calling student.
func Create(svc claimsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claim service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := uuid.Parse(body.ListingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id"))
			return
		}

		created, err := svc.Create(r.Context(), claimsvc.CreateInput{
			ListingID: listingID,
			Quantity:  body.Quantity,
			Actor:     actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type transitionFn func(svc claimsvc.Service, r *http.Request, input claimsvc.TransitionInput) (*models.Claim, error)

func transitionHandler(svc claimsvc.Service, logg *logger.Logger, fn transitionFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claim service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claimID, err := validators.ParsePathUUID(chi.URLParam(r, "claimId"), "claimId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := claimsvc.TransitionInput{ClaimID: claimID, Actor: actor}
		if r.ContentLength > 0 {
			var body transitionRequest
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Reason = body.Reason
		}

		claim, err := fn(svc, r, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, claim)
	}
}

// Confirm moves a pending claim to confirmed.
func Confirm(svc claimsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc claimsvc.Service, r *http.Request, input claimsvc.TransitionInput) (*models.Claim, error) {
		return svc.Confirm(r.Context(), input)
	})
}

// Ready marks a confirmed claim ready for pickup.
func Ready(svc claimsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc claimsvc.Service, r *http.Request, input claimsvc.TransitionInput) (*models.Claim, error) {
		return svc.MarkReady(r.Context(), input)
	})
}

// Collect completes a pickup and awards impact points.
func Collect(svc claimsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc claimsvc.Service, r *http.Request, input claimsvc.TransitionInput) (*models.Claim, error) {
		return svc.Collect(r.Context(), input)
	})
}

// NoShow records a missed pickup and releases the item.
func NoShow(svc claimsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc claimsvc.Service, r *http.Request, input claimsvc.TransitionInput) (*models.Claim, error) {
		return svc.MarkNoShow(r.Context(), input)
	})
}

// Cancel withdraws a live claim and releases the item.
func Cancel(svc claimsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc claimsvc.Service, r *http.Request, input claimsvc.TransitionInput) (*models.Claim, error) {
		return svc.Cancel(r.Context(), input)
	})
}

// Mine lists the calling student's claims.
func Mine(svc claimsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claim service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.ListMine(r.Context(), actor.UserID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listPage(rows, next))
	}
}

// ForOrganization lists claims against the caller organization's listings.
func ForOrganization(svc claimsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claim service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actor.OrganizationID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.ListForOrganization(r.Context(), *actor.OrganizationID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listPage(rows, next))
	}
}

func listPage(rows []models.Claim, next *pagination.Cursor) listResponse {
	resp := listResponse{Claims: rows}
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		resp.NextCursor = &encoded
	}
	return resp
}
