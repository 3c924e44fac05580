package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/replate-app/replate-backend/api/middleware"
	"github.com/replate-app/replate-backend/api/responses"
	"github.com/replate-app/replate-backend/api/validators"
	"github.com/replate-app/replate-backend/internal/organizations"
	"github.com/replate-app/replate-backend/internal/users"
	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	pkgerrors "github.com/replate-app/replate-backend/pkg/errors"
	"github.com/replate-app/replate-backend/pkg/logger"
)

func actorRole(r *http.Request) enums.UserRole {
	return enums.UserRole(middleware.RoleFromContext(r.Context()))
}

type orgModeration func(svc organizations.Service, r *http.Request, input organizations.ModerateInput) (*models.Organization, error)

func organizationHandler(svc organizations.Service, logg *logger.Logger, fn orgModeration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "organization service unavailable"))
			return
		}

		orgID, err := validators.ParsePathUUID(chi.URLParam(r, "orgId"), "orgId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		org, err := fn(svc, r, organizations.ModerateInput{
			OrganizationID: orgID,
			ActorRole:      actorRole(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, org)
	}
}

// OrganizationApprove admits a pending organization onto the platform.
func OrganizationApprove(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return organizationHandler(svc, logg, func(svc organizations.Service, r *http.Request, input organizations.ModerateInput) (*models.Organization, error) {
		return svc.Approve(r.Context(), input)
	})
}

// OrganizationReject declines a pending application.
func OrganizationReject(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return organizationHandler(svc, logg, func(svc organizations.Service, r *http.Request, input organizations.ModerateInput) (*models.Organization, error) {
		return svc.Reject(r.Context(), input)
	})
}

// OrganizationBan removes an organization from the platform.
func OrganizationBan(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return organizationHandler(svc, logg, func(svc organizations.Service, r *http.Request, input organizations.ModerateInput) (*models.Organization, error) {
		return svc.Ban(r.Context(), input)
	})
}

type userModeration func(svc users.Service, r *http.Request, input users.ModerateInput) (*models.User, error)

type moderatedUser struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Role      enums.UserRole `json:"role"`
	IsBanned  bool           `json:"is_banned"`
}

func userHandler(svc users.Service, logg *logger.Logger, fn userModeration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := validators.ParsePathUUID(chi.URLParam(r, "userId"), "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := fn(svc, r, users.ModerateInput{
			UserID:    userID,
			ActorRole: actorRole(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, moderatedUser{
			ID:        user.ID.String(),
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Role:      user.Role,
			IsBanned:  user.IsBanned,
		})
	}
}

// UserBan blocks a user account.
func UserBan(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return userHandler(svc, logg, func(svc users.Service, r *http.Request, input users.ModerateInput) (*models.User, error) {
		return svc.Ban(r.Context(), input)
	})
}

// UserUnban restores a previously banned account.
func UserUnban(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return userHandler(svc, logg, func(svc users.Service, r *http.Request, input users.ModerateInput) (*models.User, error) {
		return svc.Unban(r.Context(), input)
	})
}
