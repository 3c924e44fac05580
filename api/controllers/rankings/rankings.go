package rankings

import (
	"net/http"
	"time"

	"github.com/replate-app/replate-backend/api/middleware"
	"github.com/replate-app/replate-backend/api/responses"
	"github.com/replate-app/replate-backend/api/validators"
	"github.com/replate-app/replate-backend/internal/organizations"
	"github.com/replate-app/replate-backend/internal/ranking"
	"github.com/replate-app/replate-backend/pkg/enums"
	pkgerrors "github.com/replate-app/replate-backend/pkg/errors"
	"github.com/replate-app/replate-backend/pkg/logger"
)

const maxLeaderboardSize = 100

// Leaderboard serves the public organization leaderboard, best rank first.
func Leaderboard(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "organization service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, maxLeaderboardSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.Leaderboard(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"leaderboard": entries})
	}
}

// Recalculate triggers a full ranking run. Admin only.
func Recalculate(svc ranking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ranking service unavailable"))
			return
		}

		result, err := svc.Recalculate(r.Context(), ranking.RecalculateInput{
			ActorRole: enums.UserRole(middleware.RoleFromContext(r.Context())),
			Now:       time.Now(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
