package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/replate-app/replate-backend/api/controllers"
	admincontrollers "github.com/replate-app/replate-backend/api/controllers/admin"
	claimcontrollers "github.com/replate-app/replate-backend/api/controllers/claims"
	listingcontrollers "github.com/replate-app/replate-backend/api/controllers/listings"
	rankingcontrollers "github.com/replate-app/replate-backend/api/controllers/rankings"
	"github.com/replate-app/replate-backend/api/middleware"
	"github.com/replate-app/replate-backend/internal/auth"
	"github.com/replate-app/replate-backend/internal/claims"
	"github.com/replate-app/replate-backend/internal/listings"
	"github.com/replate-app/replate-backend/internal/organizations"
	"github.com/replate-app/replate-backend/internal/ranking"
	"github.com/replate-app/replate-backend/internal/users"
	"github.com/replate-app/replate-backend/pkg/auth/session"
	"github.com/replate-app/replate-backend/pkg/config"
	"github.com/replate-app/replate-backend/pkg/db"
	"github.com/replate-app/replate-backend/pkg/enums"
	"github.com/replate-app/replate-backend/pkg/logger"
	"github.com/replate-app/replate-backend/pkg/redis"
)

// Services bundles every domain service the router exposes.
type Services struct {
	Auth          auth.Service
	Listings      listings.Service
	Claims        claims.Service
	Organizations organizations.Service
	Users         users.Service
	Ranking       ranking.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.HealthDeps(dbClient, redisClient)))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))
	})

	// The leaderboard is the one read surface open without credentials.
	r.Get("/api/v1/rankings/leaderboard", rankingcontrollers.Leaderboard(svcs.Organizations, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", listingcontrollers.Browse(svcs.Listings, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.RoleOrganization), logg))
				r.Post("/", listingcontrollers.Create(svcs.Listings, logg))
				r.Get("/mine", listingcontrollers.Mine(svcs.Listings, logg))
			})

			r.Get("/{listingId}", listingcontrollers.Detail(svcs.Listings, logg))
		})

		r.Route("/claims", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.RoleStudent), logg))
				r.Post("/", claimcontrollers.Create(svcs.Claims, logg))
				r.Get("/mine", claimcontrollers.Mine(svcs.Claims, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.RoleOrganization), logg))
				r.Get("/organization", claimcontrollers.ForOrganization(svcs.Claims, logg))
				r.Post("/{claimId}/confirm", claimcontrollers.Confirm(svcs.Claims, logg))
				r.Post("/{claimId}/ready", claimcontrollers.Ready(svcs.Claims, logg))
				r.Post("/{claimId}/no-show", claimcontrollers.NoShow(svcs.Claims, logg))
			})

			// Students and organizations can both collect and cancel;
			// the service decides who may touch which claim.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(logg, string(enums.RoleStudent), string(enums.RoleOrganization)))
				r.Post("/{claimId}/collect", claimcontrollers.Collect(svcs.Claims, logg))
				r.Post("/{claimId}/cancel", claimcontrollers.Cancel(svcs.Claims, logg))
			})
		})

		r.Route("/organizations", func(r chi.Router) {
			r.With(middleware.RequireRole(string(enums.RoleOrganization), logg)).Post("/apply", controllers.OrganizationApply(svcs.Organizations, logg))
			r.With(middleware.RequireRole(string(enums.RoleOrganization), logg)).Get("/me", controllers.OrganizationMine(svcs.Organizations, logg))
			r.Get("/{orgId}", controllers.OrganizationGet(svcs.Organizations, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))

		r.Route("/organizations", func(r chi.Router) {
			r.Post("/{orgId}/approve", admincontrollers.OrganizationApprove(svcs.Organizations, logg))
			r.Post("/{orgId}/reject", admincontrollers.OrganizationReject(svcs.Organizations, logg))
			r.Post("/{orgId}/ban", admincontrollers.OrganizationBan(svcs.Organizations, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/{userId}/ban", admincontrollers.UserBan(svcs.Users, logg))
			r.Post("/{userId}/unban", admincontrollers.UserUnban(svcs.Users, logg))
		})

		r.Post("/rankings/recalculate", rankingcontrollers.Recalculate(svcs.Ranking, logg))
	})

	return r
}
