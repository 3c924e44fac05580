package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/replate-app/replate-backend/internal/auth"
	"github.com/replate-app/replate-backend/internal/claims"
	"github.com/replate-app/replate-backend/internal/listings"
	"github.com/replate-app/replate-backend/internal/organizations"
	"github.com/replate-app/replate-backend/internal/ranking"
	"github.com/replate-app/replate-backend/internal/users"
	pkgAuth "github.com/replate-app/replate-backend/pkg/auth"
	"github.com/replate-app/replate-backend/pkg/auth/session"
	"github.com/replate-app/replate-backend/pkg/config"
	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	"github.com/replate-app/replate-backend/pkg/logger"
	"github.com/replate-app/replate-backend/pkg/pagination"
)

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, auth.RegisterRequest) (*auth.UserSummary, error) {
	return &auth.UserSummary{}, nil
}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Logout(context.Context, string) error {
	return nil
}

type stubListingService struct{}

func (stubListingService) Create(context.Context, listings.CreateInput) (*models.FoodListing, error) {
	return &models.FoodListing{}, nil
}

func (stubListingService) Browse(context.Context, listings.BrowseParams) (*listings.Page, error) {
	return &listings.Page{}, nil
}

func (stubListingService) ListOwn(context.Context, uuid.UUID, pagination.Params) (*listings.Page, error) {
	return &listings.Page{}, nil
}

func (stubListingService) Get(context.Context, uuid.UUID) (*listings.Detail, error) {
	return &listings.Detail{}, nil
}

type stubClaimService struct{}

func (stubClaimService) Create(context.Context, claims.CreateInput) ([]models.Claim, error) {
	return nil, nil
}

func (stubClaimService) Confirm(context.Context, claims.TransitionInput) (*models.Claim, error) {
	return &models.Claim{}, nil
}

func (stubClaimService) MarkReady(context.Context, claims.TransitionInput) (*models.Claim, error) {
	return &models.Claim{}, nil
}

func (stubClaimService) Collect(context.Context, claims.TransitionInput) (*models.Claim, error) {
	return &models.Claim{}, nil
}

func (stubClaimService) MarkNoShow(context.Context, claims.TransitionInput) (*models.Claim, error) {
	return &models.Claim{}, nil
}

func (stubClaimService) Cancel(context.Context, claims.TransitionInput) (*models.Claim, error) {
	return &models.Claim{}, nil
}

func (stubClaimService) ListMine(context.Context, uuid.UUID, pagination.Params) ([]models.Claim, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (stubClaimService) ListForOrganization(context.Context, uuid.UUID, pagination.Params) ([]models.Claim, *pagination.Cursor, error) {
	return nil, nil, nil
}

type stubOrganizationService struct{}

func (stubOrganizationService) Apply(context.Context, organizations.ApplyInput) (*models.Organization, error) {
	return &models.Organization{}, nil
}

func (stubOrganizationService) Approve(context.Context, organizations.ModerateInput) (*models.Organization, error) {
	return &models.Organization{}, nil
}

func (stubOrganizationService) Reject(context.Context, organizations.ModerateInput) (*models.Organization, error) {
	return &models.Organization{}, nil
}

func (stubOrganizationService) Ban(context.Context, organizations.ModerateInput) (*models.Organization, error) {
	return &models.Organization{}, nil
}

func (stubOrganizationService) Get(context.Context, uuid.UUID) (*models.Organization, error) {
	return &models.Organization{}, nil
}

func (stubOrganizationService) GetByOwner(context.Context, uuid.UUID) (*models.Organization, error) {
	return &models.Organization{}, nil
}

func (stubOrganizationService) Leaderboard(context.Context, int) ([]organizations.LeaderboardEntry, error) {
	return nil, nil
}

type stubUserService struct{}

func (stubUserService) Get(context.Context, uuid.UUID) (*models.User, error) {
	return &models.User{}, nil
}

func (stubUserService) Ban(context.Context, users.ModerateInput) (*models.User, error) {
	return &models.User{}, nil
}

func (stubUserService) Unban(context.Context, users.ModerateInput) (*models.User, error) {
	return &models.User{}, nil
}

type stubRankingService struct{}

func (stubRankingService) Recalculate(context.Context, ranking.RecalculateInput) (*ranking.Result, error) {
	return &ranking.Result{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		nil,
		nil,
		stubSessions{},
		Services{
			Auth:          stubAuthService{},
			Listings:      stubListingService{},
			Claims:        stubClaimService{},
			Organizations: stubOrganizationService{},
			Users:         stubUserService{},
			Ranking:       stubRankingService{},
		},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole, orgID *uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:         uuid.New(),
		Role:           role,
		OrganizationID: orgID,
		JTI:            session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestProtectedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestLeaderboardIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rankings/leaderboard", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	student := httptest.NewRequest(http.MethodPost, "/api/admin/v1/rankings/recalculate", nil)
	student.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleStudent, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, student)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodPost, "/api/admin/v1/rankings/recalculate", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin, nil))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestListingMineRequiresOrganizationRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	student := httptest.NewRequest(http.MethodGet, "/api/v1/listings/mine", nil)
	student.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleStudent, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, student)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student got %d", resp.Code)
	}

	orgID := uuid.New()
	org := httptest.NewRequest(http.MethodGet, "/api/v1/listings/mine", nil)
	org.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleOrganization, &orgID))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, org)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for organization got %d", resp.Code)
	}
}

func TestClaimCreateRequiresStudentRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	orgID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/claims", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleOrganization, &orgID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for organization got %d", resp.Code)
	}
}
