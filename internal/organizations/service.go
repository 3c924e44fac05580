package organizations

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
)

const defaultLeaderboardSize = 50

// Service exposes organization onboarding, moderation and the leaderboard.
type Service interface {
	Apply(ctx context.Context, input ApplyInput) (*models.Organization, error)
	Approve(ctx context.Context, input ModerateInput) (*models.Organization, error)
	Reject(ctx context.Context, input ModerateInput) (*models.Organization, error)
	Ban(ctx context.Context, input ModerateInput) (*models.Organization, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Organization, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the organizations service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("organizations repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) Apply(ctx context.Context, input ApplyInput) (*models.Organization, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization name is required")
	}
	if strings.TrimSpace(input.ContactEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact email is required")
	}

	owner, err := s.repo.FindUser(ctx, input.OwnerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "owner user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load owner user")
	}
	if owner.Role != enums.RoleOrganization {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only organization accounts can apply")
	}
	if owner.IsBanned {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "banned accounts cannot apply")
	}

	if _, err := s.repo.FindByOwner(ctx, input.OwnerUserID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an organization already exists for this account")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check existing organization")
	}

	org := &models.Organization{
		OwnerUserID:    input.OwnerUserID,
		Name:           strings.TrimSpace(input.Name),
		Description:    strings.TrimSpace(input.Description),
		CampusLocation: strings.TrimSpace(input.CampusLocation),
		ContactEmail:   strings.ToLower(strings.TrimSpace(input.ContactEmail)),
		Status:         enums.OrganizationStatusPending,
	}
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create organization")
	}

	ctx = s.logg.WithOrganizationID(ctx, org.ID.String())
	s.logg.Info(ctx, "organization application received")
	return org, nil
}

func (s *service) Approve(ctx context.Context, input ModerateInput) (*models.Organization, error) {
	return s.moderate(ctx, input, "approve",
		[]enums.OrganizationStatus{enums.OrganizationStatusPending},
		map[string]interface{}{
			"status":      enums.OrganizationStatusApproved,
			"approved_at": s.now().UTC(),
		})
}

func (s *service) Reject(ctx context.Context, input ModerateInput) (*models.Organization, error) {
	return s.moderate(ctx, input, "reject",
		[]enums.OrganizationStatus{enums.OrganizationStatusPending},
		map[string]interface{}{"status": enums.OrganizationStatusRejected})
}

func (s *service) Ban(ctx context.Context, input ModerateInput) (*models.Organization, error) {
	return s.moderate(ctx, input, "ban",
		[]enums.OrganizationStatus{enums.OrganizationStatusPending, enums.OrganizationStatusApproved},
		map[string]interface{}{"status": enums.OrganizationStatusBanned})
}

func (s *service) moderate(ctx context.Context, input ModerateInput, action string, from []enums.OrganizationStatus, updates map[string]interface{}) (*models.Organization, error) {
	if input.ActorRole != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can moderate organizations")
	}

	affected, err := s.repo.UpdateStatusFrom(ctx, input.OrganizationID, from, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update organization status")
	}
	if affected == 0 {
		if _, err := s.repo.FindByID(ctx, input.OrganizationID); errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "organization status does not allow this action")
	}

	org, err := s.repo.FindByID(ctx, input.OrganizationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to reload organization")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"organization_id": org.ID,
		"action":          action,
	})
	s.logg.Info(ctx, "organization moderated")
	return org, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load organization")
	}
	return org, nil
}

func (s *service) GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Organization, error) {
	org, err := s.repo.FindByOwner(ctx, ownerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load organization")
	}
	return org, nil
}

func (s *service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > defaultLeaderboardSize {
		limit = defaultLeaderboardSize
	}
	rows, err := s.repo.ListRanked(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load leaderboard")
	}
	entries := make([]LeaderboardEntry, 0, len(rows))
	for _, org := range rows {
		entries = append(entries, leaderboardEntry(org))
	}
	return entries, nil
}
