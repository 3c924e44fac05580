package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/replate-app/replate-backend/pkg/errors"
	"github.com/replate-app/replate-backend/pkg/logger"
)

// recentActivityWindow bounds the "recent collected" metric.
const recentActivityWindow = 30 * 24 * time.Hour

// Service computes and persists SDG scores for organizations.
type Service interface {
	GatherMetrics(ctx context.Context, orgID uuid.UUID, now time.Time) (Metrics, error)
	Recalculate(ctx context.Context, orgID uuid.UUID, now time.Time) (float64, error)
	RecalculateAll(ctx context.Context, now time.Time) (int, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the SDG scoring service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("scoring repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// GatherMetrics reads the seven raw score inputs for one organization as of
// the supplied time.
func (s *service) GatherMetrics(ctx context.Context, orgID uuid.UUID, now time.Time) (Metrics, error) {
	org, err := s.repo.FindOrganization(ctx, orgID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return Metrics{}, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return Metrics{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}

	total, collected, err := s.repo.CountClaims(ctx, orgID)
	if err != nil {
		return Metrics{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count claims")
	}
	active, err := s.repo.CountActiveListings(ctx, orgID, now)
	if err != nil {
		return Metrics{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active listings")
	}
	categories, err := s.repo.CountDistinctCategories(ctx, orgID)
	if err != nil {
		return Metrics{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count categories")
	}
	recent, err := s.repo.CountCollectedSince(ctx, orgID, now.Add(-recentActivityWindow))
	if err != nil {
		return Metrics{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count recent collections")
	}

	return Metrics{
		TotalImpactPoints:  org.TotalImpactPoints,
		TotalDonations:     org.TotalDonations,
		TotalClaims:        int(total),
		CollectedClaims:    int(collected),
		ActiveListings:     int(active),
		DistinctCategories: int(categories),
		RecentCollected:    int(recent),
		AccountAgeDays:     now.Sub(org.CreatedAt).Hours() / 24,
	}, nil
}

// Recalculate gathers metrics, computes the score and persists it.
func (s *service) Recalculate(ctx context.Context, orgID uuid.UUID, now time.Time) (float64, error) {
	metrics, err := s.GatherMetrics(ctx, orgID, now)
	if err != nil {
		return 0, err
	}
	score := CalculateSDGScore(metrics)
	if err := s.repo.UpdateSDGScore(ctx, orgID, score); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist sdg score")
	}
	return score, nil
}

// RecalculateAll scores every approved organization, continuing past
// individual failures. Failures are logged; the success count is returned.
func (s *service) RecalculateAll(ctx context.Context, now time.Time) (int, error) {
	orgs, err := s.repo.ListApprovedOrganizations(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list approved organizations")
	}

	succeeded := 0
	for _, org := range orgs {
		if _, err := s.Recalculate(ctx, org.ID, now); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("sdg score recalculation failed for organization %s", org.ID), err)
			continue
		}
		succeeded++
	}
	return succeeded, nil
}
