package ranking

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	pkgerrors "github.com/replate-app/replate-backend/pkg/errors"
	"github.com/replate-app/replate-backend/pkg/logger"
)

// Factor weights. They sum to 100, the maximum possible score.
const (
	weightImpact         = 25.0
	weightDonations      = 20.0
	weightSuccessRate    = 15.0
	weightActiveListings = 10.0
	weightResponseTime   = 10.0
	weightVariety        = 10.0
	weightRecentActivity = 5.0
	weightAccountAge     = 5.0
)

const (
	// responseTimeDefault applies when an organization has no claimed
	// listings yet.
	responseTimeDefault = 5.0
	responseTimeCapHrs  = 48.0
	accountAgeCapMonths = 6.0
	recentWindow        = 30 * 24 * time.Hour
	daysPerMonth        = 30.0
)

// RecalculateInput carries the caller identity and clock for a ranking run.
type RecalculateInput struct {
	ActorRole enums.UserRole
	SkipAuth  bool
	Now       time.Time
}

// Summary is one row of the ranked result, ordered best first.
type Summary struct {
	Rank           int       `json:"rank"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Score          float64   `json:"score"`
}

// Result reports the outcome of a ranking run.
type Result struct {
	RankedCount int       `json:"ranked_count"`
	Rankings    []Summary `json:"rankings"`
}

// Service recomputes the organization leaderboard from scratch.
type Service interface {
	Recalculate(ctx context.Context, input RecalculateInput) (*Result, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the ranking engine.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ranking repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// orgStats holds the raw per-organization inputs to the 8-factor formula.
type orgStats struct {
	org             models.Organization
	totalClaims     int64
	collectedClaims int64
	activeListings  int64
	categories      int64
	recentCollected int64
	avgResponseHrs  *float64
}

func (s *service) Recalculate(ctx context.Context, input RecalculateInput) (*Result, error) {
	if !input.SkipAuth && input.ActorRole != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "ranking recalculation requires admin access")
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	orgs, err := s.repo.ListApprovedOrganizations(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list approved organizations")
	}

	eligible := make([]orgStats, 0, len(orgs))
	for _, org := range orgs {
		if org.TotalDonations <= 0 {
			continue
		}
		stats, err := s.gatherStats(ctx, org, now)
		if err != nil {
			return nil, err
		}
		eligible = append(eligible, stats)
	}

	var maxImpact, maxDonations, maxActive float64
	for _, st := range eligible {
		maxImpact = math.Max(maxImpact, st.org.TotalImpactPoints)
		maxDonations = math.Max(maxDonations, float64(st.org.TotalDonations))
		maxActive = math.Max(maxActive, float64(st.activeListings))
	}

	type scored struct {
		stats orgStats
		score float64
	}
	scores := make([]scored, 0, len(eligible))
	for _, st := range eligible {
		scores = append(scores, scored{
			stats: st,
			score: computeScore(st, maxImpact, maxDonations, maxActive, now),
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].stats.org.TotalImpactPoints > scores[j].stats.org.TotalImpactPoints
	})

	summaries := make([]Summary, 0, len(scores))
	for i, sc := range scores {
		rank := i + 1
		if err := s.repo.UpdateScoreAndRank(ctx, sc.stats.org.ID, sc.score, rank); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist score and rank")
		}
		summaries = append(summaries, Summary{
			Rank:           rank,
			OrganizationID: sc.stats.org.ID,
			Name:           sc.stats.org.Name,
			Score:          sc.score,
		})
	}

	if err := s.repo.ResetIneligible(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset ineligible organizations")
	}

	s.logg.Info(s.logg.WithField(ctx, "ranked_count", len(summaries)), "organization rankings recalculated")
	return &Result{RankedCount: len(summaries), Rankings: summaries}, nil
}

func (s *service) gatherStats(ctx context.Context, org models.Organization, now time.Time) (orgStats, error) {
	total, collected, err := s.repo.CountClaims(ctx, org.ID)
	if err != nil {
		return orgStats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count claims")
	}
	active, err := s.repo.CountActiveListings(ctx, org.ID, now)
	if err != nil {
		return orgStats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active listings")
	}
	categories, err := s.repo.CountDistinctCategories(ctx, org.ID)
	if err != nil {
		return orgStats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count categories")
	}
	recent, err := s.repo.CountCollectedSince(ctx, org.ID, now.Add(-recentWindow))
	if err != nil {
		return orgStats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count recent collections")
	}
	latencies, err := s.repo.ListClaimLatencies(ctx, org.ID)
	if err != nil {
		return orgStats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list claim latencies")
	}

	var avgResponseHrs *float64
	if len(latencies) > 0 {
		sum := 0.0
		for _, lat := range latencies {
			hrs := lat.FirstClaimAt.Sub(lat.CreatedAt).Hours()
			if hrs < 0 {
				hrs = 0
			}
			sum += hrs
		}
		avg := sum / float64(len(latencies))
		avgResponseHrs = &avg
	}

	return orgStats{
		org:             org,
		totalClaims:     total,
		collectedClaims: collected,
		activeListings:  active,
		categories:      categories,
		recentCollected: recent,
		avgResponseHrs:  avgResponseHrs,
	}, nil
}

func computeScore(st orgStats, maxImpact, maxDonations, maxActive float64, now time.Time) float64 {
	score := 0.0

	if maxImpact > 0 {
		score += st.org.TotalImpactPoints / maxImpact * weightImpact
	}
	if maxDonations > 0 {
		score += float64(st.org.TotalDonations) / maxDonations * weightDonations
	}
	if st.totalClaims > 0 {
		score += float64(st.collectedClaims) / float64(st.totalClaims) * weightSuccessRate
	}
	if maxActive > 0 {
		score += float64(st.activeListings) / maxActive * weightActiveListings
	}

	if st.avgResponseHrs == nil {
		score += responseTimeDefault
	} else {
		score += (1 - math.Min(*st.avgResponseHrs/responseTimeCapHrs, 1)) * weightResponseTime
	}

	score += math.Min(float64(st.categories)/enums.FoodCategoryCount, 1) * weightVariety

	months := monthsSinceApproval(st.org, now)
	if st.recentCollected > 0 {
		historicalMonthly := 0.0
		if months > 0 {
			historicalMonthly = float64(st.collectedClaims) / months
		}
		if historicalMonthly == 0 {
			score += weightRecentActivity
		} else {
			score += math.Min(float64(st.recentCollected)/historicalMonthly, 1) * weightRecentActivity
		}
	}

	score += math.Min(months, accountAgeCapMonths) / accountAgeCapMonths * weightAccountAge

	return math.Round(score*100) / 100
}

func monthsSinceApproval(org models.Organization, now time.Time) float64 {
	since := org.CreatedAt
	if org.ApprovedAt != nil {
		since = *org.ApprovedAt
	}
	days := now.Sub(since).Hours() / 24
	if days < 0 {
		return 0
	}
	return days / daysPerMonth
}
