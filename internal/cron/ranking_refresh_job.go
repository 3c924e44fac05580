package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/replate-app/replate-backend/internal/ranking"
	"github.com/replate-app/replate-backend/pkg/logger"
)

type sdgRecalculator interface {
	RecalculateAll(ctx context.Context, now time.Time) (int, error)
}

type rankingRecalculator interface {
	Recalculate(ctx context.Context, input ranking.RecalculateInput) (*ranking.Result, error)
}

// RankingRefreshJobParams configure the nightly leaderboard refresh.
type RankingRefreshJobParams struct {
	Logger  *logger.Logger
	Scoring sdgRecalculator
	Ranking rankingRecalculator
}

// NewRankingRefreshJob builds the job that recomputes all SDG scores and the
// full leaderboard.
func NewRankingRefreshJob(params RankingRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Scoring == nil {
		return nil, fmt.Errorf("scoring service required")
	}
	if params.Ranking == nil {
		return nil, fmt.Errorf("ranking service required")
	}
	return &rankingRefreshJob{
		logg:    params.Logger,
		scoring: params.Scoring,
		ranking: params.Ranking,
		now:     time.Now,
	}, nil
}

type rankingRefreshJob struct {
	logg    *logger.Logger
	scoring sdgRecalculator
	ranking rankingRecalculator
	now     func() time.Time
}

func (j *rankingRefreshJob) Name() string { return "ranking-refresh" }

func (j *rankingRefreshJob) Run(ctx context.Context) error {
	now := j.now().UTC()

	var errs []error
	scored, err := j.scoring.RecalculateAll(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("recalculate sdg scores: %w", err))
	}

	result, err := j.ranking.Recalculate(ctx, ranking.RecalculateInput{SkipAuth: true, Now: now})
	if err != nil {
		errs = append(errs, fmt.Errorf("recalculate rankings: %w", err))
	}

	ranked := 0
	if result != nil {
		ranked = result.RankedCount
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scored": scored,
		"ranked": ranked,
	})
	j.logg.Info(logCtx, "nightly ranking refresh complete")
	return multierr.Combine(errs...)
}
