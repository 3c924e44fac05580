package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/replate-app/replate-backend/internal/ranking"
)

type fakePruner struct {
	lastCutoff time.Time
	called     int
	err        error
}

func (f *fakePruner) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

func TestOutboxRetentionJobUsesConfiguredCutoff(t *testing.T) {
	now := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	pruner := &fakePruner{}

	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     testLogger(),
		Repository: pruner,
		Retention:  72 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	job := jobIface.(*outboxRetentionJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	expected := now.Add(-72 * time.Hour)
	if !pruner.lastCutoff.Equal(expected) {
		t.Fatalf("expected cutoff %s, got %s", expected, pruner.lastCutoff)
	}
	if pruner.called != 1 {
		t.Fatalf("expected one delete call, got %d", pruner.called)
	}
}

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     testLogger(),
		Repository: &fakePruner{err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type fakeScoring struct {
	called int
	err    error
}

func (f *fakeScoring) RecalculateAll(context.Context, time.Time) (int, error) {
	f.called++
	return 3, f.err
}

type fakeRanking struct {
	lastInput ranking.RecalculateInput
	called    int
	err       error
}

func (f *fakeRanking) Recalculate(_ context.Context, input ranking.RecalculateInput) (*ranking.Result, error) {
	f.called++
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &ranking.Result{RankedCount: 2}, nil
}

func TestRankingRefreshJobSkipsAuth(t *testing.T) {
	scoring := &fakeScoring{}
	rank := &fakeRanking{}

	job, err := NewRankingRefreshJob(RankingRefreshJobParams{
		Logger:  testLogger(),
		Scoring: scoring,
		Ranking: rank,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if scoring.called != 1 || rank.called != 1 {
		t.Fatalf("expected both services invoked, got scoring=%d ranking=%d", scoring.called, rank.called)
	}
	if !rank.lastInput.SkipAuth {
		t.Fatalf("scheduled refresh must bypass the admin check")
	}
}

func TestRankingRefreshJobCombinesFailures(t *testing.T) {
	scoring := &fakeScoring{err: errors.New("scores down")}
	rank := &fakeRanking{}

	job, err := NewRankingRefreshJob(RankingRefreshJobParams{
		Logger:  testLogger(),
		Scoring: scoring,
		Ranking: rank,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected combined error")
	}
	if rank.called != 1 {
		t.Fatalf("ranking must still run when scoring fails")
	}
}
