package ranking

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	"github.com/replate-app/replate-backend/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:ranking_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.FoodListing{},
		&models.FoodItem{},
		&models.Claim{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), logger.New(logger.Options{Output: io.Discard}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedOrg(t *testing.T, db *gorm.DB, name string, status enums.OrganizationStatus, impactPoints float64, donations int, now time.Time) *models.Organization {
	t.Helper()
	owner := models.User{Email: uuid.NewString() + "@campus.edu", PasswordHash: "x", FirstName: "Org", LastName: "Owner", Role: enums.RoleOrganization}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	approvedAt := now.Add(-90 * 24 * time.Hour)
	org := models.Organization{
		OwnerUserID:       owner.ID,
		Name:              name,
		ContactEmail:      name + "@campus.edu",
		Status:            status,
		TotalImpactPoints: impactPoints,
		TotalDonations:    donations,
		CreatedAt:         approvedAt,
	}
	if status == enums.OrganizationStatusApproved {
		org.ApprovedAt = &approvedAt
	}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}
	return &org
}

func TestRecalculateRequiresAdmin(t *testing.T) {
	svc := newTestService(t, newTestDB(t))

	_, err := svc.Recalculate(context.Background(), RecalculateInput{ActorRole: enums.RoleStudent})
	if err == nil {
		t.Fatal("expected unauthorized error")
	}

	if _, err := svc.Recalculate(context.Background(), RecalculateInput{SkipAuth: true}); err != nil {
		t.Fatalf("skip auth run failed: %v", err)
	}
	if _, err := svc.Recalculate(context.Background(), RecalculateInput{ActorRole: enums.RoleAdmin}); err != nil {
		t.Fatalf("admin run failed: %v", err)
	}
}

func TestRecalculateOrdersAndRanksDensely(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	first := seedOrg(t, db, "Top Canteen", enums.OrganizationStatusApproved, 100, 5, now)
	second := seedOrg(t, db, "Mid Cafe", enums.OrganizationStatusApproved, 50, 5, now)
	third := seedOrg(t, db, "Small Stall", enums.OrganizationStatusApproved, 10, 5, now)

	svc := newTestService(t, db)
	result, err := svc.Recalculate(context.Background(), RecalculateInput{SkipAuth: true, Now: now})
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	if result.RankedCount != 3 || len(result.Rankings) != 3 {
		t.Fatalf("expected 3 ranked organizations, got %+v", result)
	}
	wantOrder := []uuid.UUID{first.ID, second.ID, third.ID}
	for i, summary := range result.Rankings {
		if summary.Rank != i+1 {
			t.Fatalf("expected dense rank %d, got %d", i+1, summary.Rank)
		}
		if summary.OrganizationID != wantOrder[i] {
			t.Fatalf("unexpected order at position %d: %s", i, summary.Name)
		}
		if i > 0 && summary.Score > result.Rankings[i-1].Score {
			t.Fatalf("rankings not sorted by score descending")
		}
	}

	var persisted models.Organization
	if err := db.First(&persisted, "id = ?", first.ID).Error; err != nil {
		t.Fatalf("reload org: %v", err)
	}
	if persisted.Ranking == nil || *persisted.Ranking != 1 {
		t.Fatalf("expected persisted rank 1, got %v", persisted.Ranking)
	}
	if persisted.SDGScore != result.Rankings[0].Score {
		t.Fatalf("persisted score %v does not match summary %v", persisted.SDGScore, result.Rankings[0].Score)
	}
}

func TestRecalculateResetsIneligible(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	seedOrg(t, db, "Eligible", enums.OrganizationStatusApproved, 10, 3, now)
	noDonations := seedOrg(t, db, "No Donations", enums.OrganizationStatusApproved, 0, 0, now)
	pending := seedOrg(t, db, "Pending", enums.OrganizationStatusPending, 20, 4, now)

	// Stale rank/score from an earlier run.
	staleRank := 2
	for _, id := range []uuid.UUID{noDonations.ID, pending.ID} {
		if err := db.Model(&models.Organization{}).Where("id = ?", id).
			Updates(map[string]any{"ranking": staleRank, "sdg_score": 40.0}).Error; err != nil {
			t.Fatalf("seed stale rank: %v", err)
		}
	}

	svc := newTestService(t, db)
	if _, err := svc.Recalculate(context.Background(), RecalculateInput{SkipAuth: true, Now: now}); err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	for _, id := range []uuid.UUID{noDonations.ID, pending.ID} {
		var org models.Organization
		if err := db.First(&org, "id = ?", id).Error; err != nil {
			t.Fatalf("reload org: %v", err)
		}
		if org.Ranking != nil {
			t.Fatalf("expected nil ranking for ineligible org %s, got %d", org.Name, *org.Ranking)
		}
		if org.SDGScore != 0 {
			t.Fatalf("expected zero score for ineligible org %s, got %v", org.Name, org.SDGScore)
		}
	}
}

func TestRecalculateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	seedOrg(t, db, "Alpha", enums.OrganizationStatusApproved, 40, 8, now)
	seedOrg(t, db, "Beta", enums.OrganizationStatusApproved, 15, 2, now)

	svc := newTestService(t, db)
	firstRun, err := svc.Recalculate(context.Background(), RecalculateInput{SkipAuth: true, Now: now})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	secondRun, err := svc.Recalculate(context.Background(), RecalculateInput{SkipAuth: true, Now: now})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(firstRun.Rankings) != len(secondRun.Rankings) {
		t.Fatalf("ranking lengths differ: %d vs %d", len(firstRun.Rankings), len(secondRun.Rankings))
	}
	for i := range firstRun.Rankings {
		a, b := firstRun.Rankings[i], secondRun.Rankings[i]
		if a != b {
			t.Fatalf("run results differ at position %d: %+v vs %+v", i, a, b)
		}
	}
}

func TestComputeScoreAdHocDefaults(t *testing.T) {
	now := time.Now()
	approvedAt := now.Add(-60 * 24 * time.Hour)
	base := models.Organization{ApprovedAt: &approvedAt, CreatedAt: approvedAt}

	t.Run("no claimed listings uses response default", func(t *testing.T) {
		org := base
		org.CreatedAt = now
		org.ApprovedAt = nil
		got := computeScore(orgStats{org: org}, 0, 0, 0, now)
		if got != responseTimeDefault {
			t.Fatalf("expected bare default %v, got %v", responseTimeDefault, got)
		}
	})

	t.Run("slow responses earn zero response points", func(t *testing.T) {
		slow := 96.0
		withLatency := computeScore(orgStats{org: base, avgResponseHrs: &slow}, 0, 0, 0, now)
		noLatency := computeScore(orgStats{org: base}, 0, 0, 0, now)
		if withLatency != noLatency-responseTimeDefault {
			t.Fatalf("expected zero response contribution, got %v vs %v", withLatency, noLatency)
		}
	})

	t.Run("recent activity with no history earns full factor", func(t *testing.T) {
		quiet := computeScore(orgStats{org: base}, 0, 0, 0, now)
		active := computeScore(orgStats{org: base, recentCollected: 1}, 0, 0, 0, now)
		if active-quiet != weightRecentActivity {
			t.Fatalf("expected +%v for fresh recent activity, got %v", weightRecentActivity, active-quiet)
		}
	})

	t.Run("recent activity clamps against historical rate", func(t *testing.T) {
		st := orgStats{org: base, collectedClaims: 100, totalClaims: 100, recentCollected: 10}
		// success rate contributes fully; isolate the recent factor by diffing
		// against the same stats with no recent collections.
		baseline := orgStats{org: base, collectedClaims: 100, totalClaims: 100}
		diff := computeScore(st, 0, 0, 0, now) - computeScore(baseline, 0, 0, 0, now)
		// months = 2, historical = 50/month, recent 10 gives 10/50 = 0.2 of the factor.
		if diff != 1 {
			t.Fatalf("expected clamped recent contribution 1, got %v", diff)
		}
	})
}
