package scoring

import (
	"context"
	"errors"
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
	dsn := "file:scoring_" + uuid.NewString() + "?mode=memory&cache=shared"
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

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

func seedScoredOrg(t *testing.T, db *gorm.DB, now time.Time) *models.Organization {
	t.Helper()
	owner := models.User{Email: uuid.NewString() + "@campus.edu", PasswordHash: "x", FirstName: "Org", LastName: "Owner", Role: enums.RoleOrganization}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	org := models.Organization{
		OwnerUserID:       owner.ID,
		Name:              "Campus Canteen",
		ContactEmail:      "canteen@campus.edu",
		Status:            enums.OrganizationStatusApproved,
		TotalImpactPoints: 5,
		TotalDonations:    10,
		CreatedAt:         now.Add(-90 * 24 * time.Hour),
	}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}

	student := models.User{Email: uuid.NewString() + "@campus.edu", PasswordHash: "x", FirstName: "Stu", LastName: "Dent", Role: enums.RoleStudent}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}

	// Two live listings in distinct categories plus an expired third category.
	categories := []enums.FoodCategory{enums.FoodCategoryMeals, enums.FoodCategoryBakery, enums.FoodCategoryProduce}
	for i, category := range categories {
		until := now.Add(4 * time.Hour)
		if i == 2 {
			until = now.Add(-1 * time.Hour)
		}
		listing := models.FoodListing{
			OrganizationID: org.ID,
			Title:          "Listing " + category.String(),
			Category:       category,
			Unit:           "portions",
			Quantity:       1,
			Status:         enums.ListingStatusAvailable,
			AvailableFrom:  now.Add(-2 * time.Hour),
			AvailableUntil: until,
		}
		if err := db.Create(&listing).Error; err != nil {
			t.Fatalf("seed listing: %v", err)
		}
	}

	// 10 claims, 8 collected; exactly one collected in the last 30 days.
	listing := models.FoodListing{
		OrganizationID: org.ID,
		Title:          "History",
		Category:       enums.FoodCategoryMeals,
		Unit:           "portions",
		Quantity:       10,
		Status:         enums.ListingStatusCollected,
		AvailableFrom:  now.Add(-80 * 24 * time.Hour),
		AvailableUntil: now.Add(-79 * 24 * time.Hour),
	}
	if err := db.Create(&listing).Error; err != nil {
		t.Fatalf("seed history listing: %v", err)
	}
	for i := 0; i < 10; i++ {
		item := models.FoodItem{ListingID: listing.ID, ItemNumber: i + 1, Status: enums.FoodItemStatusCollected}
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("seed item: %v", err)
		}
		claim := models.Claim{
			StudentUserID:  student.ID,
			FoodItemID:     item.ID,
			ListingID:      listing.ID,
			OrganizationID: org.ID,
			Status:         enums.ClaimStatusCancelled,
			ItemStatus:     enums.FoodItemStatusAvailable,
			ClaimedAt:      now.Add(-60 * 24 * time.Hour),
		}
		if i < 8 {
			collectedAt := now.Add(-60 * 24 * time.Hour)
			if i == 0 {
				collectedAt = now.Add(-2 * 24 * time.Hour)
			}
			claim.Status = enums.ClaimStatusPickedUp
			claim.ItemStatus = enums.FoodItemStatusCollected
			claim.CollectedAt = &collectedAt
		}
		if err := db.Create(&claim).Error; err != nil {
			t.Fatalf("seed claim: %v", err)
		}
	}
	return &org
}

func TestGatherMetricsAndRecalculate(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	org := seedScoredOrg(t, db, now)

	svc, err := NewService(NewRepository(db), quietLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	metrics, err := svc.GatherMetrics(context.Background(), org.ID, now)
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	want := Metrics{
		TotalImpactPoints:  5,
		TotalDonations:     10,
		TotalClaims:        10,
		CollectedClaims:    8,
		ActiveListings:     2,
		DistinctCategories: 3,
		RecentCollected:    1,
	}
	if metrics.TotalImpactPoints != want.TotalImpactPoints ||
		metrics.TotalDonations != want.TotalDonations ||
		metrics.TotalClaims != want.TotalClaims ||
		metrics.CollectedClaims != want.CollectedClaims ||
		metrics.ActiveListings != want.ActiveListings ||
		metrics.DistinctCategories != want.DistinctCategories ||
		metrics.RecentCollected != want.RecentCollected {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
	if metrics.AccountAgeDays < 89.5 || metrics.AccountAgeDays > 90.5 {
		t.Fatalf("unexpected account age %v", metrics.AccountAgeDays)
	}

	score, err := svc.Recalculate(context.Background(), org.ID, now)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if score != 48 {
		t.Fatalf("expected score 48, got %v", score)
	}

	var persisted models.Organization
	if err := db.First(&persisted, "id = ?", org.ID).Error; err != nil {
		t.Fatalf("reload org: %v", err)
	}
	if persisted.SDGScore != 48 {
		t.Fatalf("expected persisted sdg score 48, got %v", persisted.SDGScore)
	}
}

func TestGatherMetricsUnknownOrganization(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), quietLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.GatherMetrics(context.Background(), uuid.New(), time.Now()); err == nil {
		t.Fatal("expected error for unknown organization")
	}
}

// flakyRepo fails claim counting for one configured organization.
type flakyRepo struct {
	Repository
	failFor uuid.UUID
}

func (f *flakyRepo) CountClaims(ctx context.Context, orgID uuid.UUID) (int64, int64, error) {
	if orgID == f.failFor {
		return 0, 0, errors.New("claim count unavailable")
	}
	return f.Repository.CountClaims(ctx, orgID)
}

func TestRecalculateAllContinuesPastFailures(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	healthy := seedScoredOrg(t, db, now)
	broken := seedScoredOrg(t, db, now)

	repo := &flakyRepo{Repository: NewRepository(db), failFor: broken.ID}
	svc, err := NewService(repo, quietLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	succeeded, err := svc.RecalculateAll(context.Background(), now)
	if err != nil {
		t.Fatalf("recalculate all: %v", err)
	}
	if succeeded != 1 {
		t.Fatalf("expected 1 success, got %d", succeeded)
	}

	var persisted models.Organization
	if err := db.First(&persisted, "id = ?", healthy.ID).Error; err != nil {
		t.Fatalf("reload healthy org: %v", err)
	}
	if persisted.SDGScore == 0 {
		t.Fatal("expected healthy organization to receive a score")
	}
}
