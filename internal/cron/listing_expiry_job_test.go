package cron

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/internal/listings"
	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	"github.com/replate-app/replate-backend/pkg/logger"
	"github.com/replate-app/replate-backend/pkg/outbox"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (t *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

func newExpiryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cron_" + uuid.NewString() + "?mode=memory&cache=shared"
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
		&models.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedExpiredListingWithClaim(t *testing.T, db *gorm.DB, claimStatus enums.ClaimStatus, itemStatus enums.FoodItemStatus) (*models.FoodListing, *models.Claim) {
	t.Helper()

	owner := models.User{Email: uuid.NewString() + "@campus.edu", PasswordHash: "x", FirstName: "Org", LastName: "Owner", Role: enums.RoleOrganization}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	org := models.Organization{OwnerUserID: owner.ID, Name: "Canteen", ContactEmail: "a@b.edu", Status: enums.OrganizationStatusApproved}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}
	student := models.User{Email: uuid.NewString() + "@campus.edu", PasswordHash: "x", FirstName: "Stu", LastName: "Dent", Role: enums.RoleStudent}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}

	listing := models.FoodListing{
		OrganizationID: org.ID,
		Title:          "Stale listing",
		Category:       enums.FoodCategoryMeals,
		Unit:           "portions",
		Quantity:       1,
		Status:         enums.ListingStatusClaimed,
		AvailableFrom:  time.Now().Add(-6 * time.Hour),
		AvailableUntil: time.Now().Add(-time.Hour),
	}
	if err := db.Create(&listing).Error; err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	item := models.FoodItem{ListingID: listing.ID, ItemNumber: 1, Status: itemStatus}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	claim := models.Claim{
		StudentUserID:         student.ID,
		FoodItemID:            item.ID,
		ListingID:             listing.ID,
		OrganizationID:        org.ID,
		Status:                claimStatus,
		ItemStatus:            itemStatus,
		EstimatedImpactPoints: 0.35,
		ClaimedAt:             time.Now().Add(-3 * time.Hour),
	}
	if err := db.Create(&claim).Error; err != nil {
		t.Fatalf("seed claim: %v", err)
	}
	return &listing, &claim
}

func newExpiryJob(t *testing.T, db *gorm.DB) Job {
	t.Helper()
	job, err := NewListingExpiryJob(ListingExpiryJobParams{
		Logger:   testLogger(),
		DB:       &gormTxRunner{db: db},
		Listings: listings.NewRepository(db),
		Outbox:   outbox.NewService(outbox.NewRepository(db), nil),
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	return job
}

func TestListingExpirySweepCancelsLiveClaims(t *testing.T) {
	db := newExpiryTestDB(t)
	listing, claim := seedExpiredListingWithClaim(t, db, enums.ClaimStatusReady, enums.FoodItemStatusReady)

	if err := newExpiryJob(t, db).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	var sweptClaim models.Claim
	if err := db.First(&sweptClaim, "id = ?", claim.ID).Error; err != nil {
		t.Fatalf("load claim: %v", err)
	}
	if sweptClaim.Status != enums.ClaimStatusCancelled {
		t.Fatalf("expected cancelled claim, got %s", sweptClaim.Status)
	}
	if sweptClaim.CancellationReason == nil || *sweptClaim.CancellationReason != expiredClaimReason {
		t.Fatalf("expected expiry reason on claim")
	}
	if sweptClaim.CancelledAt == nil {
		t.Fatalf("expected cancelled_at on claim")
	}

	var item models.FoodItem
	if err := db.First(&item, "id = ?", claim.FoodItemID).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	if item.Status != enums.FoodItemStatusAvailable {
		t.Fatalf("expected released item, got %s", item.Status)
	}

	var events []models.OutboxEvent
	if err := db.Find(&events, "aggregate_id = ?", listing.ID).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	if len(events) != 1 || events[0].EventType != enums.EventListingExpired {
		t.Fatalf("expected one listing_expired event, got %d", len(events))
	}
}

func TestListingExpirySweepIgnoresTerminalClaims(t *testing.T) {
	db := newExpiryTestDB(t)
	_, claim := seedExpiredListingWithClaim(t, db, enums.ClaimStatusPickedUp, enums.FoodItemStatusCollected)

	if err := newExpiryJob(t, db).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	var untouched models.Claim
	if err := db.First(&untouched, "id = ?", claim.ID).Error; err != nil {
		t.Fatalf("load claim: %v", err)
	}
	if untouched.Status != enums.ClaimStatusPickedUp {
		t.Fatalf("collected claim must not be swept, got %s", untouched.Status)
	}

	var events int64
	if err := db.Model(&models.OutboxEvent{}).Count(&events).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 0 {
		t.Fatalf("expected no events, got %d", events)
	}
}

func TestListingExpirySweepIsIdempotent(t *testing.T) {
	db := newExpiryTestDB(t)
	seedExpiredListingWithClaim(t, db, enums.ClaimStatusPending, enums.FoodItemStatusClaimed)

	job := newExpiryJob(t, db)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	var events int64
	if err := db.Model(&models.OutboxEvent{}).Count(&events).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 1 {
		t.Fatalf("expected a single event across runs, got %d", events)
	}
}
