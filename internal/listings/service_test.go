package listings

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
	pkgerrors "github.com/replate-app/replate-backend/pkg/errors"
	"github.com/replate-app/replate-backend/pkg/logger"
	"github.com/replate-app/replate-backend/pkg/pagination"
)

type testTx struct {
	db *gorm.DB
}

func (t *testTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	db  *gorm.DB
	svc Service
	org *models.Organization
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:listings_" + uuid.NewString() + "?mode=memory&cache=shared"
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

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	owner := models.User{Email: uuid.NewString() + "@campus.edu", PasswordHash: "x", FirstName: "Org", LastName: "Owner", Role: enums.RoleOrganization}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	org := models.Organization{
		OwnerUserID:  owner.ID,
		Name:         "Campus Canteen",
		ContactEmail: "canteen@campus.edu",
		Status:       enums.OrganizationStatusApproved,
	}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}

	svc, err := NewService(NewRepository(db), &testTx{db: db}, logger.New(logger.Options{Output: io.Discard}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{db: db, svc: svc, org: &org}
}

func (f *fixture) createInput(quantity int) CreateInput {
	return CreateInput{
		OrganizationID: f.org.ID,
		Title:          "Leftover lunch",
		Description:    "Boxed meals from the lunch service",
		Category:       enums.FoodCategoryMeals,
		Unit:           "Portions",
		Quantity:       quantity,
		PickupNotes:    "Back entrance, ask for staff",
		AvailableFrom:  time.Now().Add(-time.Hour),
		AvailableUntil: time.Now().Add(4 * time.Hour),
	}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, typed.Code(), err)
	}
}

func TestCreateListingBuildsNumberedItems(t *testing.T) {
	f := newFixture(t)

	listing, err := f.svc.Create(context.Background(), f.createInput(4))
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	if listing.Status != enums.ListingStatusAvailable {
		t.Fatalf("expected available listing, got %s", listing.Status)
	}
	if listing.Unit != "portions" {
		t.Fatalf("expected normalized unit, got %q", listing.Unit)
	}

	var items []models.FoodItem
	if err := f.db.Order("item_number ASC").Find(&items, "listing_id = ?", listing.ID).Error; err != nil {
		t.Fatalf("load items: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(items))
	}
	for i, item := range items {
		if item.ItemNumber != i+1 {
			t.Fatalf("expected item number %d, got %d", i+1, item.ItemNumber)
		}
		if item.Status != enums.FoodItemStatusAvailable {
			t.Fatalf("expected available item, got %s", item.Status)
		}
	}
}

func TestCreateListingValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"empty title", func(in *CreateInput) { in.Title = "  " }},
		{"bad category", func(in *CreateInput) { in.Category = enums.FoodCategory("sushi") }},
		{"empty unit", func(in *CreateInput) { in.Unit = "" }},
		{"zero quantity", func(in *CreateInput) { in.Quantity = 0 }},
		{"oversized quantity", func(in *CreateInput) { in.Quantity = maxListingQuantity + 1 }},
		{"inverted window", func(in *CreateInput) {
			in.AvailableFrom = time.Now().Add(2 * time.Hour)
			in.AvailableUntil = time.Now().Add(time.Hour)
		}},
		{"window in the past", func(in *CreateInput) {
			in.AvailableFrom = time.Now().Add(-3 * time.Hour)
			in.AvailableUntil = time.Now().Add(-time.Hour)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := f.createInput(2)
			tc.mutate(&input)
			_, err := f.svc.Create(context.Background(), input)
			expectCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestCreateListingRequiresApprovedOrganization(t *testing.T) {
	f := newFixture(t)
	if err := f.db.Model(&models.Organization{}).
		Where("id = ?", f.org.ID).
		Update("status", enums.OrganizationStatusPending).Error; err != nil {
		t.Fatalf("downgrade org: %v", err)
	}

	_, err := f.svc.Create(context.Background(), f.createInput(2))
	expectCode(t, err, pkgerrors.CodeForbidden)

	var count int64
	if err := f.db.Model(&models.FoodListing{}).Count(&count).Error; err != nil {
		t.Fatalf("count listings: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no listings, got %d", count)
	}
}

func TestBrowseFiltersExpiredAndCategory(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Create(context.Background(), f.createInput(2)); err != nil {
		t.Fatalf("create meals listing: %v", err)
	}
	bakery := f.createInput(1)
	bakery.Title = "Day-old pastries"
	bakery.Category = enums.FoodCategoryBakery
	bakery.Unit = "pieces"
	if _, err := f.svc.Create(context.Background(), bakery); err != nil {
		t.Fatalf("create bakery listing: %v", err)
	}

	// An expired listing is seeded directly since Create refuses past windows.
	expired := models.FoodListing{
		OrganizationID: f.org.ID,
		Title:          "Yesterday's soup",
		Category:       enums.FoodCategoryMeals,
		Unit:           "portions",
		Quantity:       1,
		Status:         enums.ListingStatusAvailable,
		AvailableFrom:  time.Now().Add(-5 * time.Hour),
		AvailableUntil: time.Now().Add(-time.Hour),
	}
	if err := f.db.Create(&expired).Error; err != nil {
		t.Fatalf("seed expired listing: %v", err)
	}

	page, err := f.svc.Browse(context.Background(), BrowseParams{})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(page.Listings) != 2 {
		t.Fatalf("expected 2 browsable listings, got %d", len(page.Listings))
	}

	category := enums.FoodCategoryBakery
	page, err = f.svc.Browse(context.Background(), BrowseParams{Category: &category})
	if err != nil {
		t.Fatalf("browse bakery: %v", err)
	}
	if len(page.Listings) != 1 || page.Listings[0].Title != "Day-old pastries" {
		t.Fatalf("expected only the bakery listing, got %d rows", len(page.Listings))
	}

	bad := enums.FoodCategory("sushi")
	_, err = f.svc.Browse(context.Background(), BrowseParams{Category: &bad})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestBrowsePaginates(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 5; i++ {
		input := f.createInput(1)
		input.Title = "Listing " + uuid.NewString()
		if _, err := f.svc.Create(context.Background(), input); err != nil {
			t.Fatalf("create listing %d: %v", i, err)
		}
	}

	seen := make(map[uuid.UUID]bool)
	page, err := f.svc.Browse(context.Background(), BrowseParams{Page: pagination.Params{Limit: 3}})
	if err != nil {
		t.Fatalf("browse first page: %v", err)
	}
	if len(page.Listings) != 3 || page.NextCursor == nil {
		t.Fatalf("expected full first page with cursor, got %d rows", len(page.Listings))
	}
	for _, row := range page.Listings {
		seen[row.ID] = true
	}

	page, err = f.svc.Browse(context.Background(), BrowseParams{Page: pagination.Params{Limit: 3, Cursor: pagination.EncodeCursor(*page.NextCursor)}})
	if err != nil {
		t.Fatalf("browse second page: %v", err)
	}
	if len(page.Listings) != 2 || page.NextCursor != nil {
		t.Fatalf("expected final page of 2, got %d rows", len(page.Listings))
	}
	for _, row := range page.Listings {
		if seen[row.ID] {
			t.Fatalf("listing %s appeared on both pages", row.ID)
		}
	}
}

func TestGetReportsAvailableItems(t *testing.T) {
	f := newFixture(t)

	listing, err := f.svc.Create(context.Background(), f.createInput(3))
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	if err := f.db.Model(&models.FoodItem{}).
		Where("listing_id = ? AND item_number = ?", listing.ID, 1).
		Update("status", enums.FoodItemStatusClaimed).Error; err != nil {
		t.Fatalf("claim item: %v", err)
	}

	detail, err := f.svc.Get(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if detail.AvailableItems != 2 {
		t.Fatalf("expected 2 available items, got %d", detail.AvailableItems)
	}

	_, err = f.svc.Get(context.Background(), uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestListOwnIncludesExpired(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Create(context.Background(), f.createInput(1)); err != nil {
		t.Fatalf("create listing: %v", err)
	}
	expired := models.FoodListing{
		OrganizationID: f.org.ID,
		Title:          "Yesterday's soup",
		Category:       enums.FoodCategoryMeals,
		Unit:           "portions",
		Quantity:       1,
		Status:         enums.ListingStatusAvailable,
		AvailableFrom:  time.Now().Add(-5 * time.Hour),
		AvailableUntil: time.Now().Add(-time.Hour),
	}
	if err := f.db.Create(&expired).Error; err != nil {
		t.Fatalf("seed expired listing: %v", err)
	}

	page, err := f.svc.ListOwn(context.Background(), f.org.ID, pagination.Params{})
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if len(page.Listings) != 2 {
		t.Fatalf("expected 2 own listings, got %d", len(page.Listings))
	}
}
