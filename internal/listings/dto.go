package listings

import (
	"time"

	"github.com/google/uuid"

	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	"github.com/replate-app/replate-backend/pkg/pagination"
)

// CreateInput describes a new surplus listing offered by an organization.
type CreateInput struct {
	OrganizationID uuid.UUID
	Title          string
	Description    string
	Category       enums.FoodCategory
	Unit           string
	Quantity       int
	PickupNotes    string
	AvailableFrom  time.Time
	AvailableUntil time.Time
}

// BrowseParams filters the public listing feed.
type BrowseParams struct {
	Category *enums.FoodCategory
	Page     pagination.Params
}

// Page is one page of listings plus the cursor for the next one.
type Page struct {
	Listings   []models.FoodListing
	NextCursor *pagination.Cursor
}

// Detail pairs a listing with its current availability.
type Detail struct {
	Listing        models.FoodListing
	AvailableItems int64
}
