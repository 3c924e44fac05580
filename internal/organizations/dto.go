package organizations

import (
	"github.com/google/uuid"

	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
)

// ApplyInput carries a new organization application.
type ApplyInput struct {
	OwnerUserID    uuid.UUID
	Name           string
	Description    string
	CampusLocation string
	ContactEmail   string
}

// ModerateInput identifies the organization an admin is acting on.
type ModerateInput struct {
	OrganizationID uuid.UUID
	ActorRole      enums.UserRole
}

// LeaderboardEntry is one row of the public leaderboard.
type LeaderboardEntry struct {
	Rank              int       `json:"rank"`
	OrganizationID    uuid.UUID `json:"organization_id"`
	Name              string    `json:"name"`
	CampusLocation    string    `json:"campus_location,omitempty"`
	SDGScore          float64   `json:"sdg_score"`
	TotalImpactPoints float64   `json:"total_impact_points"`
	TotalDonations    int       `json:"total_donations"`
}

func leaderboardEntry(org models.Organization) LeaderboardEntry {
	entry := LeaderboardEntry{
		OrganizationID:    org.ID,
		Name:              org.Name,
		CampusLocation:    org.CampusLocation,
		SDGScore:          org.SDGScore,
		TotalImpactPoints: org.TotalImpactPoints,
		TotalDonations:    org.TotalDonations,
	}
	if org.Ranking != nil {
		entry.Rank = *org.Ranking
	}
	return entry
}
