package scoring

import "math"

// Metrics are the raw per-organization inputs to the SDG score, gathered as
// of a single point in time.
type Metrics struct {
	TotalImpactPoints  float64
	TotalDonations     int
	TotalClaims        int
	CollectedClaims    int
	ActiveListings     int
	DistinctCategories int
	RecentCollected    int
	AccountAgeDays     float64
}

// Sub-score weights. They must sum to 1.0.
const (
	weightImpact            = 0.25
	weightDonationFrequency = 0.20
	weightSuccessRate       = 0.15
	weightActiveListings    = 0.10
	weightVariety           = 0.10
	weightRecentActivity    = 0.10
	weightAccountAge        = 0.10
)

// Normalization caps.
const (
	donationFrequencyCap = 50
	activeListingsCap    = 10
	varietyCap           = 6
	recentActivityCap    = 10
	accountAgeCapDays    = 180
)

// CalculateSDGScore combines seven normalized sub-scores into a 0..100
// composite. Each sub-score is clamped to [0,1] before weighting.
func CalculateSDGScore(m Metrics) float64 {
	impact := clamp01(math.Log10(m.TotalImpactPoints+1) / math.Log10(11))
	donationFrequency := clamp01(float64(m.TotalDonations) / donationFrequencyCap)

	successRate := 0.0
	if m.TotalClaims > 0 {
		successRate = clamp01(float64(m.CollectedClaims) / float64(m.TotalClaims))
	}

	activeListings := clamp01(float64(m.ActiveListings) / activeListingsCap)
	variety := clamp01(float64(m.DistinctCategories) / varietyCap)
	recentActivity := clamp01(float64(m.RecentCollected) / recentActivityCap)
	accountAge := clamp01(m.AccountAgeDays / accountAgeCapDays)

	weighted := impact*weightImpact +
		donationFrequency*weightDonationFrequency +
		successRate*weightSuccessRate +
		activeListings*weightActiveListings +
		variety*weightVariety +
		recentActivity*weightRecentActivity +
		accountAge*weightAccountAge

	return math.Round(weighted * 100)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
