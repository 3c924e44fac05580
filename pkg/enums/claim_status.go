package enums

import "fmt"

// ClaimStatus tracks a claim through the pickup lifecycle.
type ClaimStatus string

const (
	ClaimStatusPending   ClaimStatus = "pending"
	ClaimStatusConfirmed ClaimStatus = "confirmed"
	ClaimStatusReady     ClaimStatus = "ready"
	ClaimStatusPickedUp  ClaimStatus = "picked_up"
	ClaimStatusCancelled ClaimStatus = "cancelled"
	ClaimStatusNoShow    ClaimStatus = "no_show"
)

var validClaimStatuses = []ClaimStatus{
	ClaimStatusPending,
	ClaimStatusConfirmed,
	ClaimStatusReady,
	ClaimStatusPickedUp,
	ClaimStatusCancelled,
	ClaimStatusNoShow,
}

// String implements fmt.Stringer.
func (s ClaimStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ClaimStatus.
func (s ClaimStatus) IsValid() bool {
	for _, candidate := range validClaimStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s ClaimStatus) IsTerminal() bool {
	switch s {
	case ClaimStatusPickedUp, ClaimStatusCancelled, ClaimStatusNoShow:
		return true
	}
	return false
}

// ParseClaimStatus converts raw input into a ClaimStatus.
func ParseClaimStatus(value string) (ClaimStatus, error) {
	for _, candidate := range validClaimStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid claim status %q", value)
}
