package enums

import "fmt"

// OrganizationStatus tracks an organization's moderation state.
type OrganizationStatus string

const (
	OrganizationStatusPending  OrganizationStatus = "pending"
	OrganizationStatusApproved OrganizationStatus = "approved"
	OrganizationStatusRejected OrganizationStatus = "rejected"
	OrganizationStatusBanned   OrganizationStatus = "banned"
)

var validOrganizationStatuses = []OrganizationStatus{
	OrganizationStatusPending,
	OrganizationStatusApproved,
	OrganizationStatusRejected,
	OrganizationStatusBanned,
}

// String implements fmt.Stringer.
func (s OrganizationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrganizationStatus.
func (s OrganizationStatus) IsValid() bool {
	for _, candidate := range validOrganizationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrganizationStatus converts raw input into an OrganizationStatus.
func ParseOrganizationStatus(value string) (OrganizationStatus, error) {
	for _, candidate := range validOrganizationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid organization status %q", value)
}
