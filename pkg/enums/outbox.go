package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateClaim        OutboxAggregateType = "claim"
	AggregateListing      OutboxAggregateType = "listing"
	AggregateOrganization OutboxAggregateType = "organization"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateClaim,
	AggregateListing,
	AggregateOrganization,
}

// IsValid reports whether the value matches the canonical aggregate_type set.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventClaimCollected      OutboxEventType = "claim_collected"
	EventClaimCancelled      OutboxEventType = "claim_cancelled"
	EventListingExpired      OutboxEventType = "listing_expired"
	EventOrganizationUpdated OutboxEventType = "organization_updated"
)

var validOutboxEventTypes = []OutboxEventType{
	EventClaimCollected,
	EventClaimCancelled,
	EventListingExpired,
	EventOrganizationUpdated,
}

// IsValid reports whether the value matches the canonical event_type set.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
