package enums

import "fmt"

// FoodItemStatus tracks one physical unit of a listing. It is driven
// exclusively by claim transitions; an item with no live claim is available.
type FoodItemStatus string

const (
	FoodItemStatusAvailable FoodItemStatus = "available"
	FoodItemStatusClaimed   FoodItemStatus = "claimed"
	FoodItemStatusConfirmed FoodItemStatus = "confirmed"
	FoodItemStatusReady     FoodItemStatus = "ready"
	FoodItemStatusCollected FoodItemStatus = "collected"
)

var validFoodItemStatuses = []FoodItemStatus{
	FoodItemStatusAvailable,
	FoodItemStatusClaimed,
	FoodItemStatusConfirmed,
	FoodItemStatusReady,
	FoodItemStatusCollected,
}

// String implements fmt.Stringer.
func (s FoodItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known FoodItemStatus.
func (s FoodItemStatus) IsValid() bool {
	for _, candidate := range validFoodItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseFoodItemStatus converts raw input into a FoodItemStatus.
func ParseFoodItemStatus(value string) (FoodItemStatus, error) {
	for _, candidate := range validFoodItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid food item status %q", value)
}
