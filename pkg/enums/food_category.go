package enums

import "fmt"

// FoodCategory classifies what kind of surplus food a listing offers.
type FoodCategory string

const (
	FoodCategoryMeals     FoodCategory = "meals"
	FoodCategoryBakery    FoodCategory = "bakery"
	FoodCategoryProduce   FoodCategory = "produce"
	FoodCategoryDairy     FoodCategory = "dairy"
	FoodCategorySnacks    FoodCategory = "snacks"
	FoodCategoryBeverages FoodCategory = "beverages"
)

var validFoodCategories = []FoodCategory{
	FoodCategoryMeals,
	FoodCategoryBakery,
	FoodCategoryProduce,
	FoodCategoryDairy,
	FoodCategorySnacks,
	FoodCategoryBeverages,
}

// FoodCategoryCount is the number of known categories, the denominator for
// variety sub-scores.
const FoodCategoryCount = 6

// String implements fmt.Stringer.
func (c FoodCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known FoodCategory.
func (c FoodCategory) IsValid() bool {
	for _, candidate := range validFoodCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseFoodCategory converts raw input into a FoodCategory.
func ParseFoodCategory(value string) (FoodCategory, error) {
	for _, candidate := range validFoodCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid food category %q", value)
}
