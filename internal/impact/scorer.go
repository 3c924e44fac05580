package impact

import (
	"math"
	"strings"
)

// factor holds the per-unit weight and environmental multiplier for a
// (category, unit) combination.
type factor struct {
	AvgWeightKg float64
	Multiplier  float64
}

// defaultFactor applies to any (category, unit) pair missing from the matrix.
var defaultFactor = factor{AvgWeightKg: 0.2, Multiplier: 0.7}

type matrixKey struct {
	category string
	unit     string
}

var matrix = map[matrixKey]factor{
	{"meals", "portions"}:    {AvgWeightKg: 0.35, Multiplier: 1.0},
	{"meals", "kg"}:          {AvgWeightKg: 1.0, Multiplier: 1.0},
	{"bakery", "pieces"}:     {AvgWeightKg: 0.12, Multiplier: 0.8},
	{"bakery", "kg"}:         {AvgWeightKg: 1.0, Multiplier: 0.8},
	{"produce", "pieces"}:    {AvgWeightKg: 0.15, Multiplier: 0.9},
	{"produce", "kg"}:        {AvgWeightKg: 1.0, Multiplier: 0.9},
	{"dairy", "pieces"}:      {AvgWeightKg: 0.25, Multiplier: 0.95},
	{"dairy", "liters"}:      {AvgWeightKg: 1.03, Multiplier: 0.95},
	{"snacks", "pieces"}:     {AvgWeightKg: 0.08, Multiplier: 0.6},
	{"beverages", "liters"}:  {AvgWeightKg: 1.0, Multiplier: 0.5},
	{"beverages", "bottles"}: {AvgWeightKg: 0.5, Multiplier: 0.5},
}

// Score maps (category, unit, quantity) to Food Impact Points. Missing
// combinations fall back to the default factor; degenerate inputs yield 0.
// This is a display/metric helper, not a validator.
func Score(category, unit string, quantity int) float64 {
	category = strings.ToLower(strings.TrimSpace(category))
	unit = strings.ToLower(strings.TrimSpace(unit))
	if quantity <= 0 || category == "" || unit == "" {
		return 0
	}

	f, ok := matrix[matrixKey{category: category, unit: unit}]
	if !ok {
		f = defaultFactor
	}
	return round2(float64(quantity) * f.AvgWeightKg * f.Multiplier)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
