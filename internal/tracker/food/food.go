package food

import (
	"errors"
	"fmt"
)

var (
	ErrFoodNotFound  = errors.New("food not found")
	ErrNegativeGrams = errors.New("grams must not be negative")
)

// Profile is one row of the read-only food reference table,
// with nutrients given per 100 grams
type Profile struct {
	Name            string  `json:"foodName"`
	ProteinPer100g  float64 `json:"proteinPer100g"`
	FatPer100g      float64 `json:"fatPer100g"`
	CarbsPer100g    float64 `json:"carbsPer100g"`
	CaloriesPer100g float64 `json:"caloriesPer100g"`
}

// Macros are the nutrient amounts of a concrete portion
type Macros struct {
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
	Calories float64 `json:"calories"`
}

// MacrosFor linearly scales the per-100g profile to the given portion size.
// 100 grams returns the profile values exactly, 0 grams all zeros.
func (p Profile) MacrosFor(grams float64) (Macros, error) {
	if grams < 0 {
		return Macros{}, fmt.Errorf("%w: %f", ErrNegativeGrams, grams)
	}
	factor := grams / 100
	return Macros{
		Protein:  p.ProteinPer100g * factor,
		Fat:      p.FatPer100g * factor,
		Carbs:    p.CarbsPer100g * factor,
		Calories: p.CaloriesPer100g * factor,
	}, nil
}
