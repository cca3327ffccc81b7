package recipe

import (
	"strings"
)

// Value Objects - Immutable objects that describe aspects of the domain

// Ingredient represents an ingredient line in a recipe
type Ingredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
	Notes  string  `json:"notes,omitempty"`
}

// Validate validates the ingredient
func (i Ingredient) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrIngredientNameRequired
	}
	if i.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// NutritionInfo contains nutritional information. Every field is optional.
type NutritionInfo struct {
	Calories      *float64 `json:"calories,omitempty"`
	Protein       *float64 `json:"protein,omitempty"`       // in grams
	Carbohydrates *float64 `json:"carbohydrates,omitempty"` // in grams
	Fat           *float64 `json:"fat,omitempty"`           // in grams
	Fiber         *float64 `json:"fiber,omitempty"`         // in grams
	Sugar         *float64 `json:"sugar,omitempty"`         // in grams
	Sodium        *float64 `json:"sodium,omitempty"`        // in milligrams
}

// IsZero reports whether no nutrition value is set
func (n NutritionInfo) IsZero() bool {
	return n.Calories == nil && n.Protein == nil && n.Carbohydrates == nil &&
		n.Fat == nil && n.Fiber == nil && n.Sugar == nil && n.Sodium == nil
}

// DifficultyLevel represents recipe difficulty
type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// IsValid reports whether d is one of the known levels
func (d DifficultyLevel) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ParseDifficulty parses a difficulty string, case-insensitively
func ParseDifficulty(s string) (DifficultyLevel, error) {
	d := DifficultyLevel(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", ErrInvalidDifficulty
	}
	return d, nil
}

// RatingAggregate is the derived rating summary of a recipe
type RatingAggregate struct {
	Average float64 `json:"avg_rating"`
	Count   int     `json:"rating_count"`
}

// NewRatingAggregate builds an aggregate from individual personal ratings.
// No ratings yields 0/0, never an undefined average.
func NewRatingAggregate(ratings []int) RatingAggregate {
	if len(ratings) == 0 {
		return RatingAggregate{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return RatingAggregate{
		Average: float64(sum) / float64(len(ratings)),
		Count:   len(ratings),
	}
}
