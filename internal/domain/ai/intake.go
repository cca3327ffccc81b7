// Package ai defines the recipe generation contract and the intake state machine
package ai

import (
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/recipe"
)

// DefaultServings is used when a generation request leaves servings unset
const DefaultServings = 4

// GenerationInput is what the pipeline sends to a recipe generator
type GenerationInput struct {
	Name                string   `json:"name" validate:"required,notblank,max=200"`
	Cuisine             string   `json:"cuisine,omitempty" validate:"max=50"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty" validate:"max=10,dive,notblank,max=50"`
	Servings            int      `json:"servings" validate:"min=1,max=20"`
}

// RecipePayload is the structured recipe returned by a generator. Numeric
// fields arrive loosely typed from models and are checked before use.
type RecipePayload struct {
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Ingredients  []PayloadIngredient  `json:"ingredients"`
	Instructions string               `json:"instructions"`
	Nutrition    recipe.NutritionInfo `json:"nutrition"`
	Cuisine      string               `json:"cuisine"`
	Difficulty   string               `json:"difficulty"`
	PrepTime     int                  `json:"prep_time"`
	CookTime     int                  `json:"cook_time"`
	TotalTime    int                  `json:"total_time"`
	Servings     int                  `json:"servings"`
	Tags         []string             `json:"tags"`
}

// PayloadIngredient is a generator ingredient line. Amount may be a number or
// a numeric string.
type PayloadIngredient struct {
	Name   string `json:"name"`
	Amount any    `json:"amount"`
	Unit   string `json:"unit"`
	Notes  string `json:"notes,omitempty"`
}

// IntakeState is a step of the intake state machine:
// Requested -> Generating -> Validating -> (Valid -> Persisted) | (Invalid -> Retrying | Failed)
type IntakeState string

const (
	StateRequested  IntakeState = "requested"
	StateGenerating IntakeState = "generating"
	StateValidating IntakeState = "validating"
	StateValid      IntakeState = "valid"
	StateInvalid    IntakeState = "invalid"
	StateRetrying   IntakeState = "retrying"
	StatePersisted  IntakeState = "persisted"
	StateFailed     IntakeState = "failed"
)

// IsTerminal reports whether no further transition is possible
func (s IntakeState) IsTerminal() bool {
	return s == StatePersisted || s == StateFailed
}

var transitions = map[IntakeState][]IntakeState{
	StateRequested:  {StateGenerating, StateFailed},
	StateGenerating: {StateValidating, StateRetrying, StateFailed},
	StateValidating: {StateValid, StateInvalid},
	StateValid:      {StatePersisted, StateFailed},
	StateInvalid:    {StateRetrying, StateFailed},
	StateRetrying:   {StateGenerating, StateFailed},
}

// CanTransition reports whether from -> to is a legal step
func CanTransition(from, to IntakeState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IntakeAttempt records one generator call and how it ended
type IntakeAttempt struct {
	Number     int             `json:"attempt"`
	Input      GenerationInput `json:"input"`
	Simplified bool            `json:"simplified"`
	State      IntakeState     `json:"state"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	Duration   time.Duration   `json:"duration"`
}
