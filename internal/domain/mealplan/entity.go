// Package mealplan contains the meal plan aggregate and its slot assignments.
package mealplan

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alchemorsel/mealplan/internal/domain/shared"
	"github.com/google/uuid"
)

// WeekStartDay is the canonical weekday every plan's week must start on.
const WeekStartDay = time.Monday

const maxNameLength = 100

var (
	ErrNameRequired       = shared.NewFieldError("name", "meal plan name is required")
	ErrNameTooLong        = shared.NewFieldError("name", "meal plan name must not exceed 100 characters")
	ErrInvalidWeekStart   = shared.NewFieldError("week_start", "week start must be a Monday")
	ErrInvalidDay         = shared.NewFieldError("day_of_week", "day of week must be between 0 (Monday) and 6 (Sunday)")
	ErrInvalidMealType    = shared.NewFieldError("meal_type", "meal type must be one of breakfast, lunch, dinner, snack")
	ErrNothingToUpdate    = shared.NewFieldError("fields", "nothing to update")
	ErrInvalidItemServing = shared.NewFieldError("servings", "servings cannot be negative")
)

// MealType identifies the meal within a day
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

// MealTypes lists meal types in display order
var MealTypes = []MealType{MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack}

// IsValid reports whether m is a known meal type
func (m MealType) IsValid() bool {
	switch m {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack:
		return true
	}
	return false
}

// ParseMealType parses a meal type, case-insensitively
func ParseMealType(s string) (MealType, error) {
	m := MealType(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", ErrInvalidMealType
	}
	return m, nil
}

// DayOfWeek is the offset of a day from the plan's week start: 0 is Monday, 6 is Sunday.
type DayOfWeek int

const (
	Monday DayOfWeek = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// IsValid reports whether d is within the week
func (d DayOfWeek) IsValid() bool {
	return d >= Monday && d <= Sunday
}

// Slot addresses one assignable position within a plan
type Slot struct {
	Day      DayOfWeek `json:"day_of_week"`
	MealType MealType  `json:"meal_type"`
}

// Validate validates the slot address
func (s Slot) Validate() error {
	if !s.Day.IsValid() {
		return ErrInvalidDay
	}
	if !s.MealType.IsValid() {
		return ErrInvalidMealType
	}
	return nil
}

// Item assigns one recipe to a slot of a plan. The plan does not own the recipe.
type Item struct {
	MealPlanID uuid.UUID `json:"meal_plan_id"`
	Slot       Slot      `json:"slot"`
	RecipeID   uuid.UUID `json:"recipe_id"`
	Servings   int       `json:"servings,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MealPlan is a weekly plan owned by a single user
type MealPlan struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	WeekStart   time.Time `json:"week_start"`
	IsActive    bool      `json:"is_active"`
	Items       []Item    `json:"items"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewMealPlan creates a validated, inactive meal plan
func NewMealPlan(ownerID uuid.UUID, name, description string, weekStart time.Time) (*MealPlan, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	start, err := NormalizeWeekStart(weekStart)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &MealPlan{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		WeekStart:   start,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NormalizeWeekStart truncates t to its calendar date and checks it falls on WeekStartDay
func NormalizeWeekStart(t time.Time) (time.Time, error) {
	if t.IsZero() || t.Weekday() != WeekStartDay {
		return time.Time{}, ErrInvalidWeekStart
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// Apply applies a sparse patch to the plan
func (p *MealPlan) Apply(patch Patch) error {
	if patch.IsEmpty() {
		return ErrNothingToUpdate
	}
	next := *p
	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
		if err := validateName(next.Name); err != nil {
			return err
		}
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.WeekStart != nil {
		start, err := NormalizeWeekStart(*patch.WeekStart)
		if err != nil {
			return err
		}
		next.WeekStart = start
	}
	next.UpdatedAt = time.Now().UTC()
	*p = next
	return nil
}

// ItemAt returns the item assigned to slot, if any
func (p *MealPlan) ItemAt(slot Slot) (Item, bool) {
	for _, item := range p.Items {
		if item.Slot == slot {
			return item, true
		}
	}
	return Item{}, false
}

// DateOf returns the calendar date of a day within the plan's week
func (p *MealPlan) DateOf(day DayOfWeek) time.Time {
	return p.WeekStart.AddDate(0, 0, int(day))
}

func validateName(name string) error {
	if name == "" {
		return ErrNameRequired
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// Patch is a field mask for partial plan updates. Activation goes through
// SetActive and is deliberately absent here.
type Patch struct {
	Name        *string
	Description *string
	WeekStart   *time.Time
}

// IsEmpty reports whether no field is set
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.WeekStart == nil
}
