// Package recipe contains the core domain logic for recipes.
package recipe

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	maxNameLength        = 200
	maxDescriptionLength = 2000

	// ShareSuffix marks a recipe forked from another user's recipe
	ShareSuffix = " (Shared)"
)

// Recipe represents the core recipe entity.
//
// TotalTime is never stored on the entity; it is always PrepTime + CookTime.
// Rating is derived from favorites and is only written by the rating
// recomputation path, never by authoring commands.
type Recipe struct {
	ID           uuid.UUID
	Name         string
	Description  string
	Ingredients  []Ingredient
	Instructions string
	Nutrition    NutritionInfo
	Cuisine      string
	Difficulty   DifficultyLevel

	// Timing, in minutes
	PrepTime int
	CookTime int

	Servings    int
	Rating      RatingAggregate
	ImageURL    string
	Tags        []string
	CreatedBy   *uuid.UUID
	AIGenerated bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRecipe assigns identity and timestamps to r after validating it.
// Any rating values supplied by the caller are discarded.
func NewRecipe(r Recipe) (*Recipe, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Tags = normalizeTags(r.Tags)
	if err := r.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.Rating = RatingAggregate{}
	r.CreatedAt = now
	r.UpdatedAt = now
	return &r, nil
}

// TotalTime returns the total time in minutes
func (r *Recipe) TotalTime() int {
	return r.PrepTime + r.CookTime
}

// Validate checks the authored fields of the recipe
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	if utf8.RuneCountInString(r.Name) > maxNameLength {
		return ErrNameTooLong
	}
	if utf8.RuneCountInString(r.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if len(r.Ingredients) == 0 {
		return ErrNoIngredients
	}
	for _, ingredient := range r.Ingredients {
		if err := ingredient.Validate(); err != nil {
			return err
		}
	}
	if strings.TrimSpace(r.Instructions) == "" {
		return ErrNoInstructions
	}
	if !r.Difficulty.IsValid() {
		return ErrInvalidDifficulty
	}
	if r.PrepTime < 0 {
		return ErrNegativePrepTime
	}
	if r.CookTime < 0 {
		return ErrNegativeCookTime
	}
	if r.Servings < 0 {
		return ErrInvalidServings
	}
	return nil
}

// Apply applies a sparse patch. The recipe is left unchanged when the patch is
// empty or the patched recipe fails validation.
func (r *Recipe) Apply(p Patch) error {
	if p.IsEmpty() {
		return ErrNothingToUpdate
	}

	next := *r
	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Ingredients != nil {
		next.Ingredients = append([]Ingredient(nil), (*p.Ingredients)...)
	}
	if p.Instructions != nil {
		next.Instructions = *p.Instructions
	}
	if p.Nutrition != nil {
		next.Nutrition = *p.Nutrition
	}
	if p.Cuisine != nil {
		next.Cuisine = *p.Cuisine
	}
	if p.Difficulty != nil {
		next.Difficulty = *p.Difficulty
	}
	if p.PrepTime != nil {
		next.PrepTime = *p.PrepTime
	}
	if p.CookTime != nil {
		next.CookTime = *p.CookTime
	}
	if p.Servings != nil {
		next.Servings = *p.Servings
	}
	if p.ImageURL != nil {
		next.ImageURL = *p.ImageURL
	}
	if p.Tags != nil {
		next.Tags = normalizeTags(*p.Tags)
	}

	if err := next.Validate(); err != nil {
		return err
	}

	next.UpdatedAt = time.Now().UTC()
	*r = next
	return nil
}

// Fork deep-copies the recipe for a new owner. The fork has its own identity,
// a provenance suffix on the name and starts with no ratings.
func (r *Recipe) Fork(owner uuid.UUID) *Recipe {
	now := time.Now().UTC()
	fork := *r
	fork.ID = uuid.New()
	fork.Name = forkName(r.Name)
	fork.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	fork.Tags = append([]string(nil), r.Tags...)
	fork.Nutrition = r.Nutrition.clone()
	fork.CreatedBy = &owner
	fork.Rating = RatingAggregate{}
	fork.CreatedAt = now
	fork.UpdatedAt = now
	return &fork
}

func forkName(name string) string {
	keep := maxNameLength - utf8.RuneCountInString(ShareSuffix)
	if utf8.RuneCountInString(name) > keep {
		name = string([]rune(name)[:keep])
	}
	return name + ShareSuffix
}

func (n NutritionInfo) clone() NutritionInfo {
	cp := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		x := *v
		return &x
	}
	return NutritionInfo{
		Calories:      cp(n.Calories),
		Protein:       cp(n.Protein),
		Carbohydrates: cp(n.Carbohydrates),
		Fat:           cp(n.Fat),
		Fiber:         cp(n.Fiber),
		Sugar:         cp(n.Sugar),
		Sodium:        cp(n.Sodium),
	}
}

// normalizeTags trims, lowercases and de-duplicates tags, keeping first-seen order
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Patch is a field mask for partial recipe updates. Derived fields (total time,
// rating) and immutable fields (identity, creator, timestamps) are not part of it.
type Patch struct {
	Name         *string
	Description  *string
	Ingredients  *[]Ingredient
	Instructions *string
	Nutrition    *NutritionInfo
	Cuisine      *string
	Difficulty   *DifficultyLevel
	PrepTime     *int
	CookTime     *int
	Servings     *int
	ImageURL     *string
	Tags         *[]string
}

// IsEmpty reports whether no field is set
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Ingredients == nil &&
		p.Instructions == nil && p.Nutrition == nil && p.Cuisine == nil &&
		p.Difficulty == nil && p.PrepTime == nil && p.CookTime == nil &&
		p.Servings == nil && p.ImageURL == nil && p.Tags == nil
}
