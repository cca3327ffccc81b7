// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/google/uuid"
)

// RecipeService defines the use cases for recipe management.
// Deletion is deliberately absent; it goes through ConsistencyEngine.DeleteRecipe.
type RecipeService interface {
	Create(ctx context.Context, cmd CreateRecipeCommand) (*recipe.Recipe, error)
	GetByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error)
	Update(ctx context.Context, id uuid.UUID, patch recipe.Patch) (*recipe.Recipe, error)
	Search(ctx context.Context, query SearchQuery) (*RecipeList, error)
}

// CreateRecipeCommand contains data for creating a new recipe
type CreateRecipeCommand struct {
	Name         string               `json:"name" validate:"required,max=200"`
	Description  string               `json:"description" validate:"max=2000"`
	Ingredients  []recipe.Ingredient  `json:"ingredients" validate:"required,min=1,dive"`
	Instructions string               `json:"instructions" validate:"required"`
	Nutrition    recipe.NutritionInfo `json:"nutrition"`
	Cuisine      string               `json:"cuisine"`
	Difficulty   string               `json:"difficulty" validate:"required"`
	PrepTime     int                  `json:"prep_time" validate:"min=0"`
	CookTime     int                  `json:"cook_time" validate:"min=0"`
	Servings     int                  `json:"servings" validate:"min=0"`
	ImageURL     string               `json:"image_url"`
	Tags         []string             `json:"tags"`
	CreatedBy    *uuid.UUID           `json:"created_by,omitempty"`
	AIGenerated  bool                 `json:"-"`
}

// SearchQuery defines search parameters
type SearchQuery struct {
	Text        string
	Cuisine     string
	Difficulty  string
	CreatedBy   *uuid.UUID
	Tags        []string
	AIGenerated *bool
	Pagination  PaginationParams
}

// PaginationParams for paginated queries
type PaginationParams struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Normalize clamps the window to sane values
func (p PaginationParams) Normalize(defaultLimit, maxLimit int) PaginationParams {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Response DTOs

// RecipeDTO is the data transfer object for recipes
type RecipeDTO struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Ingredients  []recipe.Ingredient  `json:"ingredients"`
	Instructions string               `json:"instructions"`
	Nutrition    recipe.NutritionInfo `json:"nutrition"`
	Cuisine      string               `json:"cuisine,omitempty"`
	Difficulty   string               `json:"difficulty"`
	PrepTime     int                  `json:"prep_time"`
	CookTime     int                  `json:"cook_time"`
	TotalTime    int                  `json:"total_time"`
	Servings     int                  `json:"servings"`
	AvgRating    float64              `json:"avg_rating"`
	RatingCount  int                  `json:"rating_count"`
	ImageURL     string               `json:"image_url,omitempty"`
	Tags         []string             `json:"tags"`
	CreatedBy    *uuid.UUID           `json:"created_by,omitempty"`
	AIGenerated  bool                 `json:"ai_generated"`
	CreatedAt    string               `json:"created_at"`
	UpdatedAt    string               `json:"updated_at"`
}

// NewRecipeDTO maps a recipe entity onto its transfer shape
func NewRecipeDTO(r *recipe.Recipe) *RecipeDTO {
	if r == nil {
		return nil
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return &RecipeDTO{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
		Nutrition:    r.Nutrition,
		Cuisine:      r.Cuisine,
		Difficulty:   string(r.Difficulty),
		PrepTime:     r.PrepTime,
		CookTime:     r.CookTime,
		TotalTime:    r.TotalTime(),
		Servings:     r.Servings,
		AvgRating:    r.Rating.Average,
		RatingCount:  r.Rating.Count,
		ImageURL:     r.ImageURL,
		Tags:         tags,
		CreatedBy:    r.CreatedBy,
		AIGenerated:  r.AIGenerated,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    r.UpdatedAt.Format(time.RFC3339),
	}
}

// RecipeList for paginated results
type RecipeList struct {
	Recipes []RecipeDTO `json:"recipes"`
	Total   int64       `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
}

// FieldError is a field/message pair suitable for direct display
type FieldError = errors.ValidationError

// CreationResult is the caller-facing outcome of a creation flow. Callers
// branch on Success and render Errors and Message verbatim.
type CreationResult struct {
	Success bool         `json:"success"`
	Recipe  *RecipeDTO   `json:"recipe,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Message string       `json:"message,omitempty"`
}

// NewCreationResult builds the result of a creation attempt
func NewCreationResult(r *recipe.Recipe, err error) CreationResult {
	if err != nil {
		return CreationResult{
			Success: false,
			Errors:  errors.FieldErrors(err),
			Message: errors.Wrap(err, "recipe creation failed").Message,
		}
	}
	return CreationResult{
		Success: true,
		Recipe:  NewRecipeDTO(r),
		Message: "Recipe created",
	}
}
