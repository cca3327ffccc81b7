package inbound

import (
	"context"

	"github.com/alchemorsel/mealplan/internal/domain/favorite"
	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	"github.com/google/uuid"
)

// RelationshipLedger is the read-mostly view of what references a recipe.
// RecalculateRating is the only public writer of a recipe's rating aggregate.
type RelationshipLedger interface {
	UsageStats(ctx context.Context, recipeID uuid.UUID) (*UsageStats, error)
	Relationships(ctx context.Context, recipeID uuid.UUID) (*Relationships, error)
	RecalculateRating(ctx context.Context, recipeID uuid.UUID) (recipe.RatingAggregate, error)
}

// ConsistencyEngine runs the cross-entity operations, each as one transaction
type ConsistencyEngine interface {
	DeleteRecipe(ctx context.Context, recipeID uuid.UUID, cascade bool) (*DeletionResult, error)
	AddRecipeRating(ctx context.Context, cmd RateRecipeCommand) (*recipe.Recipe, error)
	RemoveRecipeRating(ctx context.Context, userID, recipeID uuid.UUID) (*recipe.Recipe, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error
	ShareRecipe(ctx context.Context, recipeID, fromUser, toUser uuid.UUID) (*recipe.Recipe, error)
	GetPopularRecipes(ctx context.Context, limit int) ([]PopularRecipe, error)
}

// RateRecipeCommand for rating a recipe
type RateRecipeCommand struct {
	UserID   uuid.UUID `json:"user_id" validate:"required"`
	RecipeID uuid.UUID `json:"recipe_id" validate:"required"`
	Rating   int       `json:"rating" validate:"min=1,max=5"`
	Notes    *string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// UsageStats summarizes the references to a recipe
type UsageStats struct {
	RecipeID         uuid.UUID `json:"recipe_id"`
	MealPlanUsage    int64     `json:"meal_plan_usage"`
	FavoritesCount   int64     `json:"favorites_count"`
	CollectionsCount int64     `json:"collections_count"`
	Total            int64     `json:"total"`
	CanDelete        bool      `json:"can_delete"`
}

// NewUsageStats derives the summary from raw counts
func NewUsageStats(recipeID uuid.UUID, counts outbound.UsageCounts) *UsageStats {
	total := counts.Total()
	return &UsageStats{
		RecipeID:         recipeID,
		MealPlanUsage:    counts.MealPlans,
		FavoritesCount:   counts.Favorites,
		CollectionsCount: counts.Collections,
		Total:            total,
		CanDelete:        total == 0,
	}
}

// Relationships lists the rows referencing a recipe
type Relationships struct {
	RecipeID    uuid.UUID                      `json:"recipe_id"`
	MealPlans   []outbound.MealPlanReference   `json:"meal_plans"`
	Favorites   []*favorite.Favorite           `json:"favorites"`
	Collections []outbound.CollectionReference `json:"collections"`
}

// DeletionResult reports what a recipe deletion removed
type DeletionResult struct {
	RecipeID            uuid.UUID `json:"recipe_id"`
	Cascaded            bool      `json:"cascaded"`
	DetachedMealSlots   int64     `json:"detached_meal_slots"`
	DetachedFavorites   int64     `json:"detached_favorites"`
	DetachedCollections int64     `json:"detached_collections"`
}

// PopularRecipe is a ranked recipe with its usage
type PopularRecipe struct {
	Recipe *RecipeDTO  `json:"recipe"`
	Usage  *UsageStats `json:"usage"`
}
