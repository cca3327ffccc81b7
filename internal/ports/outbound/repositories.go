// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/ai"
	"github.com/alchemorsel/mealplan/internal/domain/collection"
	"github.com/alchemorsel/mealplan/internal/domain/favorite"
	"github.com/alchemorsel/mealplan/internal/domain/mealplan"
	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/google/uuid"
)

// Transactor runs a unit of work atomically. Repositories called with the
// context passed to fn participate in the same transaction. Any error returned
// by fn, or a panic, rolls the whole unit back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RecipeRepository defines the interface for recipe persistence
type RecipeRepository interface {
	Create(ctx context.Context, recipe *recipe.Recipe) error
	// Update writes authored fields only; the rating aggregate is never touched.
	Update(ctx context.Context, recipe *recipe.Recipe) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// LockForUpdate reads the recipe and holds a row lock on it until the
	// surrounding transaction ends. Writers that derive data from rows
	// referencing the recipe take this lock first.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error)
	Search(ctx context.Context, criteria SearchCriteria) ([]*recipe.Recipe, int64, error)

	// UpdateRatingAggregate is reserved for rating recomputation
	UpdateRatingAggregate(ctx context.Context, id uuid.UUID, rating recipe.RatingAggregate) error
}

// SearchCriteria defines search parameters for recipes
type SearchCriteria struct {
	Query       string
	Cuisine     string
	Difficulty  *recipe.DifficultyLevel
	CreatedBy   *uuid.UUID
	Tags        []string
	AIGenerated *bool
	Offset      int
	Limit       int
}

// MealPlanRepository defines the interface for meal plan persistence
type MealPlanRepository interface {
	Create(ctx context.Context, plan *mealplan.MealPlan) error
	Update(ctx context.Context, plan *mealplan.MealPlan) error
	Delete(ctx context.Context, id uuid.UUID) error
	// FindByID loads the plan together with its items
	FindByID(ctx context.Context, id uuid.UUID) (*mealplan.MealPlan, error)
	List(ctx context.Context, filter MealPlanFilter) ([]*mealplan.MealPlan, int64, error)
	FindActive(ctx context.Context, ownerID uuid.UUID) (*mealplan.MealPlan, error)

	DeactivateAllForOwner(ctx context.Context, ownerID uuid.UUID) error
	// Activate returns NOT_FOUND when no plan with id belongs to ownerID
	Activate(ctx context.Context, id, ownerID uuid.UUID) error

	// UpsertItem inserts or replaces the item at its slot
	UpsertItem(ctx context.Context, item *mealplan.Item) error
	DeleteItem(ctx context.Context, planID uuid.UUID, slot mealplan.Slot) (bool, error)
	DeleteItems(ctx context.Context, planID uuid.UUID) (int64, error)
}

// MealPlanFilter defines listing parameters for meal plans
type MealPlanFilter struct {
	OwnerID      uuid.UUID
	ActiveOnly   bool
	NameContains string
	Offset       int
	Limit        int
}

// FavoriteRepository defines the interface for favorites and personal ratings
type FavoriteRepository interface {
	// Upsert inserts the favorite or replaces rating and notes of the existing row
	Upsert(ctx context.Context, fav *favorite.Favorite) error
	Find(ctx context.Context, userID, recipeID uuid.UUID) (*favorite.Favorite, error)
	Delete(ctx context.Context, userID, recipeID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*favorite.Favorite, int64, error)
	// RatingStats aggregates the non-null personal ratings of a recipe
	RatingStats(ctx context.Context, recipeID uuid.UUID) (recipe.RatingAggregate, error)
}

// CollectionRepository defines the interface for recipe collections
type CollectionRepository interface {
	Create(ctx context.Context, c *collection.Collection) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*collection.Collection, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*collection.Collection, error)
	AddRecipe(ctx context.Context, collectionID, recipeID uuid.UUID) error
	RemoveRecipe(ctx context.Context, collectionID, recipeID uuid.UUID) error
}

// RelationshipRepository answers which rows reference a recipe
type RelationshipRepository interface {
	UsageCounts(ctx context.Context, recipeID uuid.UUID) (UsageCounts, error)
	MealPlanReferences(ctx context.Context, recipeID uuid.UUID) ([]MealPlanReference, error)
	FavoriteReferences(ctx context.Context, recipeID uuid.UUID) ([]*favorite.Favorite, error)
	CollectionReferences(ctx context.Context, recipeID uuid.UUID) ([]CollectionReference, error)

	// Detach* remove every reference of one kind in a single statement
	DetachFromMealPlans(ctx context.Context, recipeID uuid.UUID) (int64, error)
	DetachFromFavorites(ctx context.Context, recipeID uuid.UUID) (int64, error)
	DetachFromCollections(ctx context.Context, recipeID uuid.UUID) (int64, error)

	PopularRecipes(ctx context.Context, minRating float64, limit int) ([]PopularRecipe, error)
}

// UsageCounts holds reference counts for one recipe
type UsageCounts struct {
	MealPlans   int64
	Favorites   int64
	Collections int64
}

// Total returns the sum of all references
func (u UsageCounts) Total() int64 {
	return u.MealPlans + u.Favorites + u.Collections
}

// MealPlanReference is a plan slot pointing at a recipe
type MealPlanReference struct {
	MealPlanID   uuid.UUID     `json:"meal_plan_id"`
	MealPlanName string        `json:"meal_plan_name"`
	OwnerID      uuid.UUID     `json:"owner_id"`
	Slot         mealplan.Slot `json:"slot"`
}

// CollectionReference is a collection containing a recipe
type CollectionReference struct {
	CollectionID uuid.UUID `json:"collection_id"`
	Name         string    `json:"name"`
	OwnerID      uuid.UUID `json:"owner_id"`
}

// PopularRecipe is a recipe with its usage
type PopularRecipe struct {
	Recipe *recipe.Recipe
	Usage  UsageCounts
}

// ErrCacheMiss is returned by CacheRepository.Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// RecipeGenerator produces recipe payloads from a generation input. It may be
// slow and may fail intermittently.
type RecipeGenerator interface {
	Generate(ctx context.Context, input ai.GenerationInput) (*ai.RecipePayload, error)
}

// MetricsRecorder records service-level measurements
type MetricsRecorder interface {
	IntakeAttempt(outcome string, duration time.Duration)
	IntakeResult(success bool)
	RecipeDeleted(cascaded bool)
	RatingRecalculated()
}

// NopMetrics discards every measurement
type NopMetrics struct{}

func (NopMetrics) IntakeAttempt(string, time.Duration) {}
func (NopMetrics) IntakeResult(bool)                   {}
func (NopMetrics) RecipeDeleted(bool)                  {}
func (NopMetrics) RatingRecalculated()                 {}
