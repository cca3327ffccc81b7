package inbound

import (
	"context"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/mealplan"
	"github.com/google/uuid"
)

// MealPlanService defines the use cases for weekly meal plans
type MealPlanService interface {
	Create(ctx context.Context, cmd CreateMealPlanCommand) (*mealplan.MealPlan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*mealplan.MealPlan, error)
	ListForOwner(ctx context.Context, query MealPlanQuery) (*MealPlanList, error)
	GetActive(ctx context.Context, ownerID uuid.UUID) (*mealplan.MealPlan, error)
	Update(ctx context.Context, id uuid.UUID, patch mealplan.Patch) (*mealplan.MealPlan, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// SetActive makes planID the only active plan of ownerID
	SetActive(ctx context.Context, ownerID, planID uuid.UUID) (*mealplan.MealPlan, error)

	AssignRecipe(ctx context.Context, cmd AssignRecipeCommand) (*mealplan.MealPlan, error)
	RemoveRecipe(ctx context.Context, planID uuid.UUID, slot mealplan.Slot) (*mealplan.MealPlan, error)
	Clear(ctx context.Context, planID uuid.UUID) (*mealplan.MealPlan, error)
}

// CreateMealPlanCommand contains data for creating a meal plan
type CreateMealPlanCommand struct {
	OwnerID     uuid.UUID `json:"owner_id" validate:"required"`
	Name        string    `json:"name" validate:"required,max=100"`
	Description string    `json:"description" validate:"max=1000"`
	WeekStart   time.Time `json:"week_start" validate:"required"`
}

// AssignRecipeCommand places a recipe into a plan slot
type AssignRecipeCommand struct {
	MealPlanID uuid.UUID          `json:"meal_plan_id" validate:"required"`
	RecipeID   uuid.UUID          `json:"recipe_id" validate:"required"`
	Day        mealplan.DayOfWeek `json:"day_of_week" validate:"min=0,max=6"`
	MealType   mealplan.MealType  `json:"meal_type" validate:"required"`
	Servings   int                `json:"servings" validate:"min=0"`
	Notes      string             `json:"notes" validate:"max=500"`
}

// MealPlanQuery filters an owner's plans
type MealPlanQuery struct {
	OwnerID      uuid.UUID
	ActiveOnly   bool
	NameContains string
	Pagination   PaginationParams
}

// MealPlanList for paginated results
type MealPlanList struct {
	MealPlans []*mealplan.MealPlan `json:"meal_plans"`
	Total     int64                `json:"total"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
}
