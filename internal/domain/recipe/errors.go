package recipe

import "github.com/alchemorsel/mealplan/internal/domain/shared"

// Domain errors for recipe operations

var (
	// Entity validation errors
	ErrNameRequired           = shared.NewFieldError("name", "recipe name is required")
	ErrNameTooLong            = shared.NewFieldError("name", "recipe name must not exceed 200 characters")
	ErrDescriptionTooLong     = shared.NewFieldError("description", "recipe description must not exceed 2000 characters")
	ErrNoIngredients          = shared.NewFieldError("ingredients", "recipe must have at least one ingredient")
	ErrIngredientNameRequired = shared.NewFieldError("ingredients", "ingredient name is required")
	ErrNegativeAmount         = shared.NewFieldError("ingredients", "ingredient amount cannot be negative")
	ErrNoInstructions         = shared.NewFieldError("instructions", "recipe instructions are required")
	ErrInvalidDifficulty      = shared.NewFieldError("difficulty", "difficulty must be one of easy, medium, hard")
	ErrNegativePrepTime       = shared.NewFieldError("prep_time", "prep time cannot be negative")
	ErrNegativeCookTime       = shared.NewFieldError("cook_time", "cook time cannot be negative")
	ErrInvalidServings        = shared.NewFieldError("servings", "servings cannot be negative")

	// Update errors
	ErrNothingToUpdate = shared.NewFieldError("fields", "nothing to update")

	// Rating errors
	ErrInvalidRating = shared.NewFieldError("rating", "rating must be between 1 and 5")
)
