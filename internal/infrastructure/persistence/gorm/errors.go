package gorm

import (
	"context"
	"errors"

	apperrors "github.com/alchemorsel/mealplan/pkg/errors"
	"gorm.io/gorm"
)

// entity names a table in error messages. unique is the field a duplicate
// key on that table is reported against.
type entity struct {
	name   string
	unique string
}

var (
	recipeEntity       = entity{name: "Recipe", unique: "id"}
	mealPlanEntity     = entity{name: "Meal plan", unique: "name"}
	activePlanEntity   = entity{name: "Active meal plan", unique: "is_active"}
	mealPlanItemEntity = entity{name: "Meal plan item", unique: "slot"}
	favoriteEntity     = entity{name: "Favorite", unique: "recipe_id"}
	collectionEntity   = entity{name: "Collection", unique: "name"}
	membershipEntity   = entity{name: "Collection recipe", unique: "recipe_id"}
)

// translate maps driver and gorm errors onto the application taxonomy.
// The database must be opened with TranslateError enabled.
func translate(err error, target entity, id, operation string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NewNotFoundError(target.name, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.NewConflictError(target.unique, target.name+" already exists").WithCause(err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperrors.NewConflictError(
			"references", target.name+" references a missing or protected record",
		).WithCause(err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return apperrors.NewValidationError("", target.name+" violates a constraint").WithCause(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTransientError("database", err)
	default:
		return apperrors.NewDatabaseError(operation, err)
	}
}
