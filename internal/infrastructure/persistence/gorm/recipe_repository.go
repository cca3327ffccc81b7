package gorm

import (
	"context"
	"strings"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	apperrors "github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// authoredColumns are the recipe columns writable through Update. The rating
// aggregate and identity columns are excluded.
var authoredColumns = []string{
	"name", "description", "ingredients", "instructions",
	"nutrition_calories", "nutrition_protein", "nutrition_carbohydrates",
	"nutrition_fat", "nutrition_fiber", "nutrition_sugar", "nutrition_sodium",
	"cuisine", "difficulty", "tags", "prep_time", "cook_time", "servings",
	"image_url", "updated_at",
}

// RecipeRepository implements the recipe repository interface using GORM
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) outbound.RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create creates a new recipe
func (r *RecipeRepository) Create(ctx context.Context, rec *recipe.Recipe) error {
	model, err := RecipeToModel(rec)
	if err != nil {
		return apperrors.NewInternalError("failed to encode recipe").WithCause(err)
	}

	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return translate(err, recipeEntity, rec.ID.String(), "create recipe")
	}
	return nil
}

// Update writes the authored fields of an existing recipe
func (r *RecipeRepository) Update(ctx context.Context, rec *recipe.Recipe) error {
	model, err := RecipeToModel(rec)
	if err != nil {
		return apperrors.NewInternalError("failed to encode recipe").WithCause(err)
	}

	result := conn(ctx, r.db).
		Model(&RecipeModel{}).
		Where("id = ?", rec.ID).
		Select(authoredColumns).
		Updates(model)
	if result.Error != nil {
		return translate(result.Error, recipeEntity, rec.ID.String(), "update recipe")
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("Recipe", rec.ID.String())
	}
	return nil
}

// Delete deletes a recipe by ID
func (r *RecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&RecipeModel{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error, recipeEntity, id.String(), "delete recipe")
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("Recipe", id.String())
	}
	return nil
}

// FindByID finds a recipe by ID
func (r *RecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	var model RecipeModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, recipeEntity, id.String(), "find recipe")
	}
	return ModelToRecipe(&model)
}

// LockForUpdate selects the recipe FOR UPDATE. Outside a transaction the
// lock is released as soon as the statement completes.
func (r *RecipeRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	var model RecipeModel
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&model).Error
	if err != nil {
		return nil, translate(err, recipeEntity, id.String(), "lock recipe")
	}
	return ModelToRecipe(&model)
}

// Exists reports whether a recipe with id exists
func (r *RecipeRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&RecipeModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate(err, recipeEntity, id.String(), "check recipe")
	}
	return count > 0, nil
}

// Search searches for recipes based on criteria, newest first
func (r *RecipeRepository) Search(ctx context.Context, criteria outbound.SearchCriteria) ([]*recipe.Recipe, int64, error) {
	query := conn(ctx, r.db).Model(&RecipeModel{})

	if criteria.Query != "" {
		searchTerm := "%" + strings.ToLower(criteria.Query) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}
	if criteria.Cuisine != "" {
		query = query.Where("LOWER(cuisine) = ?", strings.ToLower(criteria.Cuisine))
	}
	if criteria.Difficulty != nil {
		query = query.Where("difficulty = ?", string(*criteria.Difficulty))
	}
	if criteria.CreatedBy != nil {
		query = query.Where("created_by = ?", *criteria.CreatedBy)
	}
	if criteria.AIGenerated != nil {
		query = query.Where("ai_generated = ?", *criteria.AIGenerated)
	}
	for _, tag := range criteria.Tags {
		// tags are stored lowercased as a JSON array of strings
		query = query.Where("CAST(tags AS TEXT) LIKE ?", `%"`+strings.ToLower(tag)+`"%`)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, recipeEntity, "", "count recipes")
	}

	var models []RecipeModel
	err := query.
		Order("created_at DESC").
		Order("id").
		Offset(criteria.Offset).
		Limit(criteria.Limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, translate(err, recipeEntity, "", "search recipes")
	}

	recipes := make([]*recipe.Recipe, len(models))
	for i := range models {
		rec, err := ModelToRecipe(&models[i])
		if err != nil {
			return nil, 0, apperrors.NewInternalError("failed to decode recipe").WithCause(err)
		}
		recipes[i] = rec
	}
	return recipes, total, nil
}

// UpdateRatingAggregate overwrites the derived rating columns
func (r *RecipeRepository) UpdateRatingAggregate(ctx context.Context, id uuid.UUID, rating recipe.RatingAggregate) error {
	result := conn(ctx, r.db).
		Model(&RecipeModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"avg_rating":   rating.Average,
			"rating_count": rating.Count,
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return translate(result.Error, recipeEntity, id.String(), "update recipe rating")
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("Recipe", id.String())
	}
	return nil
}
