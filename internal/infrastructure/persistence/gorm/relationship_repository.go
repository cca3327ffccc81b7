package gorm

import (
	"context"

	"github.com/alchemorsel/mealplan/internal/domain/favorite"
	"github.com/alchemorsel/mealplan/internal/domain/mealplan"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	apperrors "github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RelationshipRepository implements reference queries across plans,
// favorites and collections
type RelationshipRepository struct {
	db *gorm.DB
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db *gorm.DB) outbound.RelationshipRepository {
	return &RelationshipRepository{db: db}
}

type usageRow struct {
	MealPlans   int64
	Favorites   int64
	Collections int64
}

const usageCountsSQL = `
SELECT
	(SELECT COUNT(*) FROM meal_plan_items WHERE recipe_id = @id) AS meal_plans,
	(SELECT COUNT(*) FROM favorites WHERE recipe_id = @id) AS favorites,
	(SELECT COUNT(*) FROM collection_recipes WHERE recipe_id = @id) AS collections`

// UsageCounts counts the rows referencing a recipe in one round trip
func (r *RelationshipRepository) UsageCounts(ctx context.Context, recipeID uuid.UUID) (outbound.UsageCounts, error) {
	var row usageRow
	if err := conn(ctx, r.db).Raw(usageCountsSQL, map[string]interface{}{"id": recipeID}).Scan(&row).Error; err != nil {
		return outbound.UsageCounts{}, translate(err, recipeEntity, recipeID.String(), "count recipe usage")
	}
	return outbound.UsageCounts(row), nil
}

type mealPlanReferenceRow struct {
	MealPlanID uuid.UUID
	Name       string
	OwnerID    uuid.UUID
	DayOfWeek  int
	MealType   string
}

// MealPlanReferences lists every plan slot holding the recipe
func (r *RelationshipRepository) MealPlanReferences(ctx context.Context, recipeID uuid.UUID) ([]outbound.MealPlanReference, error) {
	var rows []mealPlanReferenceRow
	err := conn(ctx, r.db).
		Table("meal_plan_items AS i").
		Select("i.meal_plan_id, p.name, p.owner_id, i.day_of_week, i.meal_type").
		Joins("JOIN meal_plans AS p ON p.id = i.meal_plan_id").
		Where("i.recipe_id = ?", recipeID).
		Order("p.name ASC").Order("i.day_of_week ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, recipeEntity, recipeID.String(), "list meal plan references")
	}

	refs := make([]outbound.MealPlanReference, len(rows))
	for i, row := range rows {
		refs[i] = outbound.MealPlanReference{
			MealPlanID:   row.MealPlanID,
			MealPlanName: row.Name,
			OwnerID:      row.OwnerID,
			Slot:         mealplan.Slot{Day: mealplan.DayOfWeek(row.DayOfWeek), MealType: mealplan.MealType(row.MealType)},
		}
	}
	return refs, nil
}

// FavoriteReferences lists every favorite of the recipe
func (r *RelationshipRepository) FavoriteReferences(ctx context.Context, recipeID uuid.UUID) ([]*favorite.Favorite, error) {
	var models []FavoriteModel
	if err := conn(ctx, r.db).Where("recipe_id = ?", recipeID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, translate(err, recipeEntity, recipeID.String(), "list favorite references")
	}
	favorites := make([]*favorite.Favorite, len(models))
	for i := range models {
		favorites[i] = ModelToFavorite(&models[i])
	}
	return favorites, nil
}

type collectionReferenceRow struct {
	ID      uuid.UUID
	Name    string
	OwnerID uuid.UUID
}

// CollectionReferences lists every collection containing the recipe
func (r *RelationshipRepository) CollectionReferences(ctx context.Context, recipeID uuid.UUID) ([]outbound.CollectionReference, error) {
	var rows []collectionReferenceRow
	err := conn(ctx, r.db).
		Table("collections AS c").
		Select("c.id, c.name, c.owner_id").
		Joins("JOIN collection_recipes AS cr ON cr.collection_id = c.id").
		Where("cr.recipe_id = ?", recipeID).
		Order("c.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, recipeEntity, recipeID.String(), "list collection references")
	}

	refs := make([]outbound.CollectionReference, len(rows))
	for i, row := range rows {
		refs[i] = outbound.CollectionReference{CollectionID: row.ID, Name: row.Name, OwnerID: row.OwnerID}
	}
	return refs, nil
}

// DetachFromMealPlans removes every plan slot holding the recipe in one statement
func (r *RelationshipRepository) DetachFromMealPlans(ctx context.Context, recipeID uuid.UUID) (int64, error) {
	result := conn(ctx, r.db).Where("recipe_id = ?", recipeID).Delete(&MealPlanItemModel{})
	if result.Error != nil {
		return 0, translate(result.Error, recipeEntity, recipeID.String(), "detach recipe from meal plans")
	}
	return result.RowsAffected, nil
}

// DetachFromFavorites removes every favorite of the recipe
func (r *RelationshipRepository) DetachFromFavorites(ctx context.Context, recipeID uuid.UUID) (int64, error) {
	result := conn(ctx, r.db).Where("recipe_id = ?", recipeID).Delete(&FavoriteModel{})
	if result.Error != nil {
		return 0, translate(result.Error, recipeEntity, recipeID.String(), "detach recipe from favorites")
	}
	return result.RowsAffected, nil
}

// DetachFromCollections removes the recipe from every collection
func (r *RelationshipRepository) DetachFromCollections(ctx context.Context, recipeID uuid.UUID) (int64, error) {
	result := conn(ctx, r.db).Where("recipe_id = ?", recipeID).Delete(&CollectionRecipeModel{})
	if result.Error != nil {
		return 0, translate(result.Error, recipeEntity, recipeID.String(), "detach recipe from collections")
	}
	return result.RowsAffected, nil
}

type popularRow struct {
	RecipeModel
	MealPlanUsage    int64
	FavoritesCount   int64
	CollectionsCount int64
}

const popularRecipesSQL = `
SELECT * FROM (
	SELECT r.*,
		(SELECT COUNT(*) FROM meal_plan_items i WHERE i.recipe_id = r.id) AS meal_plan_usage,
		(SELECT COUNT(*) FROM favorites f WHERE f.recipe_id = r.id) AS favorites_count,
		(SELECT COUNT(*) FROM collection_recipes c WHERE c.recipe_id = r.id) AS collections_count
	FROM recipes r
	WHERE r.avg_rating >= @min_rating
) ranked
ORDER BY (meal_plan_usage + favorites_count + collections_count) DESC, avg_rating DESC, created_at DESC
LIMIT @limit`

// PopularRecipes ranks recipes rated at least minRating by total usage, then rating
func (r *RelationshipRepository) PopularRecipes(ctx context.Context, minRating float64, limit int) ([]outbound.PopularRecipe, error) {
	var rows []popularRow
	err := conn(ctx, r.db).
		Raw(popularRecipesSQL, map[string]interface{}{"min_rating": minRating, "limit": limit}).
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, recipeEntity, "", "rank popular recipes")
	}

	popular := make([]outbound.PopularRecipe, len(rows))
	for i := range rows {
		rec, err := ModelToRecipe(&rows[i].RecipeModel)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to decode recipe").WithCause(err)
		}
		popular[i] = outbound.PopularRecipe{
			Recipe: rec,
			Usage: outbound.UsageCounts{
				MealPlans:   rows[i].MealPlanUsage,
				Favorites:   rows[i].FavoritesCount,
				Collections: rows[i].CollectionsCount,
			},
		}
	}
	return popular, nil
}
