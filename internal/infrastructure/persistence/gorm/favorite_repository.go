package gorm

import (
	"context"

	"github.com/alchemorsel/mealplan/internal/domain/favorite"
	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	apperrors "github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavoriteRepository implements the favorite repository interface using GORM
type FavoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *gorm.DB) outbound.FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Upsert inserts the favorite or replaces rating and notes on the existing row
func (r *FavoriteRepository) Upsert(ctx context.Context, fav *favorite.Favorite) error {
	model := FavoriteToModel(fav)
	err := conn(ctx, r.db).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "recipe_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"personal_rating", "personal_notes", "updated_at"}),
		}).
		Create(model).Error
	if err != nil {
		return translate(err, favoriteEntity, fav.RecipeID.String(), "save favorite")
	}
	return nil
}

// Find finds the favorite of a user for a recipe
func (r *FavoriteRepository) Find(ctx context.Context, userID, recipeID uuid.UUID) (*favorite.Favorite, error) {
	var model FavoriteModel
	err := conn(ctx, r.db).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		First(&model).Error
	if err != nil {
		return nil, translate(err, favoriteEntity, recipeID.String(), "find favorite")
	}
	return ModelToFavorite(&model), nil
}

// Delete removes the favorite row
func (r *FavoriteRepository) Delete(ctx context.Context, userID, recipeID uuid.UUID) error {
	result := conn(ctx, r.db).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&FavoriteModel{})
	if result.Error != nil {
		return translate(result.Error, favoriteEntity, recipeID.String(), "delete favorite")
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("Favorite", recipeID.String())
	}
	return nil
}

// ListByUser lists a user's favorites, most recent first
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*favorite.Favorite, int64, error) {
	query := conn(ctx, r.db).Model(&FavoriteModel{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, favoriteEntity, "", "count favorites")
	}

	var models []FavoriteModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, translate(err, favoriteEntity, "", "list favorites")
	}

	favorites := make([]*favorite.Favorite, len(models))
	for i := range models {
		favorites[i] = ModelToFavorite(&models[i])
	}
	return favorites, total, nil
}

type ratingStatsRow struct {
	Average float64
	Count   int
}

// RatingStats computes mean and count over the non-null personal ratings of a recipe.
// A recipe without ratings yields 0/0.
func (r *FavoriteRepository) RatingStats(ctx context.Context, recipeID uuid.UUID) (recipe.RatingAggregate, error) {
	var row ratingStatsRow
	err := conn(ctx, r.db).
		Model(&FavoriteModel{}).
		Select("COALESCE(AVG(CAST(personal_rating AS DOUBLE PRECISION)), 0) AS average, COUNT(personal_rating) AS count").
		Where("recipe_id = ? AND personal_rating IS NOT NULL", recipeID).
		Scan(&row).Error
	if err != nil {
		return recipe.RatingAggregate{}, translate(err, favoriteEntity, recipeID.String(), "aggregate ratings")
	}
	return recipe.RatingAggregate{Average: row.Average, Count: row.Count}, nil
}
