package gorm

import (
	"context"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/collection"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	apperrors "github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CollectionRepository implements the collection repository interface using GORM
type CollectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(db *gorm.DB) outbound.CollectionRepository {
	return &CollectionRepository{db: db}
}

// Create creates a new, empty collection
func (r *CollectionRepository) Create(ctx context.Context, c *collection.Collection) error {
	model, err := CollectionToModel(c)
	if err != nil {
		return apperrors.NewInternalError("failed to encode collection").WithCause(err)
	}
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(model).Error; err != nil {
		return translate(err, collectionEntity, c.ID.String(), "create collection")
	}
	return nil
}

// Delete deletes a collection and its memberships
func (r *CollectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := conn(ctx, r.db)
	if err := db.Where("collection_id = ?", id).Delete(&CollectionRecipeModel{}).Error; err != nil {
		return translate(err, membershipEntity, id.String(), "delete collection recipes")
	}
	result := db.Delete(&CollectionModel{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error, collectionEntity, id.String(), "delete collection")
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("Collection", id.String())
	}
	return nil
}

// FindByID finds a collection with its recipe memberships
func (r *CollectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*collection.Collection, error) {
	var model CollectionModel
	err := conn(ctx, r.db).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("added_at ASC") }).
		First(&model, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, collectionEntity, id.String(), "find collection")
	}
	return decodeCollection(&model)
}

// ListByOwner lists the collections of an owner by name
func (r *CollectionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*collection.Collection, error) {
	var models []CollectionModel
	err := conn(ctx, r.db).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("added_at ASC") }).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, translate(err, collectionEntity, "", "list collections")
	}

	collections := make([]*collection.Collection, len(models))
	for i := range models {
		c, err := decodeCollection(&models[i])
		if err != nil {
			return nil, err
		}
		collections[i] = c
	}
	return collections, nil
}

// AddRecipe adds a membership; adding an existing member is a no-op
func (r *CollectionRepository) AddRecipe(ctx context.Context, collectionID, recipeID uuid.UUID) error {
	model := &CollectionRecipeModel{CollectionID: collectionID, RecipeID: recipeID, AddedAt: time.Now().UTC()}
	err := conn(ctx, r.db).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model).Error
	if err != nil {
		return translate(err, membershipEntity, collectionID.String(), "add recipe to collection")
	}
	return nil
}

// RemoveRecipe removes a membership
func (r *CollectionRepository) RemoveRecipe(ctx context.Context, collectionID, recipeID uuid.UUID) error {
	result := conn(ctx, r.db).
		Where("collection_id = ? AND recipe_id = ?", collectionID, recipeID).
		Delete(&CollectionRecipeModel{})
	if result.Error != nil {
		return translate(result.Error, membershipEntity, collectionID.String(), "remove recipe from collection")
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("Collection recipe", recipeID.String())
	}
	return nil
}

func decodeCollection(m *CollectionModel) (*collection.Collection, error) {
	c, err := ModelToCollection(m)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to decode collection").WithCause(err)
	}
	return c, nil
}
