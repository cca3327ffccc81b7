package inbound

import (
	"context"

	"github.com/alchemorsel/mealplan/internal/domain/collection"
	"github.com/alchemorsel/mealplan/internal/domain/favorite"
	"github.com/google/uuid"
)

// FavoriteService defines the favorite use cases that do not affect rating
// aggregates. Rating changes and unfavoriting go through ConsistencyEngine.
type FavoriteService interface {
	Add(ctx context.Context, userID, recipeID uuid.UUID) (*favorite.Favorite, error)
	Get(ctx context.Context, userID, recipeID uuid.UUID) (*favorite.Favorite, error)
	UpdateNotes(ctx context.Context, userID, recipeID uuid.UUID, notes *string) (*favorite.Favorite, error)
	ListForUser(ctx context.Context, userID uuid.UUID, page PaginationParams) ([]*favorite.Favorite, int64, error)
}

// CollectionService defines the use cases for recipe collections
type CollectionService interface {
	Create(ctx context.Context, cmd CreateCollectionCommand) (*collection.Collection, error)
	GetByID(ctx context.Context, id uuid.UUID) (*collection.Collection, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]*collection.Collection, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddRecipe(ctx context.Context, collectionID, recipeID uuid.UUID) (*collection.Collection, error)
	RemoveRecipe(ctx context.Context, collectionID, recipeID uuid.UUID) (*collection.Collection, error)
}

// CreateCollectionCommand contains data for creating a collection
type CreateCollectionCommand struct {
	OwnerID     uuid.UUID `json:"owner_id" validate:"required"`
	Name        string    `json:"name" validate:"required,max=100"`
	Description string    `json:"description" validate:"max=1000"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon" validate:"max=50"`
	IsPublic    bool      `json:"is_public"`
	Tags        []string  `json:"tags" validate:"max=20"`
}
