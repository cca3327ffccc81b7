// Package collection provides the application layer for recipe collections
package collection

import (
	"context"

	"github.com/alchemorsel/mealplan/internal/domain/collection"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/alchemorsel/mealplan/pkg/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CollectionService implements the collection use cases
type CollectionService struct {
	collections outbound.CollectionRepository
	recipes     outbound.RecipeRepository
	tx          outbound.Transactor
	validator   *validation.Validator
	logger      *zap.Logger
}

// NewCollectionService creates a new collection service
func NewCollectionService(
	collections outbound.CollectionRepository,
	recipes outbound.RecipeRepository,
	tx outbound.Transactor,
	logger *zap.Logger,
) *CollectionService {
	return &CollectionService{
		collections: collections,
		recipes:     recipes,
		tx:          tx,
		validator:   validation.New(),
		logger:      logger.Named("collection-service"),
	}
}

var _ inbound.CollectionService = (*CollectionService)(nil)

// Create creates an empty collection; names are unique per owner
func (s *CollectionService) Create(ctx context.Context, cmd inbound.CreateCollectionCommand) (*collection.Collection, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	c, err := collection.New(collection.Collection{
		OwnerID:     cmd.OwnerID,
		Name:        cmd.Name,
		Description: cmd.Description,
		Color:       cmd.Color,
		Icon:        cmd.Icon,
		IsPublic:    cmd.IsPublic,
		Tags:        cmd.Tags,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create collection")
	}

	if err := s.collections.Create(ctx, c); err != nil {
		if errors.Is(err, errors.CodeConflict) {
			return nil, errors.NewConflictError("name", "a collection with this name already exists").WithCause(err)
		}
		return nil, err
	}

	s.logger.Info("Collection created",
		zap.String("collection_id", c.ID.String()),
		zap.String("owner_id", c.OwnerID.String()),
	)
	return c, nil
}

// GetByID returns a collection with its recipe ids
func (s *CollectionService) GetByID(ctx context.Context, id uuid.UUID) (*collection.Collection, error) {
	return s.collections.FindByID(ctx, id)
}

// ListForOwner lists an owner's collections by name
func (s *CollectionService) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]*collection.Collection, error) {
	return s.collections.ListByOwner(ctx, ownerID)
}

// Delete deletes a collection and its memberships; recipes are untouched
func (s *CollectionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.collections.Delete(ctx, id)
	})
}

// AddRecipe adds a recipe to a collection; adding it twice is a no-op
func (s *CollectionService) AddRecipe(ctx context.Context, collectionID, recipeID uuid.UUID) (*collection.Collection, error) {
	var c *collection.Collection
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.collections.FindByID(ctx, collectionID); err != nil {
			return err
		}
		exists, err := s.recipes.Exists(ctx, recipeID)
		if err != nil {
			return err
		}
		if !exists {
			return errors.NewNotFoundError("Recipe", recipeID.String())
		}
		if err := s.collections.AddRecipe(ctx, collectionID, recipeID); err != nil {
			return err
		}
		c, err = s.collections.FindByID(ctx, collectionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveRecipe removes a recipe from a collection
func (s *CollectionService) RemoveRecipe(ctx context.Context, collectionID, recipeID uuid.UUID) (*collection.Collection, error) {
	var c *collection.Collection
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.collections.FindByID(ctx, collectionID); err != nil {
			return err
		}
		if err := s.collections.RemoveRecipe(ctx, collectionID, recipeID); err != nil {
			return err
		}
		var err error
		c, err = s.collections.FindByID(ctx, collectionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
