// Package favorite provides the application layer for favorites
package favorite

import (
	"context"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/favorite"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// FavoriteService implements the favorite use cases that leave rating
// aggregates untouched
type FavoriteService struct {
	favorites outbound.FavoriteRepository
	recipes   outbound.RecipeRepository
	tx        outbound.Transactor
	logger    *zap.Logger
}

// NewFavoriteService creates a new favorite service
func NewFavoriteService(
	favorites outbound.FavoriteRepository,
	recipes outbound.RecipeRepository,
	tx outbound.Transactor,
	logger *zap.Logger,
) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		recipes:   recipes,
		tx:        tx,
		logger:    logger.Named("favorite-service"),
	}
}

var _ inbound.FavoriteService = (*FavoriteService)(nil)

// Add favorites a recipe. Adding an existing favorite returns it unchanged.
func (s *FavoriteService) Add(ctx context.Context, userID, recipeID uuid.UUID) (*favorite.Favorite, error) {
	var fav *favorite.Favorite
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.favorites.Find(ctx, userID, recipeID)
		if err == nil {
			fav = existing
			return nil
		}
		if !errors.Is(err, errors.CodeNotFound) {
			return err
		}

		exists, err := s.recipes.Exists(ctx, recipeID)
		if err != nil {
			return err
		}
		if !exists {
			return errors.NewNotFoundError("Recipe", recipeID.String())
		}

		fav = favorite.New(userID, recipeID)
		return s.favorites.Upsert(ctx, fav)
	})
	if err != nil {
		return nil, err
	}
	return fav, nil
}

// Get returns the user's favorite for a recipe
func (s *FavoriteService) Get(ctx context.Context, userID, recipeID uuid.UUID) (*favorite.Favorite, error) {
	return s.favorites.Find(ctx, userID, recipeID)
}

// UpdateNotes replaces the personal notes; a nil value clears them. The
// rating is preserved.
func (s *FavoriteService) UpdateNotes(ctx context.Context, userID, recipeID uuid.UUID, notes *string) (*favorite.Favorite, error) {
	if err := favorite.ValidateNotes(notes); err != nil {
		return nil, errors.Wrap(err, "invalid notes")
	}

	var fav *favorite.Favorite
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if fav, err = s.favorites.Find(ctx, userID, recipeID); err != nil {
			return err
		}
		fav.PersonalNotes = notes
		fav.UpdatedAt = time.Now().UTC()
		return s.favorites.Upsert(ctx, fav)
	})
	if err != nil {
		return nil, err
	}
	return fav, nil
}

// ListForUser lists a user's favorites, most recent first
func (s *FavoriteService) ListForUser(ctx context.Context, userID uuid.UUID, page inbound.PaginationParams) ([]*favorite.Favorite, int64, error) {
	page = page.Normalize(defaultPageSize, maxPageSize)
	return s.favorites.ListByUser(ctx, userID, page.Offset, page.Limit)
}
